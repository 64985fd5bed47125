package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends canonical events to an SQS queue.
type SQSPublisher struct {
	client   sqsSender
	queueURL string
}

// NewSQSPublisher creates a publisher around the provided SQS client.
func NewSQSPublisher(client sqsSender, queueURL string) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{client: client, queueURL: queueURL}
}

// Publish wraps evt in an envelope and sends it. The event type is also set as a message attribute.
func (p *SQSPublisher) Publish(ctx context.Context, aggregate, correlationID string, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	env, err := NewEnvelope(aggregate, correlationID, evt, opts...)
	if err != nil {
		return Envelope{}, err
	}
	return env, p.send(ctx, env, nil)
}

// PublishLead announces an accepted lead. The priority travels as a message
// attribute so P1/P2 consumers can filter without decoding the body.
func (p *SQSPublisher) PublishLead(ctx context.Context, lead leads.ScoredLead) (Envelope, error) {
	env, err := NewEnvelope(LeadAggregate(lead.ID), lead.ID, NewLeadCapturedV1(lead),
		WithOccurredAt(lead.Submission.ReceivedAt))
	if err != nil {
		return Envelope{}, err
	}
	return env, p.send(ctx, env, map[string]string{"priority": string(lead.Priority)})
}

func (p *SQSPublisher) send(ctx context.Context, env Envelope, extra map[string]string) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	attrs := map[string]types.MessageAttributeValue{
		"event_type": stringAttribute(env.EventType),
		"producer":   stringAttribute(env.Producer),
	}
	for k, v := range extra {
		if v != "" {
			attrs[k] = stringAttribute(v)
		}
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("events: send %s for %s: %w", env.EventType, env.Aggregate, err)
	}
	return nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}
