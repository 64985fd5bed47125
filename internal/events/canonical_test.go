package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

type badEvent struct{}

func (badEvent) EventType() string { return "" }

func sampleLead() leads.ScoredLead {
	return leads.ScoredLead{
		ID: "lead_1772384400000_ab12cd34",
		Submission: leads.Submission{
			Email:        "a@b.com",
			Phone:        "5551234567",
			UrgencyLevel: leads.UrgencyEmergency,
			ReceivedAt:   time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
		},
		Score:          215,
		Priority:       leads.PriorityP1,
		ResponseWindow: "1 hour",
	}
}

func TestNewEnvelope(t *testing.T) {
	fixedNow := time.Unix(0, 123456000).UTC()
	prevNow := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	defer func() { nowFunc = prevNow }()

	id := uuid.MustParse("9a20d7d1-bf6a-4d33-bd55-5d25a816f1a8")
	env, err := NewEnvelope("lead:lead_1", "req-1", NewLeadCapturedV1(sampleLead()), WithEventID(id))
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.EventID != id {
		t.Fatalf("expected event id override, got %s", env.EventID)
	}
	if env.TimestampMicros != fixedNow.UnixMicro() {
		t.Fatalf("unexpected timestamp: %d", env.TimestampMicros)
	}
	if env.EventType != "lead.captured.v1" {
		t.Fatalf("unexpected type: %s", env.EventType)
	}
	if env.Producer != Producer {
		t.Fatalf("unexpected producer: %s", env.Producer)
	}

	var payload LeadCapturedV1
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.LeadID != "lead_1772384400000_ab12cd34" || payload.Score != 215 || payload.Priority != "P1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestNewEnvelopeValidation(t *testing.T) {
	if _, err := NewEnvelope("", "", NewLeadCapturedV1(sampleLead())); err == nil {
		t.Fatal("expected error for missing aggregate")
	}
	if _, err := NewEnvelope("lead:1", "", nil); err == nil {
		t.Fatal("expected error for nil event")
	}
	if _, err := NewEnvelope(LeadAggregate(" "), "", NewLeadCapturedV1(sampleLead())); err == nil {
		t.Fatal("expected error for lead aggregate without id")
	}
	if _, err := NewEnvelope("lead:1", "", badEvent{}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}

type mockSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (m *mockSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublisherPublish(t *testing.T) {
	mock := &mockSQS{}
	pub := NewSQSPublisher(mock, "https://sqs.us-west-2.amazonaws.com/123/leads")

	env, err := pub.Publish(context.Background(), "lead:lead_1", "req-1", NewLeadCapturedV1(sampleLead()))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if aws.ToString(mock.input.QueueUrl) != "https://sqs.us-west-2.amazonaws.com/123/leads" {
		t.Fatalf("unexpected queue url %q", aws.ToString(mock.input.QueueUrl))
	}
	attr := mock.input.MessageAttributes["event_type"]
	if aws.ToString(attr.StringValue) != LeadCapturedV1Type {
		t.Fatalf("unexpected event_type attribute %+v", attr)
	}

	var sent Envelope
	if err := json.Unmarshal([]byte(aws.ToString(mock.input.MessageBody)), &sent); err != nil {
		t.Fatalf("body: %v", err)
	}
	if sent.EventID != env.EventID || sent.CorrelationID != "req-1" {
		t.Fatalf("unexpected envelope %+v", sent)
	}
}

func TestSQSPublisherError(t *testing.T) {
	pub := NewSQSPublisher(&mockSQS{err: errors.New("denied")}, "q")
	if _, err := pub.Publish(context.Background(), "lead:1", "", NewLeadCapturedV1(sampleLead())); err == nil {
		t.Fatal("expected error")
	}
}

func TestSQSPublisherPublishLead(t *testing.T) {
	mock := &mockSQS{}
	pub := NewSQSPublisher(mock, "https://sqs.us-west-2.amazonaws.com/123/leads")
	lead := sampleLead()

	env, err := pub.PublishLead(context.Background(), lead)
	if err != nil {
		t.Fatalf("publish lead: %v", err)
	}
	if env.Aggregate != "lead:lead_1772384400000_ab12cd34" || env.CorrelationID != lead.ID {
		t.Fatalf("unexpected envelope keys %+v", env)
	}
	if !env.OccurredAt().Equal(lead.Submission.ReceivedAt) {
		t.Fatalf("expected receipt time, got %s", env.OccurredAt())
	}
	for name, want := range map[string]string{"event_type": LeadCapturedV1Type, "producer": Producer, "priority": "P1"} {
		if got := aws.ToString(mock.input.MessageAttributes[name].StringValue); got != want {
			t.Fatalf("attribute %s: expected %q, got %q", name, want, got)
		}
	}

	decoded, err := DecodeEnvelope([]byte(aws.ToString(mock.input.MessageBody)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	captured, err := decoded.LeadCaptured()
	if err != nil {
		t.Fatalf("lead captured: %v", err)
	}
	if captured.LeadID != lead.ID || captured.Priority != "P1" || captured.Email != "a@b.com" {
		t.Fatalf("unexpected payload %+v", captured)
	}
}

func TestDecodeEnvelopeRejectsIncomplete(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"event_type":"lead.captured.v1"}`)); err == nil {
		t.Fatal("expected error for envelope without id or aggregate")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestEnvelopeLeadCapturedWrongType(t *testing.T) {
	env := Envelope{EventType: "lead.updated.v1", Payload: []byte(`{}`)}
	if _, err := env.LeadCaptured(); err == nil {
		t.Fatal("expected type mismatch error")
	}
}
