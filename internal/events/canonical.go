package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Producer identifies this service in every envelope it emits.
const Producer = "stop-foreclosure-fast.lead-intake"

// CanonicalEvent represents a versioned domain event.
type CanonicalEvent interface {
	EventType() string
}

// Envelope is the transport wrapper consumers of the lead queue receive.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	Producer        string          `json:"producer"`
	Aggregate       string          `json:"aggregate"`
	TimestampMicros int64           `json:"timestamp"`
	CorrelationID   string          `json:"correlation_id,omitempty"`
	Payload         json.RawMessage `json:"payload"`
}

// OccurredAt returns the envelope timestamp.
func (e Envelope) OccurredAt() time.Time {
	return time.UnixMicro(e.TimestampMicros).UTC()
}

// EnvelopeOption customizes the generated envelope.
type EnvelopeOption func(*Envelope)

// WithEventID overrides the automatically generated event id.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithOccurredAt stamps the envelope with ts instead of the publish time.
// Lead events use the submission's receipt time so replays keep their order.
func WithOccurredAt(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if ts.IsZero() {
			return
		}
		e.TimestampMicros = ts.UTC().UnixMicro()
	}
}

var (
	errMissingAggregate = errors.New("events: aggregate is required")
	errNilEvent         = errors.New("events: canonical event required")
	nowFunc             = time.Now
)

// LeadAggregate is the aggregate key for events about one lead.
func LeadAggregate(leadID string) string {
	return "lead:" + strings.TrimSpace(leadID)
}

// NewEnvelope wraps evt for transport.
func NewEnvelope(aggregate, correlationID string, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	aggregate = strings.TrimSpace(aggregate)
	if aggregate == "" || aggregate == LeadAggregate("") {
		return Envelope{}, errMissingAggregate
	}
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		return Envelope{}, fmt.Errorf("events: event type missing")
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal %s payload: %w", eventType, err)
	}

	env := Envelope{
		EventID:         uuid.New(),
		EventType:       eventType,
		Producer:        Producer,
		Aggregate:       aggregate,
		TimestampMicros: nowFunc().UTC().UnixMicro(),
		CorrelationID:   strings.TrimSpace(correlationID),
		Payload:         payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}

// DecodeEnvelope parses a queue message body.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("events: decode envelope: %w", err)
	}
	if env.EventType == "" || env.Aggregate == "" || env.EventID == uuid.Nil {
		return Envelope{}, fmt.Errorf("events: envelope missing id, type or aggregate")
	}
	return env, nil
}

// LeadCaptured returns the payload of a lead.captured.v1 envelope.
func (e Envelope) LeadCaptured() (LeadCapturedV1, error) {
	if e.EventType != LeadCapturedV1Type {
		return LeadCapturedV1{}, fmt.Errorf("events: expected %s, got %s", LeadCapturedV1Type, e.EventType)
	}
	var evt LeadCapturedV1
	if err := json.Unmarshal(e.Payload, &evt); err != nil {
		return LeadCapturedV1{}, fmt.Errorf("events: decode %s: %w", LeadCapturedV1Type, err)
	}
	return evt, nil
}
