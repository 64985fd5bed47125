package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/convertkit"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/events"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

// Channel names.
const (
	ChannelPersistence     = "persistence"
	ChannelSequence        = "sequence"
	ChannelAcknowledgement = "acknowledgement"
	ChannelAlert           = "alert"
	ChannelWebhook         = "webhook"
	ChannelEvents          = "events"
)

// PersistenceChannel appends the lead to the configured sink.
type PersistenceChannel struct {
	repo leads.Repository
}

func NewPersistenceChannel(repo leads.Repository) *PersistenceChannel {
	if repo == nil {
		return nil
	}
	return &PersistenceChannel{repo: repo}
}

func (c *PersistenceChannel) Name() string { return ChannelPersistence }
func (c *PersistenceChannel) Applies(leads.ScoredLead) bool { return true }

func (c *PersistenceChannel) Deliver(ctx context.Context, lead leads.ScoredLead) error {
	return c.repo.Append(ctx, lead)
}

// Subscriber is the email-marketing client used by SequenceChannel.
type Subscriber interface {
	Subscribe(ctx context.Context, sequenceID string, sub convertkit.Subscriber) (*convertkit.Subscription, error)
}

// SequenceChannel enrolls the lead in the nurture sequence for its tier.
type SequenceChannel struct {
	client    Subscriber
	sequences map[leads.Priority]string
}

// NewSequenceChannel returns nil when no client or no sequence is configured.
func NewSequenceChannel(client Subscriber, sequences map[leads.Priority]string) *SequenceChannel {
	if client == nil || len(sequences) == 0 {
		return nil
	}
	return &SequenceChannel{client: client, sequences: sequences}
}

func (c *SequenceChannel) Name() string { return ChannelSequence }
func (c *SequenceChannel) Applies(leads.ScoredLead) bool { return true }

func (c *SequenceChannel) Deliver(ctx context.Context, lead leads.ScoredLead) error {
	seq := strings.TrimSpace(c.sequences[lead.Priority])
	if seq == "" {
		return fmt.Errorf("%w: no sequence for %s", ErrSkipped, lead.Priority)
	}
	_, err := c.client.Subscribe(ctx, seq, SubscriberFor(lead))
	return err
}

// SubscriberFor builds the sequence subscriber with its tags and custom fields.
func SubscriberFor(lead leads.ScoredLead) convertkit.Subscriber {
	s := lead.Submission
	tags := []string{"foreclosure-lead"}
	if s.FormType != "" {
		tags = append(tags, "source-"+string(s.FormType))
	}
	if t := tagValue(s.Timeline); t != "" {
		tags = append(tags, "timeline-"+t)
	}
	if lead.Priority.Urgent() {
		tags = append(tags, "urgent-lead")
	}

	fields := map[string]string{
		"lead_id":       lead.ID,
		"lead_score":    strconv.Itoa(lead.Score),
		"priority":      string(lead.Priority),
		"urgency_level": string(s.UrgencyLevel),
	}
	for k, v := range map[string]string{
		"phone":              s.Phone,
		"property_address":   s.PropertyAddress,
		"foreclosure_status": s.ForeclosureStatus,
		"timeline":           s.Timeline,
	} {
		if v != "" {
			fields[k] = v
		}
	}

	return convertkit.Subscriber{
		Email:     s.Email,
		FirstName: s.FirstName(),
		Tags:      tags,
		Fields:    fields,
	}
}

func tagValue(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Notifier sends lead acknowledgements and staff alerts.
type Notifier interface {
	CanAcknowledge() bool
	CanAlert() bool
	SendAcknowledgement(ctx context.Context, lead leads.ScoredLead) error
	SendAlert(ctx context.Context, lead leads.ScoredLead) error
}

// AcknowledgementChannel emails the lead a confirmation.
type AcknowledgementChannel struct {
	notifier Notifier
}

func NewAcknowledgementChannel(n Notifier) *AcknowledgementChannel {
	if n == nil || !n.CanAcknowledge() {
		return nil
	}
	return &AcknowledgementChannel{notifier: n}
}

func (c *AcknowledgementChannel) Name() string { return ChannelAcknowledgement }
func (c *AcknowledgementChannel) Applies(leads.ScoredLead) bool { return true }

func (c *AcknowledgementChannel) Deliver(ctx context.Context, lead leads.ScoredLead) error {
	return c.notifier.SendAcknowledgement(ctx, lead)
}

// AlertChannel pages staff for P1 and P2 leads only.
type AlertChannel struct {
	notifier Notifier
}

func NewAlertChannel(n Notifier) *AlertChannel {
	if n == nil || !n.CanAlert() {
		return nil
	}
	return &AlertChannel{notifier: n}
}

func (c *AlertChannel) Name() string { return ChannelAlert }

func (c *AlertChannel) Applies(lead leads.ScoredLead) bool { return lead.Priority.Urgent() }

func (c *AlertChannel) Deliver(ctx context.Context, lead leads.ScoredLead) error {
	return c.notifier.SendAlert(ctx, lead)
}

// EventPublisher announces accepted leads to downstream consumers.
type EventPublisher interface {
	PublishLead(ctx context.Context, lead leads.ScoredLead) (events.Envelope, error)
}

// EventsChannel publishes lead.captured.v1.
type EventsChannel struct {
	publisher EventPublisher
}

func NewEventsChannel(p EventPublisher) *EventsChannel {
	if p == nil {
		return nil
	}
	return &EventsChannel{publisher: p}
}

func (c *EventsChannel) Name() string { return ChannelEvents }
func (c *EventsChannel) Applies(leads.ScoredLead) bool { return true }

func (c *EventsChannel) Deliver(ctx context.Context, lead leads.ScoredLead) error {
	_, err := c.publisher.PublishLead(ctx, lead)
	return err
}
