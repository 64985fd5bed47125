package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// DefaultContactPhone is the human contact line shown to visitors.
const DefaultContactPhone = "(949) 565-5285"

// ErrNoRecipients is returned when an alert has nobody to go to.
var ErrNoRecipients = errors.New("notify: no alert recipients configured")

// Config lists who receives staff alerts.
type Config struct {
	AlertEmails       []string
	AlertPhones       []string
	HumanContactPhone string
}

// Service sends lead acknowledgements and staff alerts.
type Service struct {
	email  EmailSender
	sms    SMSSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service. Either sender may be nil.
func NewService(email EmailSender, sms SMSSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HumanContactPhone) == "" {
		cfg.HumanContactPhone = DefaultContactPhone
	}
	return &Service{email: email, sms: sms, cfg: cfg, logger: logger}
}

// CanAcknowledge reports whether an email sender is configured.
func (s *Service) CanAcknowledge() bool {
	return s != nil && s.email != nil
}

// CanAlert reports whether at least one alert route is configured.
func (s *Service) CanAlert() bool {
	if s == nil {
		return false
	}
	return (s.email != nil && len(s.cfg.AlertEmails) > 0) || (s.sms != nil && len(s.cfg.AlertPhones) > 0)
}

// SendAcknowledgement emails the lead a tier-specific confirmation.
func (s *Service) SendAcknowledgement(ctx context.Context, lead leads.ScoredLead) error {
	if s.email == nil {
		return fmt.Errorf("notify: email sender not configured")
	}
	msg, err := s.acknowledgement(lead)
	if err != nil {
		return err
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Info("notify: acknowledgement sent", "lead_id", lead.ID, "priority", lead.Priority)
	return nil
}

func (s *Service) acknowledgement(lead leads.ScoredLead) (EmailMessage, error) {
	esc := lead.Submission.Escaped()
	v := variantFor(lead.Priority)

	greeting := "Hello"
	if first := esc.FirstName(); first != "" {
		greeting = "Hi " + first
	}
	data := ackData{
		Greeting:       greeting,
		Headline:       v.Headline,
		Promise:        v.Promise,
		ResponseWindow: lead.ResponseWindow,
		ContactPhone:   s.cfg.HumanContactPhone,
		LeadID:         lead.ID,
	}
	text, err := render(ackTextTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	html, err := render(ackHTMLTmpl, data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      lead.Submission.Email,
		ToName:  lead.Submission.Name,
		Subject: v.Subject,
		Body:    text,
		HTML:    html,
		Tags:    map[string]string{TagKind: KindAcknowledgement, TagPriority: string(lead.Priority)},
	}, nil
}

// SendAlert notifies staff by email and SMS. It returns an error if any send failed.
func (s *Service) SendAlert(ctx context.Context, lead leads.ScoredLead) error {
	if !s.CanAlert() {
		return ErrNoRecipients
	}

	data := alertData{
		Lead:           lead.Submission.Escaped(),
		LeadID:         lead.ID,
		Score:          lead.Score,
		Priority:       lead.Priority,
		ResponseWindow: lead.ResponseWindow,
		ReceivedAt:     lead.Submission.ReceivedAt.UTC().Format(time.RFC1123),
	}

	var errs []error

	if s.email != nil && len(s.cfg.AlertEmails) > 0 {
		text, err := render(alertTextTmpl, data)
		if err != nil {
			return err
		}
		html, err := render(alertHTMLTmpl, data)
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("🚨 HIGH PRIORITY LEAD - Score: %d", lead.Score)
		for _, recipient := range s.cfg.AlertEmails {
			msg := EmailMessage{
				To:      recipient,
				Subject: subject,
				Body:    text,
				HTML:    html,
				Tags:    map[string]string{TagKind: KindAlert, TagPriority: string(lead.Priority)},
			}
			if err := s.email.Send(ctx, msg); err != nil {
				s.logger.Error("notify: failed to send alert email", "error", err, "to", recipient, "lead_id", lead.ID)
				errs = append(errs, err)
			}
		}
	}

	if s.sms != nil && len(s.cfg.AlertPhones) > 0 {
		body, err := render(alertSMSTmpl, data)
		if err != nil {
			return err
		}
		for _, recipient := range s.cfg.AlertPhones {
			if err := s.sms.SendSMS(ctx, recipient, body); err != nil {
				s.logger.Error("notify: failed to send alert SMS", "error", err, "to", recipient, "lead_id", lead.ID)
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d alert(s) failed: %w", len(errs), errors.Join(errs...))
	}
	s.logger.Info("notify: staff alerted", "lead_id", lead.ID, "priority", lead.Priority, "score", lead.Score)
	return nil
}
