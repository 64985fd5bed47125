package events

import (
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

// LeadCapturedV1Type is the event type published for every accepted lead.
const LeadCapturedV1Type = "lead.captured.v1"

// LeadCapturedV1 announces an accepted, scored lead to downstream consumers.
type LeadCapturedV1 struct {
	LeadID         string    `json:"lead_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	FormType       string    `json:"form_type,omitempty"`
	UrgencyLevel   string    `json:"urgency_level,omitempty"`
	Timeline       string    `json:"timeline,omitempty"`
	Source         string    `json:"source,omitempty"`
	Score          int       `json:"score"`
	Priority       string    `json:"priority"`
	ResponseWindow string    `json:"response_window"`
	ReceivedAt     time.Time `json:"received_at"`
}

func (LeadCapturedV1) EventType() string { return LeadCapturedV1Type }

// NewLeadCapturedV1 builds the event payload for lead.
func NewLeadCapturedV1(lead leads.ScoredLead) LeadCapturedV1 {
	s := lead.Submission
	return LeadCapturedV1{
		LeadID:         lead.ID,
		Email:          s.Email,
		Name:           s.Name,
		Phone:          s.Phone,
		FormType:       string(s.FormType),
		UrgencyLevel:   string(s.UrgencyLevel),
		Timeline:       s.Timeline,
		Source:         s.Source,
		Score:          lead.Score,
		Priority:       string(lead.Priority),
		ResponseWindow: lead.ResponseWindow,
		ReceivedAt:     s.ReceivedAt.UTC(),
	}
}
