package leads

import (
	"html"
	"strings"
	"time"
)

// UrgencyLevel is the visitor's self-reported urgency.
type UrgencyLevel string

const (
	UrgencyEmergency UrgencyLevel = "emergency"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyConcerned UrgencyLevel = "concerned"
	UrgencyExploring UrgencyLevel = "exploring"
)

// Valid reports whether u is one of the known urgency levels.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencyConcerned, UrgencyExploring:
		return true
	}
	return false
}

// FormType identifies which site form produced the submission.
type FormType string

const (
	FormEmergency    FormType = "emergency"
	FormConsultation FormType = "consultation"
	FormLeadMagnet   FormType = "lead_magnet"
	FormContact      FormType = "contact"
)

// Valid reports whether f is one of the known form types.
func (f FormType) Valid() bool {
	switch f {
	case FormEmergency, FormConsultation, FormLeadMagnet, FormContact:
		return true
	}
	return false
}

// Priority is the response tier assigned from the score. P1 is the most urgent.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// Rank returns 1 for P1 through 4 for P4. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	default:
		return 4
	}
}

// Urgent reports whether the tier requires a staff alert.
func (p Priority) Urgent() bool {
	return p == PriorityP1 || p == PriorityP2
}

// Payload is the JSON body accepted by the intake endpoint.
type Payload struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	PropertyAddress   string `json:"propertyAddress"`
	Situation         string `json:"situation"`
	Notes             string `json:"notes"`
	UrgencyLevel      string `json:"urgencyLevel"`
	FormType          string `json:"formType"`
	Timeline          string `json:"timeline"`
	ForeclosureStatus string `json:"foreclosureStatus"`
	PropertyType      string `json:"propertyType"`
	DesiredPrice      string `json:"desiredPrice"`
	BestTimeToCall    string `json:"bestTime"`
	Source            string `json:"source"`
}

// RequestMeta carries server-derived request attributes.
type RequestMeta struct {
	SourceIP   string
	ReceivedAt time.Time
}

// Submission is a validated, cleaned lead. It is never mutated after Validate returns it.
type Submission struct {
	Email             string       `json:"email" validate:"required,max=254,email"`
	Name              string       `json:"name" validate:"max=100"`
	Phone             string       `json:"phone" validate:"omitempty,leadphone"`
	PropertyAddress   string       `json:"propertyAddress" validate:"max=300"`
	Situation         string       `json:"situation" validate:"max=1000"`
	UrgencyLevel      UrgencyLevel `json:"urgencyLevel,omitempty"`
	FormType          FormType     `json:"formType,omitempty"`
	Timeline          string       `json:"timeline" validate:"max=100"`
	ForeclosureStatus string       `json:"foreclosureStatus" validate:"max=100"`
	PropertyType      string       `json:"propertyType" validate:"max=100"`
	DesiredPrice      string       `json:"desiredPrice" validate:"max=100"`
	BestTimeToCall    string       `json:"bestTime" validate:"max=100"`
	Source            string       `json:"source" validate:"max=100"`
	SourceIP          string       `json:"sourceIp"`
	ReceivedAt        time.Time    `json:"receivedAt"`
}

// FirstName returns the first word of the name, or "" when no name was given.
func (s Submission) FirstName() string {
	if fields := strings.Fields(s.Name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Escaped returns a copy with every free-text field entity-encoded for HTML contexts.
func (s Submission) Escaped() Submission {
	out := s
	out.Email = html.EscapeString(s.Email)
	out.Name = html.EscapeString(s.Name)
	out.Phone = html.EscapeString(s.Phone)
	out.PropertyAddress = html.EscapeString(s.PropertyAddress)
	out.Situation = html.EscapeString(s.Situation)
	out.Timeline = html.EscapeString(s.Timeline)
	out.ForeclosureStatus = html.EscapeString(s.ForeclosureStatus)
	out.PropertyType = html.EscapeString(s.PropertyType)
	out.DesiredPrice = html.EscapeString(s.DesiredPrice)
	out.BestTimeToCall = html.EscapeString(s.BestTimeToCall)
	out.Source = html.EscapeString(s.Source)
	out.SourceIP = html.EscapeString(s.SourceIP)
	return out
}

// ScoredLead is a submission with its score and tier. Owned by the request that built it.
type ScoredLead struct {
	ID             string     `json:"id"`
	Submission     Submission `json:"submission"`
	Score          int        `json:"score"`
	Priority       Priority   `json:"priority"`
	ResponseWindow string     `json:"responseWindow"`
}

// DispatchOutcome is the recorded result of one delivery channel for a lead.
type DispatchOutcome struct {
	Channel     string        `json:"channel"`
	Success     bool          `json:"success"`
	Skipped     bool          `json:"skipped,omitempty"`
	ErrorReason string        `json:"errorReason,omitempty"`
	Duration    time.Duration `json:"duration"`
}
