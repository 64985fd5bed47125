package leads

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Repository is the append-only persistence sink for captured leads.
// Implementations create their header or schema on first use when it is missing.
type Repository interface {
	Append(ctx context.Context, lead ScoredLead) error
}

// RecordHeader names the columns produced by RecordRow.
var RecordHeader = []string{
	"Timestamp", "Lead ID", "Type", "Name", "Email", "Phone", "Property Address",
	"Desired Price", "Property Type", "Timeline", "Foreclosure Status", "Best Time to Call",
	"Urgency", "Situation", "Score", "Priority", "Source", "Source IP",
}

// RecordRow flattens a lead into the column order of RecordHeader.
func RecordRow(lead ScoredLead) []string {
	s := lead.Submission
	formType := string(s.FormType)
	if formType == "" {
		formType = string(FormContact)
	}
	return []string{
		s.ReceivedAt.UTC().Format(time.RFC3339),
		lead.ID,
		formType,
		s.Name,
		s.Email,
		s.Phone,
		s.PropertyAddress,
		s.DesiredPrice,
		s.PropertyType,
		s.Timeline,
		s.ForeclosureStatus,
		s.BestTimeToCall,
		string(s.UrgencyLevel),
		s.Situation,
		strconv.Itoa(lead.Score),
		string(lead.Priority),
		s.Source,
		s.SourceIP,
	}
}

// InMemoryRepository keeps leads in process memory. Used in development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads []ScoredLead
}

// NewInMemoryRepository creates an empty in-memory sink.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Append stores a copy of lead.
func (r *InMemoryRepository) Append(ctx context.Context, lead ScoredLead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.leads = append(r.leads, lead)
	r.mu.Unlock()
	return nil
}

// All returns the stored leads in append order.
func (r *InMemoryRepository) All() []ScoredLead {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ScoredLead, len(r.leads))
	copy(out, r.leads)
	return out
}
