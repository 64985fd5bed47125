package leads

import (
	"fmt"
	"strings"
)

// PhraseWeight awards Weight once when Phrase appears in the situation text.
type PhraseWeight struct {
	Phrase string
	Weight int
}

// Thresholds are the minimum scores for P1..P3; anything lower is P4.
type Thresholds struct {
	P1 int
	P2 int
	P3 int
}

// ScoringConfig holds every weight the scorer uses.
type ScoringConfig struct {
	UrgencyWeights  map[UrgencyLevel]int
	FormTypeWeights map[FormType]int
	Phrases         []PhraseWeight
	PhoneBonus      int
	EmailBonus      int
	AddressBonus    int
	MaxScore        int
	Thresholds      Thresholds
	ResponseWindows map[Priority]string
}

// DefaultScoringConfig returns the production weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		UrgencyWeights: map[UrgencyLevel]int{
			UrgencyEmergency: 100,
			UrgencyUrgent:    75,
			UrgencyConcerned: 50,
			UrgencyExploring: 25,
		},
		FormTypeWeights: map[FormType]int{
			FormEmergency:    50,
			FormConsultation: 40,
			FormContact:      30,
			FormLeadMagnet:   25,
		},
		Phrases: []PhraseWeight{
			{Phrase: "auction", Weight: 80},
			{Phrase: "notice of default", Weight: 60},
			{Phrase: "missed payments", Weight: 40},
			{Phrase: "30 days", Weight: 70},
		},
		PhoneBonus:   20,
		EmailBonus:   15,
		AddressBonus: 15,
		MaxScore:     500,
		Thresholds:   Thresholds{P1: 200, P2: 150, P3: 100},
		ResponseWindows: map[Priority]string{
			PriorityP1: "1 hour",
			PriorityP2: "4 hours",
			PriorityP3: "24 hours",
			PriorityP4: "72 hours",
		},
	}
}

// Validate rejects configurations whose tiers are not monotonic or not all reachable.
func (c ScoringConfig) Validate() error {
	if c.MaxScore <= 0 {
		return fmt.Errorf("leads: max score must be positive, got %d", c.MaxScore)
	}
	t := c.Thresholds
	if !(t.P1 > t.P2 && t.P2 > t.P3 && t.P3 >= 0) {
		return fmt.Errorf("leads: thresholds must satisfy P1 > P2 > P3 >= 0, got %d/%d/%d", t.P1, t.P2, t.P3)
	}
	if t.P1 > c.MaxScore {
		return fmt.Errorf("leads: P1 threshold %d exceeds max score %d", t.P1, c.MaxScore)
	}
	return nil
}

// Scorer turns submissions into scored leads. It has no state beyond its configuration.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer builds a scorer with cfg.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// Score computes the weighted sum for sub, clamped to [0, MaxScore], and its tier.
func (s *Scorer) Score(sub Submission) ScoredLead {
	score := s.cfg.UrgencyWeights[sub.UrgencyLevel]

	if text := foldText(sub.Situation); text != "" {
		for _, p := range s.cfg.Phrases {
			if p.Phrase != "" && strings.Contains(text, foldText(p.Phrase)) {
				score += p.Weight
			}
		}
	}

	if sub.Phone != "" {
		score += s.cfg.PhoneBonus
	}
	if sub.Email != "" {
		score += s.cfg.EmailBonus
	}
	if sub.PropertyAddress != "" {
		score += s.cfg.AddressBonus
	}

	score += s.cfg.FormTypeWeights[sub.FormType]

	score = clamp(score, 0, s.cfg.MaxScore)
	priority := s.PriorityFor(score)

	return ScoredLead{
		Submission:     sub,
		Score:          score,
		Priority:       priority,
		ResponseWindow: s.cfg.ResponseWindows[priority],
	}
}

// PriorityFor maps a score to its tier, checking the highest threshold first.
func (s *Scorer) PriorityFor(score int) Priority {
	t := s.cfg.Thresholds
	switch {
	case score >= t.P1:
		return PriorityP1
	case score >= t.P2:
		return PriorityP2
	case score >= t.P3:
		return PriorityP3
	default:
		return PriorityP4
	}
}

// foldText lowercases and turns form-value separators into spaces so
// "auction_scheduled" and "less-than-30-days" match their phrases.
func foldText(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
