package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/http/middleware"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// MaxBodyBytes caps the intake request body.
const MaxBodyBytes = 64 << 10

// Dispatcher delivers an accepted lead to every configured channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, lead ScoredLead) []DispatchOutcome
}

var responseMessages = map[Priority]string{
	PriorityP1: "Emergency request received! We will contact you within 1 hour during business hours.",
	PriorityP2: "Priority request received! We will contact you within 4 hours during business hours.",
	PriorityP3: "Request received! We will contact you within 24 hours during business hours.",
	PriorityP4: "Request received! We will contact you within 72 hours during business hours.",
}

var nextSteps = map[Priority][]string{
	PriorityP1: {"Immediate call within 1 hour", "Same-day virtual consultation", "Emergency response protocol"},
	PriorityP2: {"Priority call within 4 hours", "Next-day consultation available", "Urgent follow-up sequence"},
	PriorityP3: {"Call within 24 hours", "Standard consultation booking", "Regular follow-up sequence"},
	PriorityP4: {"Contact within 72 hours", "Nurture sequence initiated", "Educational content delivery"},
}

// NextSteps returns the visitor-facing follow-up list for a tier.
func NextSteps(p Priority) []string {
	steps, ok := nextSteps[p]
	if !ok {
		steps = nextSteps[PriorityP4]
	}
	return append([]string(nil), steps...)
}

// ResponseMessage returns the confirmation text for a tier.
func ResponseMessage(p Priority) string {
	if msg, ok := responseMessages[p]; ok {
		return msg
	}
	return responseMessages[PriorityP4]
}

// CaptureResponse is the 200 body of the intake endpoint.
type CaptureResponse struct {
	Success   bool     `json:"success"`
	LeadID    string   `json:"leadId"`
	Score     int      `json:"score"`
	Priority  Priority `json:"priority"`
	Message   string   `json:"message"`
	NextSteps []string `json:"nextSteps"`
}

// ScorePreviewResponse is returned by the admin scoring endpoint.
type ScorePreviewResponse struct {
	Score          int      `json:"score"`
	Priority       Priority `json:"priority"`
	ResponseWindow string   `json:"responseWindow"`
	NextSteps      []string `json:"nextSteps"`
}

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Handler serves the intake, scoring preview and health endpoints.
type Handler struct {
	validator  *Validator
	scorer     *Scorer
	dispatcher Dispatcher
	fallback   string
	metrics    *metrics.LeadMetrics
	logger     *logging.Logger
	now        func() time.Time
}

// HandlerConfig wires a Handler. Validator and Scorer default to production settings.
type HandlerConfig struct {
	Validator    *Validator
	Scorer       *Scorer
	Dispatcher   Dispatcher
	ContactPhone string
	Metrics      *metrics.LeadMetrics
	Logger       *logging.Logger
	Now          func() time.Time
}

// NewHandler creates a new leads handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Validator == nil {
		cfg.Validator = NewValidator(nil)
	}
	if cfg.Scorer == nil {
		cfg.Scorer = NewScorer(DefaultScoringConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Handler{
		validator:  cfg.Validator,
		scorer:     cfg.Scorer,
		dispatcher: cfg.Dispatcher,
		fallback:   middleware.FallbackMessage(cfg.ContactPhone),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

// Capture handles POST /lead-capture.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("lead capture panic", "panic", fmt.Sprint(rec), "request_id", middleware.RequestIDFrom(r))
			h.metrics.ObserveSubmission("error")
			h.writeError(w, http.StatusInternalServerError, "Unable to process request at this time", nil)
		}
	}()

	payload, err := decodePayload(w, r)
	if err != nil {
		h.logger.Warn("lead capture rejected body", "error", err)
		h.metrics.ObserveSubmission("bad_request")
		h.writeError(w, http.StatusBadRequest, ErrBadRequest.Error(), nil)
		return
	}

	meta := RequestMeta{SourceIP: middleware.ClientIP(r), ReceivedAt: h.now().UTC()}
	sub, verrs := h.validator.Validate(payload, meta)
	if len(verrs) > 0 {
		h.logger.Info("lead capture validation failed", "errors", verrs.Codes(), "source_ip", meta.SourceIP)
		h.metrics.ObserveSubmission("invalid")
		h.writeError(w, http.StatusBadRequest, "validation failed", verrs.Codes())
		return
	}

	lead := h.scorer.Score(*sub)
	lead.ID = NewLeadID(meta.ReceivedAt)

	if h.dispatcher != nil {
		// Side effects finish even if the visitor closes the page.
		outcomes := h.dispatcher.Dispatch(context.WithoutCancel(r.Context()), lead)
		h.logOutcomes(lead, outcomes)
	}

	h.metrics.ObserveSubmission("accepted")
	h.metrics.ObserveScored(string(lead.Priority))
	h.logger.Info("lead captured", "lead_id", lead.ID, "score", lead.Score, "priority", lead.Priority, "form_type", lead.Submission.FormType)

	writeJSON(w, http.StatusOK, CaptureResponse{
		Success:   true,
		LeadID:    lead.ID,
		Score:     lead.Score,
		Priority:  lead.Priority,
		Message:   ResponseMessage(lead.Priority),
		NextSteps: NextSteps(lead.Priority),
	})
}

// ScorePreview handles POST /admin/leads/score. It scores without dispatching.
func (h *Handler) ScorePreview(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrBadRequest.Error(), nil)
		return
	}
	sub, verrs := h.validator.Validate(payload, RequestMeta{SourceIP: middleware.ClientIP(r), ReceivedAt: h.now().UTC()})
	if len(verrs) > 0 {
		h.writeError(w, http.StatusBadRequest, "validation failed", verrs.Codes())
		return
	}
	lead := h.scorer.Score(*sub)
	writeJSON(w, http.StatusOK, ScorePreviewResponse{
		Score:          lead.Score,
		Priority:       lead.Priority,
		ResponseWindow: lead.ResponseWindow,
		NextSteps:      NextSteps(lead.Priority),
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) logOutcomes(lead ScoredLead, outcomes []DispatchOutcome) {
	failed := 0
	for _, o := range outcomes {
		if !o.Success && !o.Skipped {
			failed++
		}
	}
	if failed > 0 {
		h.logger.Warn("lead dispatch incomplete", "lead_id", lead.ID, "channels", len(outcomes), "failed", failed)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, errs []string) {
	writeJSON(w, status, middleware.ErrorResponse{
		Success:  false,
		Error:    msg,
		Errors:   errs,
		Fallback: h.fallback,
	})
}

// decodePayload reads exactly one JSON object with no unknown keys.
func decodePayload(w http.ResponseWriter, r *http.Request) (Payload, error) {
	var p Payload
	if r.Body == nil {
		return p, ErrBadRequest
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrBadRequest)
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
