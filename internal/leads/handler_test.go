package leads_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/dispatch"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/http/middleware"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/notify"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

var fixedNow = time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)

type recordingEmail struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
	fail func(notify.EmailMessage) error
}

func (r *recordingEmail) Send(_ context.Context, msg notify.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		if err := r.fail(msg); err != nil {
			return err
		}
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingEmail) messages() []notify.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.EmailMessage(nil), r.sent...)
}

type recordingSMS struct {
	mu    sync.Mutex
	count int
}

func (r *recordingSMS) SendSMS(context.Context, string, string) error {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	return nil
}

type harness struct {
	handler *leads.Handler
	repo    *leads.InMemoryRepository
	email   *recordingEmail
	sms     *recordingSMS
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.NewWithWriter("error", &bytes.Buffer{})
	repo := leads.NewInMemoryRepository()
	email := &recordingEmail{}
	sms := &recordingSMS{}
	svc := notify.NewService(email, sms, notify.Config{
		AlertEmails: []string{"ops@stopforeclosurefast.com"},
		AlertPhones: []string{"+15550100000"},
	}, logger)

	d := dispatch.New([]dispatch.Channel{
		dispatch.NewPersistenceChannel(repo),
		dispatch.NewAcknowledgementChannel(svc),
		dispatch.NewAlertChannel(svc),
	}, dispatch.Options{Timeout: time.Second, Logger: logger})

	h := leads.NewHandler(leads.HandlerConfig{
		Dispatcher:   d,
		ContactPhone: "(555) 010-0000",
		Metrics:      metrics.NewLeadMetrics(prometheus.NewRegistry()),
		Logger:       logger,
		Now:          func() time.Time { return fixedNow },
	})
	return &harness{handler: h, repo: repo, email: email, sms: sms}
}

func (h *harness) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/lead-capture", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:40000"
	rec := httptest.NewRecorder()
	h.handler.Capture(rec, req)
	return rec
}

func alertEmails(msgs []notify.EmailMessage) []notify.EmailMessage {
	var out []notify.EmailMessage
	for _, m := range msgs {
		if m.To == "ops@stopforeclosurefast.com" {
			out = append(out, m)
		}
	}
	return out
}

func TestCapture_EmergencyAuctionLeadIsP1AndAlertsStaff(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, `{"email":"a@b.com","urgencyLevel":"emergency","situation":"auction scheduled next week","phone":"5551234567"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp leads.CaptureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 215, resp.Score)
	assert.Equal(t, leads.PriorityP1, resp.Priority)
	assert.Equal(t, leads.NextSteps(leads.PriorityP1), resp.NextSteps)
	assert.Equal(t, leads.ResponseMessage(leads.PriorityP1), resp.Message)
	assert.True(t, strings.HasPrefix(resp.LeadID, "lead_"), resp.LeadID)

	stored := h.repo.All()
	require.Len(t, stored, 1)
	assert.Equal(t, resp.LeadID, stored[0].ID)
	assert.Equal(t, "203.0.113.9", stored[0].Submission.SourceIP)
	assert.Equal(t, "5551234567", stored[0].Submission.Phone)

	assert.Len(t, alertEmails(h.email.messages()), 1)
	assert.Equal(t, 1, h.sms.count)
}

func TestCapture_EmailOnlyLeadIsP4WithoutAlert(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, `{"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp leads.CaptureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 15, resp.Score)
	assert.Equal(t, leads.PriorityP4, resp.Priority)
	assert.Equal(t, []string{"Contact within 72 hours", "Nurture sequence initiated", "Educational content delivery"}, resp.NextSteps)

	assert.Empty(t, alertEmails(h.email.messages()))
	assert.Zero(t, h.sms.count)
	assert.Len(t, h.email.messages(), 1, "acknowledgement only")
	assert.Len(t, h.repo.All(), 1)
}

func TestCapture_FailingEmailStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.email.fail = func(notify.EmailMessage) error { return errors.New("sendgrid: 503") }

	rec := h.post(t, `{"email":"a@b.com","urgencyLevel":"emergency","situation":"auction in 30 days"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.repo.All(), 1)
	assert.Equal(t, 1, h.sms.count)
}

func TestCapture_InvalidEmailInvokesNoChannel(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, `{"email":"not-an-email","urgencyLevel":"emergency"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Errors, "email:invalid")
	assert.Contains(t, resp.Fallback, "(555) 010-0000")

	assert.Empty(t, h.repo.All())
	assert.Empty(t, h.email.messages())
	assert.Zero(t, h.sms.count)
}

func TestCapture_UnsafeContentIsRejected(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, `{"email":"a@b.com","situation":"<script>alert(1)</script>"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Empty(t, h.repo.All())
}

func TestCapture_MarkupIsEscapedInNotifications(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, `{"email":"a@b.com","name":"Ann <b>Lee</b>","urgencyLevel":"emergency","situation":"auction & <i>eviction</i>"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	alerts := alertEmails(h.email.messages())
	require.Len(t, alerts, 1)
	assert.NotContains(t, alerts[0].HTML, "<i>eviction</i>")
	assert.NotContains(t, alerts[0].Body, "<b>Lee</b>")
	assert.Contains(t, alerts[0].HTML, "&lt;i&gt;eviction")
}

func TestCapture_MalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `email=a@b.com`},
		{"unknown field", `{"email":"a@b.com","admin":true}`},
		{"trailing data", `{"email":"a@b.com"}{"email":"c@d.com"}`},
		{"wrong type", `{"email":42}`},
		{"oversized", `{"email":"a@b.com","situation":"` + strings.Repeat("x", leads.MaxBodyBytes) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.post(t, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "bad request", resp.Error)
			assert.NotEmpty(t, resp.Fallback)
			assert.Empty(t, h.repo.All())
		})
	}
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(context.Context, leads.ScoredLead) []leads.DispatchOutcome {
	panic("boom")
}

func TestCapture_PanicBecomesJSON500(t *testing.T) {
	h := leads.NewHandler(leads.HandlerConfig{
		Dispatcher: panickingDispatcher{},
		Logger:     logging.NewWithWriter("error", &bytes.Buffer{}),
	})
	req := httptest.NewRequest(http.MethodPost, "/lead-capture", strings.NewReader(`{"email":"a@b.com"}`))
	rec := httptest.NewRecorder()

	h.Capture(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Fallback, middleware.DefaultContactPhone)
	assert.NotContains(t, rec.Body.String(), "boom")
}

type ctxCheckingDispatcher struct {
	err error
}

func (d *ctxCheckingDispatcher) Dispatch(ctx context.Context, _ leads.ScoredLead) []leads.DispatchOutcome {
	d.err = ctx.Err()
	return nil
}

func TestCapture_DispatchIgnoresClientCancellation(t *testing.T) {
	d := &ctxCheckingDispatcher{}
	h := leads.NewHandler(leads.HandlerConfig{Dispatcher: d, Logger: logging.NewWithWriter("error", &bytes.Buffer{})})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/lead-capture", strings.NewReader(`{"email":"a@b.com"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.Capture(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, d.err)
}

func TestScorePreview_DoesNotDispatch(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/leads/score", strings.NewReader(`{"email":"a@b.com","urgencyLevel":"urgent","formType":"consultation"}`))
	rec := httptest.NewRecorder()

	h.handler.ScorePreview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp leads.ScorePreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 130, resp.Score)
	assert.Equal(t, leads.PriorityP3, resp.Priority)
	assert.Equal(t, "24 hours", resp.ResponseWindow)
	assert.Empty(t, h.repo.All())
	assert.Empty(t, h.email.messages())
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()

	h.handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp leads.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "2026-03-01T17:00:00Z", resp.Timestamp)
}
