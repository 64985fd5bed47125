package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

type mockEmailSender struct {
	mu     sync.Mutex
	sent   []EmailMessage
	failOn string
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockSMSSender struct {
	mu     sync.Mutex
	sent   []struct{ to, body string }
	failOn string
}

func (m *mockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && to == m.failOn {
		return errors.New("mock SMS error")
	}
	m.sent = append(m.sent, struct{ to, body string }{to, body})
	return nil
}

func testLead(p leads.Priority, window string) leads.ScoredLead {
	return leads.ScoredLead{
		ID: "lead_1772384400000_ab12cd34",
		Submission: leads.Submission{
			Email:           "jane@example.com",
			Name:            "Jane <b>Doe</b>",
			Phone:           "9495550100",
			PropertyAddress: "1 Main St & Elm",
			Situation:       `Auction "soon" & scared`,
			UrgencyLevel:    leads.UrgencyEmergency,
			ReceivedAt:      time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
		},
		Score:          215,
		Priority:       p,
		ResponseWindow: window,
	}
}

func TestSendAcknowledgement_VariantsByTier(t *testing.T) {
	cases := []struct {
		priority leads.Priority
		window   string
		subject  string
	}{
		{leads.PriorityP1, "1 hour", "🚨 URGENT: Emergency Foreclosure Help - Response Within 1 Hour"},
		{leads.PriorityP2, "4 hours", "⚠️ Priority Foreclosure Help - Response Within 4 Hours"},
		{leads.PriorityP3, "24 hours", "Your California Foreclosure Resources are Ready 📋"},
		{leads.PriorityP4, "72 hours", "Your California Foreclosure Resources are Ready 📋"},
	}
	for _, tc := range cases {
		t.Run(string(tc.priority), func(t *testing.T) {
			email := &mockEmailSender{}
			svc := NewService(email, nil, Config{}, nil)

			if err := svc.SendAcknowledgement(context.Background(), testLead(tc.priority, tc.window)); err != nil {
				t.Fatalf("ack: %v", err)
			}
			if len(email.sent) != 1 {
				t.Fatalf("expected 1 email, got %d", len(email.sent))
			}
			msg := email.sent[0]
			if msg.To != "jane@example.com" {
				t.Errorf("unexpected recipient %q", msg.To)
			}
			if msg.Subject != tc.subject {
				t.Errorf("unexpected subject %q", msg.Subject)
			}
			if msg.Tags[TagKind] != KindAcknowledgement || msg.Tags[TagPriority] != string(tc.priority) {
				t.Errorf("unexpected tags %v", msg.Tags)
			}
			for _, body := range []string{msg.Body, msg.HTML} {
				if !strings.Contains(body, DefaultContactPhone) {
					t.Errorf("acknowledgement missing contact phone: %s", body)
				}
				if !strings.Contains(body, tc.window) {
					t.Errorf("acknowledgement missing response window: %s", body)
				}
			}
		})
	}
}

func TestSendAcknowledgement_EscapesName(t *testing.T) {
	email := &mockEmailSender{}
	svc := NewService(email, nil, Config{HumanContactPhone: "(800) 555-0000"}, nil)

	lead := testLead(leads.PriorityP1, "1 hour")
	lead.Submission.Name = "<i>Jane</i> Doe"
	if err := svc.SendAcknowledgement(context.Background(), lead); err != nil {
		t.Fatalf("ack: %v", err)
	}
	html := email.sent[0].HTML
	if strings.Contains(html, "<i>") {
		t.Fatalf("raw markup leaked into acknowledgement: %s", html)
	}
	if !strings.Contains(html, "Hi &lt;i&gt;Jane&lt;/i&gt;") {
		t.Fatalf("expected escaped greeting: %s", html)
	}
	if !strings.Contains(html, "(800) 555-0000") {
		t.Fatalf("expected configured contact phone: %s", html)
	}
}

func TestSendAcknowledgement_NoSender(t *testing.T) {
	svc := NewService(nil, nil, Config{}, nil)
	if svc.CanAcknowledge() {
		t.Fatal("expected CanAcknowledge false")
	}
	if err := svc.SendAcknowledgement(context.Background(), testLead(leads.PriorityP4, "72 hours")); err == nil {
		t.Fatal("expected error without sender")
	}
}

func TestSendAlert_EmailAndSMS(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	svc := NewService(email, sms, Config{
		AlertEmails: []string{"ops@example.com", "owner@example.com"},
		AlertPhones: []string{"+19495655285"},
	}, nil)

	if err := svc.SendAlert(context.Background(), testLead(leads.PriorityP1, "1 hour")); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if len(email.sent) != 2 {
		t.Fatalf("expected 2 alert emails, got %d", len(email.sent))
	}
	msg := email.sent[0]
	if msg.Subject != "🚨 HIGH PRIORITY LEAD - Score: 215" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if msg.Tags[TagKind] != KindAlert || msg.Tags[TagPriority] != "P1" {
		t.Errorf("unexpected tags %v", msg.Tags)
	}
	for _, body := range []string{msg.Body, msg.HTML} {
		if strings.Contains(body, "<b>") || strings.Contains(body, `"soon"`) {
			t.Errorf("alert contains unescaped input: %s", body)
		}
		if !strings.Contains(body, "Jane &lt;b&gt;Doe&lt;/b&gt;") || !strings.Contains(body, "1 Main St &amp; Elm") {
			t.Errorf("alert missing escaped fields: %s", body)
		}
		if !strings.Contains(body, "215") {
			t.Errorf("alert missing score: %s", body)
		}
	}

	if len(sms.sent) != 1 {
		t.Fatalf("expected 1 SMS, got %d", len(sms.sent))
	}
	if !strings.Contains(sms.sent[0].body, "score 215") || !strings.Contains(sms.sent[0].body, "9495550100") {
		t.Errorf("unexpected SMS body %q", sms.sent[0].body)
	}
}

func TestSendAlert_AggregatesFailures(t *testing.T) {
	email := &mockEmailSender{failOn: "ops@example.com"}
	sms := &mockSMSSender{failOn: "+19495655285"}
	svc := NewService(email, sms, Config{
		AlertEmails: []string{"ops@example.com", "owner@example.com"},
		AlertPhones: []string{"+19495655285", "+17145550100"},
	}, nil)

	err := svc.SendAlert(context.Background(), testLead(leads.PriorityP2, "4 hours"))
	if err == nil || !strings.Contains(err.Error(), "2 alert(s) failed") {
		t.Fatalf("expected aggregated failure, got %v", err)
	}
	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Fatalf("remaining recipients should still be notified: email=%d sms=%d", len(email.sent), len(sms.sent))
	}
}

func TestSendAlert_NoRecipients(t *testing.T) {
	svc := NewService(&mockEmailSender{}, &mockSMSSender{}, Config{}, nil)
	if svc.CanAlert() {
		t.Fatal("expected CanAlert false without recipients")
	}
	if err := svc.SendAlert(context.Background(), testLead(leads.PriorityP1, "1 hour")); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}
