package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

// WebhookChannel posts the lead to a CRM intake URL.
type WebhookChannel struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewWebhookChannel returns nil when url is empty.
func NewWebhookChannel(url, token string, httpClient *http.Client) *WebhookChannel {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookChannel{url: url, token: token, httpClient: httpClient}
}

func (c *WebhookChannel) Name() string { return ChannelWebhook }
func (c *WebhookChannel) Applies(leads.ScoredLead) bool { return true }

type crmLeadData struct {
	LeadID            string `json:"lead_id"`
	Email             string `json:"email"`
	Name              string `json:"name,omitempty"`
	Phone             string `json:"phone,omitempty"`
	PropertyAddress   string `json:"property_address,omitempty"`
	Situation         string `json:"situation,omitempty"`
	UrgencyLevel      string `json:"urgency_level,omitempty"`
	FormType          string `json:"form_type,omitempty"`
	Timeline          string `json:"timeline,omitempty"`
	ForeclosureStatus string `json:"foreclosure_status,omitempty"`
	Score             int    `json:"score"`
	Priority          string `json:"priority"`
	ResponseWindow    string `json:"response_window"`
	ReceivedAt        string `json:"received_at"`
}

type crmPayload struct {
	Source     string      `json:"source"`
	LeadData   crmLeadData `json:"lead_data"`
	AutoAssign bool        `json:"auto_assign"`
}

func (c *WebhookChannel) Deliver(ctx context.Context, lead leads.ScoredLead) error {
	s := lead.Submission
	source := s.Source
	if source == "" {
		source = "website"
	}
	body, err := json.Marshal(crmPayload{
		Source: source,
		LeadData: crmLeadData{
			LeadID:            lead.ID,
			Email:             s.Email,
			Name:              s.Name,
			Phone:             s.Phone,
			PropertyAddress:   s.PropertyAddress,
			Situation:         s.Situation,
			UrgencyLevel:      string(s.UrgencyLevel),
			FormType:          string(s.FormType),
			Timeline:          s.Timeline,
			ForeclosureStatus: s.ForeclosureStatus,
			Score:             lead.Score,
			Priority:          string(lead.Priority),
			ResponseWindow:    lead.ResponseWindow,
			ReceivedAt:        s.ReceivedAt.UTC().Format(time.RFC3339),
		},
		AutoAssign: true,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("crm webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
