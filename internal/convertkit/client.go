// Package convertkit subscribes leads to ConvertKit email sequences.
package convertkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

const (
	defaultBaseURL = "https://api.convertkit.com"
	defaultTimeout = 10 * time.Second
)

// ErrMissingSequence is returned when Subscribe is called without a sequence id.
var ErrMissingSequence = errors.New("convertkit: sequence id required")

// Subscriber is the person being added to a sequence.
type Subscriber struct {
	Email     string
	FirstName string
	Tags      []string
	Fields    map[string]string
}

// Subscription is the relevant part of ConvertKit's subscribe response.
type Subscription struct {
	ID           int64 `json:"id"`
	SubscriberID int64 `json:"-"`
}

// Client is a minimal ConvertKit v3 API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
}

// NewClient constructs a client. baseURL may be empty to use the public API.
func NewClient(apiKey, baseURL string, logger *logging.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type subscribeRequest struct {
	APIKey    string            `json:"api_key"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Subscribe adds sub to the sequence.
func (c *Client) Subscribe(ctx context.Context, sequenceID string, sub Subscriber) (*Subscription, error) {
	if strings.TrimSpace(sequenceID) == "" {
		return nil, ErrMissingSequence
	}
	path := fmt.Sprintf("/v3/sequences/%s/subscribe", url.PathEscape(sequenceID))

	var wrapped struct {
		Subscription struct {
			ID         int64 `json:"id"`
			Subscriber struct {
				ID int64 `json:"id"`
			} `json:"subscriber"`
		} `json:"subscription"`
	}
	err := c.doJSON(ctx, http.MethodPost, path, subscribeRequest{
		APIKey:    c.apiKey,
		Email:     sub.Email,
		FirstName: sub.FirstName,
		Tags:      sub.Tags,
		Fields:    sub.Fields,
	}, &wrapped)
	if err != nil {
		return nil, fmt.Errorf("convertkit: subscribe: %w", err)
	}
	return &Subscription{
		ID:           wrapped.Subscription.ID,
		SubscriberID: wrapped.Subscription.Subscriber.ID,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("convertkit API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("convertkit API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
