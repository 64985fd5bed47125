package convertkit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSubscribe(t *testing.T) {
	var got subscribeRequest
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subscription":{"id":42,"subscriber":{"id":7}}}`))
	}))
	defer srv.Close()

	c := NewClient("ck-key", srv.URL+"/", nil)
	sub, err := c.Subscribe(context.Background(), "1234", Subscriber{
		Email:     "a@b.com",
		FirstName: "Jane",
		Tags:      []string{"foreclosure-lead", "urgent-lead"},
		Fields:    map[string]string{"lead_score": "215"},
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if gotPath != "/v3/sequences/1234/subscribe" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if got.APIKey != "ck-key" || got.Email != "a@b.com" || got.FirstName != "Jane" {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Tags) != 2 || got.Fields["lead_score"] != "215" {
		t.Fatalf("unexpected tags/fields %+v", got)
	}
	if sub.ID != 42 || sub.SubscriberID != 7 {
		t.Fatalf("unexpected subscription %+v", sub)
	}
}

func TestSubscribe_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authorization Failed","message":"API Key not valid"}`))
	}))
	defer srv.Close()

	c := NewClient("bad", srv.URL, nil)
	_, err := c.Subscribe(context.Background(), "1234", Subscriber{Email: "a@b.com"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestSubscribe_RequiresSequence(t *testing.T) {
	c := NewClient("k", "", nil)
	_, err := c.Subscribe(context.Background(), " ", Subscriber{Email: "a@b.com"})
	if !errors.Is(err, ErrMissingSequence) {
		t.Fatalf("expected ErrMissingSequence, got %v", err)
	}
}
