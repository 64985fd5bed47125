package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// DefaultContactPhone is shown to visitors when no other number is configured.
const DefaultContactPhone = "(949) 565-5285"

// ErrorResponse is the body of every non-200 public response.
type ErrorResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	Errors     []string `json:"errors,omitempty"`
	RetryAfter int      `json:"retryAfter,omitempty"`
	Fallback   string   `json:"fallback"`
}

// FallbackMessage tells a visitor how to reach a person when the form fails.
func FallbackMessage(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		phone = DefaultContactPhone
	}
	return "Please call us directly at " + phone + " for immediate assistance."
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are never
// read here; chi's RealIP rewrites RemoteAddr when proxies are trusted.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
