package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/ratelimit"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// RateLimitOptions configures the RateLimit middleware.
type RateLimitOptions struct {
	// ContactPhone is embedded in the fallback text of 429 bodies.
	ContactPhone string
	// KeyFunc derives the limiter key. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
	Metrics *metrics.LeadMetrics
	Logger  *logging.Logger
}

// RateLimit rejects requests the limiter denies with 429 Too Many Requests
// and a JSON body telling the client when to retry.
func RateLimit(limiter ratelimit.Limiter, opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.KeyFunc == nil {
		opts.KeyFunc = ClientIP
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	fallback := FallbackMessage(opts.ContactPhone)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFunc(r)
			decision := limiter.Allow(r.Context(), key)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			opts.Metrics.ObserveRateLimited()
			opts.Logger.Warn("lead capture rate limited",
				"client", key,
				"retry_after_s", retryAfter,
				"request_id", RequestIDFrom(r),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Success:    false,
				Error:      "Too many requests. Please try again later.",
				RetryAfter: retryAfter,
				Fallback:   fallback,
			})
		})
	}
}
