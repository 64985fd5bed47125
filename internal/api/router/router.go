package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/jumaanebey/stop-foreclosure-fast/internal/http/middleware"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/ratelimit"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	LeadsHandler *leads.Handler
	// Limiter gates the intake routes. Nil disables rate limiting.
	Limiter            ratelimit.Limiter
	Metrics            *metrics.LeadMetrics
	MetricsHandler     http.Handler
	ContactPhone       string
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	// TrustProxyHeaders enables chi's RealIP. Off, the limiter keys on the socket address.
	TrustProxyHeaders  bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.LeadsHandler.Health)
	r.Get("/api/health", cfg.LeadsHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public intake, rate limited per client address.
	r.Group(func(intake chi.Router) {
		if cfg.Limiter != nil {
			intake.Use(httpmiddleware.RateLimit(cfg.Limiter, httpmiddleware.RateLimitOptions{
				ContactPhone: cfg.ContactPhone,
				Metrics:      cfg.Metrics,
				Logger:       cfg.Logger,
			}))
		}
		intake.Post("/lead-capture", cfg.LeadsHandler.Capture)
		intake.Post("/api/lead-capture", cfg.LeadsHandler.Capture)
	})

	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/leads/score", cfg.LeadsHandler.ScorePreview)
		})
	}

	return r
}
