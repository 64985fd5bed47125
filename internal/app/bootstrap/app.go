package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/api/router"
	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/ratelimit"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// App is a fully wired intake service.
type App struct {
	Handler http.Handler
	// Sweeper is set when the in-memory limiter is active.
	Sweeper *ratelimit.SlidingWindow
	Metrics *metrics.LeadMetrics

	closers []func()
}

// Close releases pools and clients opened by BuildApp.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// RunSweeper evicts idle rate-limit keys until ctx ends. It is a no-op for the Redis limiter.
func (a *App) RunSweeper(ctx context.Context, cfg *appconfig.Config) {
	if a.Sweeper == nil {
		return
	}
	a.Sweeper.Run(ctx, cfg.RateLimitSweepInterval)
}

// BuildApp validates cfg and assembles the router with every configured dependency.
func BuildApp(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loadAWS = OnceAWS(loadAWS)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	leadMetrics := metrics.NewLeadMetrics(registry)

	app := &App{Metrics: leadMetrics}

	scorer, err := BuildScorer(cfg)
	if err != nil {
		return nil, err
	}

	repo, closeRepo, err := BuildRepository(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeRepo)

	notifier, err := BuildNotifier(ctx, cfg, loadAWS, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	dispatcher, err := BuildDispatcher(ctx, cfg, DispatchDeps{
		Repository: repo,
		Notifier:   notifier,
		Metrics:    leadMetrics,
		LoadAWS:    loadAWS,
		Logger:     logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	limiter, sweeper := BuildLimiter(cfg, redisClient, logger)
	app.Sweeper = sweeper

	handler := leads.NewHandler(leads.HandlerConfig{
		Scorer:       scorer,
		Dispatcher:   dispatcher,
		ContactPhone: cfg.HumanContactPhone,
		Metrics:      leadMetrics,
		Logger:       logger,
	})

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       handler,
		Limiter:            limiter,
		Metrics:            leadMetrics,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ContactPhone:       cfg.HumanContactPhone,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	})
	return app, nil
}
