package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/jumaanebey/stop-foreclosure-fast/cmd/mainconfig"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/app/bootstrap"
	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting stop-foreclosure-fast lead intake",
		"env", cfg.Env,
		"port", cfg.Port,
		"lead_sink", cfg.LeadSink,
		"rate_limit_backend", cfg.RateLimitBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildApp(ctx, cfg, awsLoader(cfg), logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.RunSweeper(ctx, cfg)

	srv := newServer(cfg, app.Handler)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newServer leaves room in WriteTimeout for a full dispatch round.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	write := 15 * time.Second
	if floor := cfg.DispatchTimeout + 5*time.Second; write < floor {
		write = floor
	}
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}
}

func awsLoader(cfg *appconfig.Config) bootstrap.AWSLoader {
	return func(ctx context.Context) (aws.Config, error) {
		return mainconfig.LoadAWSConfig(ctx, cfg)
	}
}
