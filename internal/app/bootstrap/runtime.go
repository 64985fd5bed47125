// Package bootstrap assembles the intake runtime from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/ratelimit"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// AWSLoader resolves the shared AWS configuration on first use.
type AWSLoader func(ctx context.Context) (aws.Config, error)

// OnceAWS memoizes load so binaries that never touch AWS never resolve credentials.
func OnceAWS(load AWSLoader) AWSLoader {
	var (
		once sync.Once
		cfg  aws.Config
		err  error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() { cfg, err = load(ctx) })
		return cfg, err
	}
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || cfg.RateLimitBackend != appconfig.RateLimitRedis || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, using in-memory rate limiter", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLimiter picks the rate limiter backend. The returned SlidingWindow is
// non-nil when the in-memory limiter is used and needs periodic sweeping.
func BuildLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (ratelimit.Limiter, *ratelimit.SlidingWindow) {
	if logger == nil {
		logger = logging.Default()
	}
	rlCfg := ratelimit.Config{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax}
	if redisClient != nil {
		logger.Info("rate limiter: redis", "window", rlCfg.Window.String(), "max", rlCfg.Max)
		return ratelimit.NewRedisSlidingWindow(redisClient, rlCfg, logger), nil
	}
	window := ratelimit.NewSlidingWindow(rlCfg, ratelimit.WithLogger(logger))
	logger.Info("rate limiter: memory", "window", rlCfg.Window.String(), "max", rlCfg.Max)
	return window, window
}

// BuildScorer applies score overrides from the environment to the default weights.
func BuildScorer(cfg *appconfig.Config) (*leads.Scorer, error) {
	sc := leads.DefaultScoringConfig()
	if cfg.ScoreMax > 0 {
		sc.MaxScore = cfg.ScoreMax
	}
	if cfg.ScoreP1Threshold > 0 {
		sc.Thresholds.P1 = cfg.ScoreP1Threshold
	}
	if cfg.ScoreP2Threshold > 0 {
		sc.Thresholds.P2 = cfg.ScoreP2Threshold
	}
	if cfg.ScoreP3Threshold > 0 {
		sc.Thresholds.P3 = cfg.ScoreP3Threshold
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: scoring: %w", err)
	}
	return leads.NewScorer(sc), nil
}
