package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// slidingWindowScript trims the key's sorted set to the window, then admits the
// request when under the limit. Returns {allowed, remaining_or_retry_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < max then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return {1, max - count - 1}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, tonumber(oldest[2]) + window - now}
`)

// RedisSlidingWindow shares rate-limit state across instances through Redis.
// Errors fail open.
type RedisSlidingWindow struct {
	client redis.Scripter
	cfg    Config
	prefix string
	now    func() time.Time
	logger *logging.Logger
}

// NewRedisSlidingWindow creates a Redis-backed limiter.
func NewRedisSlidingWindow(client redis.Scripter, cfg Config, logger *logging.Logger) *RedisSlidingWindow {
	if client == nil {
		panic("ratelimit: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisSlidingWindow{
		client: client,
		cfg:    cfg.normalized(),
		prefix: "ratelimit:lead:",
		now:    time.Now,
		logger: logger,
	}
}

// Allow runs the window script atomically for key.
func (r *RedisSlidingWindow) Allow(ctx context.Context, key string) Decision {
	now := r.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		now, r.cfg.Window.Milliseconds(), r.cfg.Max, member,
	).Int64Slice()
	if err != nil || len(res) != 2 {
		r.logger.Error("rate limit check failed", "error", err, "key", key)
		return Decision{Allowed: true}
	}

	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: int(res[1])}
	}
	retry := time.Duration(res[1]) * time.Millisecond
	if retry <= 0 {
		retry = time.Millisecond
	}
	return Decision{Allowed: false, RetryAfter: retry}
}
