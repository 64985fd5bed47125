// Package ratelimit provides per-client sliding-window admission control for the intake endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// Decision is the result of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects a request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// Config bounds each key to Max requests per Window.
type Config struct {
	Window time.Duration
	Max    int
}

// DefaultConfig allows five submissions per client per minute.
func DefaultConfig() Config {
	return Config{Window: time.Minute, Max: 5}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Max <= 0 {
		c.Max = d.Max
	}
	return c
}

// SlidingWindow keeps each key's admitted timestamps in memory.
// A timestamp ts is inside the window iff now-ts < Window.
type SlidingWindow struct {
	cfg    Config
	now    func() time.Time
	logger *logging.Logger

	mu      sync.Mutex
	entries map[string][]time.Time
}

// Option customizes a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used by Run.
func WithLogger(logger *logging.Logger) Option {
	return func(s *SlidingWindow) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSlidingWindow creates an in-memory limiter. Zero config values fall back to DefaultConfig.
func NewSlidingWindow(cfg Config, opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		cfg:     cfg.normalized(),
		now:     time.Now,
		logger:  logging.Default(),
		entries: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow evicts expired timestamps for key, then records now if the key is under its limit.
func (s *SlidingWindow) Allow(_ context.Context, key string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ts := s.evict(s.entries[key], now)

	if len(ts) < s.cfg.Max {
		ts = append(ts, now)
		s.entries[key] = ts
		return Decision{Allowed: true, Remaining: s.cfg.Max - len(ts)}
	}

	s.entries[key] = ts
	retry := ts[0].Add(s.cfg.Window).Sub(now)
	if retry <= 0 {
		retry = time.Millisecond
	}
	return Decision{Allowed: false, RetryAfter: retry}
}

// Sweep evicts expired timestamps across all keys and deletes keys left empty.
// It returns the number of keys removed.
func (s *SlidingWindow) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, ts := range s.entries {
		ts = s.evict(ts, now)
		if len(ts) == 0 {
			delete(s.entries, key)
			removed++
			continue
		}
		s.entries[key] = ts
	}
	return removed
}

// Keys returns how many clients currently hold state.
func (s *SlidingWindow) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is cancelled.
func (s *SlidingWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.cfg.Window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug("rate limit sweep", "removed_keys", removed)
			}
		}
	}
}

// evict drops leading timestamps that fell out of the window. ts is ordered oldest first.
func (s *SlidingWindow) evict(ts []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= s.cfg.Window {
		i++
	}
	if i == 0 {
		return ts
	}
	out := make([]time.Time, len(ts)-i)
	copy(out, ts[i:])
	return out
}
