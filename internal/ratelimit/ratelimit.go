// Package ratelimit provides a fixed-window request limiter.
// Counters live in process memory or in Redis for multi-instance deployments.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"fetchrelay/config"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	Used    int64
	Limit   int64
	ResetAt time.Time
}

// Remaining returns how many requests are left in the current window.
func (d Decision) Remaining() int64 {
	if d.Used >= d.Limit {
		return 0
	}
	return d.Limit - d.Used
}

// Limiter counts requests per key in fixed windows.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow records one request for key at now and reports whether it fits the budget.
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)

	// Close releases any resources held by the limiter.
	Close() error
}

// New builds the limiter selected by cfg: Redis when RedisURL is set,
// in-process counters otherwise.
func New(cfg config.RateLimitConfig) (Limiter, error) {
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("rate limit requests must be positive, got %d", cfg.Requests)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", cfg.Window)
	}
	if cfg.RedisURL != "" {
		return NewRedisLimiter(RedisConfig{URL: cfg.RedisURL}, cfg.Requests, cfg.Window)
	}
	return NewLocalLimiter(cfg.Requests, cfg.Window), nil
}

// CredentialKey derives a limiter key from a bearer token without keeping the token itself.
func CredentialKey(token string) string {
	return "tok:" + strconv.FormatUint(xxhash.Sum64String(token), 16)
}

// ClientKey derives a limiter key from a client IP.
func ClientKey(ip string) string {
	return "ip:" + ip
}

// windowBounds returns the start and end of the fixed window containing now.
func windowBounds(now time.Time, window time.Duration) (time.Time, time.Time) {
	start := now.UTC().Truncate(window)
	return start, start.Add(window)
}
