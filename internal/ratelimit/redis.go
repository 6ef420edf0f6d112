package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces limiter keys in Redis.
const DefaultRedisPrefix = "fetchrelay:ratelimit"

var incrWithTTLScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return c
`)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// Prefix is prepended to every key (defaults to "fetchrelay:ratelimit")
	Prefix string
}

// RedisLimiter keeps counters in Redis so every relay instance shares one budget.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter connects to Redis and returns a limiter.
func NewRedisLimiter(cfg RedisConfig, limit int64, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	l := NewRedisLimiterWithClient(client, cfg.Prefix, limit, window)
	slog.Info("redis rate limiter connected", "prefix", l.prefix, "limit", limit, "window", window)
	return l, nil
}

// NewRedisLimiterWithClient wraps an existing client.
func NewRedisLimiterWithClient(client *redis.Client, prefix string, limit int64, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	start, end := windowBounds(now, l.window)
	ttl := end.Sub(now.UTC()).Milliseconds()
	if ttl < 1 {
		ttl = 1
	}

	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, start.UnixMilli())
	used, err := incrWithTTLScript.Run(ctx, l.client, []string{redisKey}, ttl).Int64()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}

	return Decision{
		Allowed: used <= l.limit,
		Used:    used,
		Limit:   l.limit,
		ResetAt: end,
	}, nil
}

// Close closes the Redis connection.
func (l *RedisLimiter) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
