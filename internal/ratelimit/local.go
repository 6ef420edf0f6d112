package ratelimit

import (
	"context"
	"sync"
	"time"
)

type localWindow struct {
	start time.Time
	count int64
}

// LocalLimiter keeps counters in process memory.
// This is suitable for single-instance deployments.
type LocalLimiter struct {
	mu       sync.Mutex
	limit    int64
	window   time.Duration
	counters map[string]*localWindow
	swept    time.Time
}

// NewLocalLimiter creates an in-memory limiter allowing limit requests per window.
func NewLocalLimiter(limit int64, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*localWindow),
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string, now time.Time) (Decision, error) {
	start, end := windowBounds(now, l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if start.After(l.swept) {
		l.sweep(start)
	}

	w, ok := l.counters[key]
	if !ok || !w.start.Equal(start) {
		w = &localWindow{start: start}
		l.counters[key] = w
	}
	w.count++

	return Decision{
		Allowed: w.count <= l.limit,
		Used:    w.count,
		Limit:   l.limit,
		ResetAt: end,
	}, nil
}

// sweep drops counters from windows before start. Caller holds l.mu.
func (l *LocalLimiter) sweep(start time.Time) {
	for key, w := range l.counters {
		if w.start.Before(start) {
			delete(l.counters, key)
		}
	}
	l.swept = start
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}

// Close is a no-op for the local limiter.
func (l *LocalLimiter) Close() error {
	return nil
}
