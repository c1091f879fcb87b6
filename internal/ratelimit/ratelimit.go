// Package ratelimit provides fixed-window admission control and the
// login failure lock.
//
// The memory backend is per process: counts reset on restart and are not
// shared between instances. It is a guard against casual abuse, not a
// security boundary. The redis backend shares counters between instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store is the counter backend.
type Store interface {
	// Incr increments key inside a fixed window. The first increment of a
	// window starts it and sets its reset deadline to now+window.
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
	// SetFlag marks key as present for ttl.
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	// HasFlag reports whether key is present and unexpired.
	HasFlag(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Result is the outcome of an admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets, never negative.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Limiter admits at most max calls per key per window.
type Limiter struct {
	store Store
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Allow counts one call for key. The (max+1)-th call inside a window is
// rejected; the first call after the window elapses starts a fresh count.
func (l *Limiter) Allow(ctx context.Context, key string, maxRequests int, window time.Duration) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if count > maxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: maxRequests - count, ResetAt: resetAt}, nil
}
