package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// LoginPolicy configures LoginGuard.
type LoginPolicy struct {
	MaxFailures   int
	FailureWindow time.Duration
	LockDuration  time.Duration
}

// DefaultLoginPolicy locks an identity for an hour after five failures
// within an hour.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{MaxFailures: 5, FailureWindow: time.Hour, LockDuration: time.Hour}
}

// LoginGuard tracks failed logins per identity.
type LoginGuard struct {
	store  Store
	policy LoginPolicy
}

func NewLoginGuard(store Store, policy LoginPolicy) *LoginGuard {
	def := DefaultLoginPolicy()
	if policy.MaxFailures <= 0 {
		policy.MaxFailures = def.MaxFailures
	}
	if policy.FailureWindow <= 0 {
		policy.FailureWindow = def.FailureWindow
	}
	if policy.LockDuration <= 0 {
		policy.LockDuration = def.LockDuration
	}
	return &LoginGuard{store: store, policy: policy}
}

func failKey(id string) string { return "login_fail:" + id }
func lockKey(id string) string { return "login_lock:" + id }

// Locked reports whether id is currently locked out.
func (g *LoginGuard) Locked(ctx context.Context, id string) (bool, error) {
	locked, err := g.store.HasFlag(ctx, lockKey(id))
	if err != nil {
		return false, fmt.Errorf("check login lock: %w", err)
	}
	return locked, nil
}

// RecordFailure counts a failed attempt and locks id once the threshold
// is reached. It reports whether id is now locked.
func (g *LoginGuard) RecordFailure(ctx context.Context, id string) (bool, error) {
	count, _, err := g.store.Incr(ctx, failKey(id), g.policy.FailureWindow)
	if err != nil {
		return false, fmt.Errorf("record login failure: %w", err)
	}
	if count < g.policy.MaxFailures {
		return false, nil
	}
	if err := g.store.SetFlag(ctx, lockKey(id), g.policy.LockDuration); err != nil {
		return false, fmt.Errorf("set login lock: %w", err)
	}
	return true, nil
}

// Reset clears the failure count after a successful login. An active lock
// is left in place.
func (g *LoginGuard) Reset(ctx context.Context, id string) error {
	if err := g.store.Delete(ctx, failKey(id)); err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}
