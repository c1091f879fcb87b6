//nolint:testpackage // drives the store clock
package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemory() (*MemoryStore, *clock) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore()
	store.now = clk.Now
	return store, clk
}

func TestLimiter_FixedWindow(t *testing.T) {
	t.Parallel()

	store, clk := newMemory()
	limiter := NewLimiter(store)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := limiter.Allow(ctx, "submit:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i)
		assert.Equal(t, 3-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "submit:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter(clk.Now()))

	other, err := limiter.Allow(ctx, "submit:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	clk.Advance(time.Minute + time.Millisecond)
	res, err = limiter.Allow(ctx, "submit:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	store, _ := newMemory()
	limiter := NewLimiter(store)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(context.Background(), "k", 10, time.Hour)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestMemoryStore_Prune(t *testing.T) {
	t.Parallel()

	store, clk := newMemory()
	ctx := context.Background()
	_, _, _ = store.Incr(ctx, "a", time.Second)
	_, _, _ = store.Incr(ctx, "b", time.Hour)

	clk.Advance(2 * time.Second)
	store.Prune()

	assert.Equal(t, 1, store.Len())
}

func TestLoginGuard_LocksAfterThreshold(t *testing.T) {
	t.Parallel()

	store, clk := newMemory()
	guard := NewLoginGuard(store, DefaultLoginPolicy())
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		locked, err := guard.RecordFailure(ctx, "ip")
		require.NoError(t, err)
		assert.False(t, locked, "failure %d", i)
	}

	locked, err := guard.RecordFailure(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = guard.Locked(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, locked)

	clk.Advance(time.Hour + time.Second)
	locked, err = guard.Locked(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLoginGuard_SuccessResetsCount(t *testing.T) {
	t.Parallel()

	store, _ := newMemory()
	guard := NewLoginGuard(store, DefaultLoginPolicy())
	ctx := context.Background()

	for range 4 {
		_, err := guard.RecordFailure(ctx, "ip")
		require.NoError(t, err)
	}
	require.NoError(t, guard.Reset(ctx, "ip"))

	for range 4 {
		locked, err := guard.RecordFailure(ctx, "ip")
		require.NoError(t, err)
		assert.False(t, locked)
	}
	locked, err := guard.Locked(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, locked)
}

func newRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_FixedWindow(t *testing.T) {
	t.Parallel()

	store, mr := newRedis(t)
	limiter := NewLimiter(store)
	ctx := context.Background()

	for range 2 {
		res, err := limiter.Allow(ctx, "submit:ip", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.Allow(ctx, "submit:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	mr.FastForward(time.Minute + time.Second)

	res, err = limiter.Allow(ctx, "submit:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestRedisStore_LoginLock(t *testing.T) {
	t.Parallel()

	store, mr := newRedis(t)
	guard := NewLoginGuard(store, LoginPolicy{MaxFailures: 2, FailureWindow: time.Hour, LockDuration: time.Minute})
	ctx := context.Background()

	_, err := guard.RecordFailure(ctx, "ip")
	require.NoError(t, err)
	locked, err := guard.RecordFailure(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.True(t, mr.Exists(redisKeyPrefix+"login_lock:ip"))

	mr.FastForward(2 * time.Minute)
	locked, err = guard.Locked(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, locked)
}
