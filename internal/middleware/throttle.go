package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Eninte/ai-resource-navigator/internal/metrics"
)

// idleAfter is how long an unused per-key limiter is kept.
const idleAfter = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a per-key token bucket used to absorb redirect bursts.
type Throttle struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	scope    string
	metrics  *metrics.Provider
	now      func() time.Time
}

// NewThrottle allows rps sustained requests per key with the given burst.
func NewThrottle(scope string, rps float64, burst int, m *metrics.Provider) *Throttle {
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		scope:    scope,
		metrics:  m,
		now:      time.Now,
	}
}

// Allow consumes one token for key.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[key] = v
	}
	now := t.now()
	v.lastSeen = now
	t.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Prune drops limiters idle for longer than idleAfter.
func (t *Throttle) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-idleAfter)
	n := 0
	for k, v := range t.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(t.visitors, k)
			n++
		}
	}
	return n
}

// CleanupLoop prunes idle limiters every interval until ctx is done.
func (t *Throttle) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Prune()
		}
	}
}

// Handler rejects requests over the limit with 429. key extracts the
// identity to limit on.
func (t *Throttle) Handler(key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.Allow(key(c)) {
			t.metrics.RecordRateLimited(t.scope)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
