// Package listing produces the public resource listing: sticky-first
// ordering, pagination, random sampling and degradation to a built-in
// dataset when the store is slow or failing.
package listing

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Eninte/ai-resource-navigator/infrastructure/circuitbreaker"
	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

const (
	DefaultQueryTimeout   = 5 * time.Second
	DefaultRandomPoolSize = 100
)

// ErrQueryTimeout is reported when the store did not answer in time.
var ErrQueryTimeout = errors.New("store query timed out")

// Sort is a listing sort mode.
type Sort string

const (
	SortDefault      Sort = "default"
	SortNewest       Sort = "newest"
	SortAlphabetical Sort = "alphabetical"
	SortRandom       Sort = "random"
)

// ParseSort maps a query value to a Sort. Unknown values sort by default.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortNewest:
		return SortNewest
	case SortAlphabetical:
		return SortAlphabetical
	case SortRandom:
		return SortRandom
	default:
		return SortDefault
	}
}

func (s Sort) order() store.Order {
	if s == SortAlphabetical {
		return store.OrderName
	}
	return store.OrderPublished
}

// Query is a public listing request. Limit <= 0 returns every match.
type Query struct {
	Search   string
	Category string
	Sort     Sort
	Limit    int
	Offset   int
}

func (q Query) normalize() Query {
	q.Search = strings.TrimSpace(q.Search)
	if q.Sort == "" {
		q.Sort = SortDefault
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

func (q Query) filter() store.Filter {
	return store.Filter{Status: domain.StatusPublished, Category: q.Category, Search: q.Search}
}

// Page is one listing response. Total counts every match before
// pagination. Warning is set when the page came from the fallback dataset.
type Page struct {
	Resources []domain.Resource
	Total     int
	Limit     int
	Offset    int
	Warning   string
}

// Degraded reports whether the page was served from the fallback dataset.
func (p Page) Degraded() bool {
	return p.Warning != ""
}

// Config tunes the engine. Zero values take the defaults.
type Config struct {
	QueryTimeout   time.Duration
	RandomPoolSize int
	// Breaker, when set, short-circuits straight to the fallback while the
	// store keeps failing.
	Breaker *circuitbreaker.Breaker
	Metrics *metrics.Provider
}

// Engine answers listing and stats queries.
type Engine struct {
	store   store.Store
	cfg     Config
	log     logger.Logger
	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewEngine creates an engine reading from s.
func NewEngine(s store.Store, cfg Config, log logger.Logger) *Engine {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.RandomPoolSize <= 0 {
		cfg.RandomPoolSize = DefaultRandomPoolSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{store: s, cfg: cfg, log: log, now: time.Now, shuffle: rand.Shuffle}
}

// List returns a page of published resources. It never fails: a store
// error or timeout yields the filtered fallback dataset with Warning set.
func (e *Engine) List(ctx context.Context, q Query) Page {
	q = q.normalize()

	page, err := guarded(ctx, e, func(ctx context.Context) (Page, error) {
		return e.query(ctx, q)
	})
	if err != nil {
		e.degrade(ctx, "listing", err)
		return e.fallback(q)
	}
	return page
}

func (e *Engine) query(ctx context.Context, q Query) (Page, error) {
	f := q.filter()
	total, err := e.store.CountResources(ctx, f)
	if err != nil {
		return Page{}, err
	}

	var rs []domain.Resource
	if q.Sort == SortRandom {
		// Random sampling draws from a bounded pool and ignores the offset.
		pool := 0
		if q.Limit > 0 {
			pool = e.cfg.RandomPoolSize
		}
		rs, err = e.store.ListResources(ctx, store.ListOptions{Filter: f, Order: store.OrderPublished, Limit: pool})
		if err != nil {
			return Page{}, err
		}
		e.shuffleNonSticky(rs)
		rs = store.Page(rs, q.Limit, 0)
	} else {
		rs, err = e.store.ListResources(ctx, store.ListOptions{
			Filter: f,
			Order:  q.Sort.order(),
			Limit:  q.Limit,
			Offset: q.Offset,
		})
		if err != nil {
			return Page{}, err
		}
	}

	return Page{Resources: rs, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (e *Engine) fallback(q Query) Page {
	f := q.filter()
	all := FallbackResources(e.now().UTC())
	rs := make([]domain.Resource, 0, len(all))
	for i := range all {
		if f.Matches(&all[i]) {
			rs = append(rs, all[i])
		}
	}
	total := len(rs)

	store.SortResources(rs, q.Sort.order())
	if q.Sort == SortRandom {
		e.shuffleNonSticky(rs)
		rs = store.Page(rs, q.Limit, 0)
	} else {
		rs = store.Page(rs, q.Limit, q.Offset)
	}

	return Page{Resources: rs, Total: total, Limit: q.Limit, Offset: q.Offset, Warning: FallbackWarning}
}

// shuffleNonSticky shuffles the non-sticky tail of an already sticky-sorted
// slice.
func (e *Engine) shuffleNonSticky(rs []domain.Resource) {
	k := 0
	for k < len(rs) && rs[k].IsSticky() {
		k++
	}
	tail := rs[k:]
	e.shuffle(len(tail), func(i, j int) { tail[i], tail[j] = tail[j], tail[i] })
}

// Stats returns published resource counts per category. The second value
// is true when the counts came from the fallback table.
func (e *Engine) Stats(ctx context.Context) (map[string]int, bool) {
	counts, err := guarded(ctx, e, func(ctx context.Context) (map[string]int, error) {
		return e.store.CountByCategory(ctx, domain.StatusPublished)
	})
	if err != nil {
		e.degrade(ctx, "stats", err)
		return FallbackStats(), true
	}
	return counts, false
}

func (e *Engine) degrade(ctx context.Context, endpoint string, err error) {
	reason := metrics.ReasonError
	switch {
	case errors.Is(err, ErrQueryTimeout):
		reason = metrics.ReasonTimeout
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		reason = metrics.ReasonCircuitOpen
	}
	e.cfg.Metrics.RecordFallback(endpoint, reason)
	logger.FromContext(ctx).Warn("Serving fallback data",
		logger.String("endpoint", endpoint),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

// guarded runs fn through the breaker (when configured) and the timeout
// race.
func guarded[T any](ctx context.Context, e *Engine, fn func(context.Context) (T, error)) (T, error) {
	if e.cfg.Breaker == nil {
		return await(ctx, e.cfg.QueryTimeout, fn)
	}
	var v T
	err := e.cfg.Breaker.Execute(func() error {
		var callErr error
		v, callErr = await(ctx, e.cfg.QueryTimeout, fn)
		return callErr
	})
	return v, err
}

// await waits for fn at most timeout. On timeout it stops waiting but does
// not cancel fn, which runs to completion on a context detached from the
// caller's cancellation.
func await[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		v, err := fn(detached)
		done <- result{v, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.v, r.err
	case <-timer.C:
		return zero, ErrQueryTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
