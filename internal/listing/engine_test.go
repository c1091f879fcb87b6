package listing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/infrastructure/circuitbreaker"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/listing"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/store/memstore"
	"github.com/Eninte/ai-resource-navigator/internal/store/storetest"
)

func seeded(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	for _, r := range storetest.Fixtures() {
		r := r
		require.NoError(t, s.CreateResource(context.Background(), &r))
	}
	return s
}

func ids(rs []domain.Resource) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID
	}
	return out
}

func TestParseSort(t *testing.T) {
	tests := map[string]listing.Sort{
		"":             listing.SortDefault,
		"newest":       listing.SortNewest,
		"Alphabetical": listing.SortAlphabetical,
		" random ":     listing.SortRandom,
		"popular":      listing.SortDefault,
	}
	for in, want := range tests {
		assert.Equal(t, want, listing.ParseSort(in), in)
	}
}

func TestList_SortModes(t *testing.T) {
	e := listing.NewEngine(seeded(t), listing.Config{}, nil)
	ctx := context.Background()

	tests := []struct {
		sort listing.Sort
		want []string
	}{
		{listing.SortDefault, []string{"r3", "r2", "r4", "r7", "r1"}},
		{listing.SortNewest, []string{"r3", "r2", "r4", "r7", "r1"}},
		{listing.SortAlphabetical, []string{"r3", "r2", "r1", "r4", "r7"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			page := e.List(ctx, listing.Query{Sort: tt.sort})
			assert.False(t, page.Degraded())
			assert.Equal(t, tt.want, ids(page.Resources))
			assert.Equal(t, 5, page.Total, "only published resources are listed")
		})
	}
}

func TestList_FilterAndPaginate(t *testing.T) {
	e := listing.NewEngine(seeded(t), listing.Config{}, nil)
	ctx := context.Background()

	page := e.List(ctx, listing.Query{Limit: 2, Offset: 2})
	assert.Equal(t, []string{"r4", "r7"}, ids(page.Resources))
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 2, page.Offset)

	page = e.List(ctx, listing.Query{Category: "writing"})
	assert.Equal(t, []string{"r4"}, ids(page.Resources), "pending r5 is excluded")

	page = e.List(ctx, listing.Query{Category: "all", Search: "alpha"})
	assert.Equal(t, []string{"r1"}, ids(page.Resources))

	page = e.List(ctx, listing.Query{Limit: -3, Offset: -1})
	assert.Len(t, page.Resources, 5)
	assert.Zero(t, page.Limit)
	assert.Zero(t, page.Offset)
}

func TestList_RandomKeepsStickyFirst(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	for i := range 40 {
		r := domain.Resource{
			ID: fmt.Sprintf("n%02d", i), Name: fmt.Sprintf("Tool %02d", i), URL: fmt.Sprintf("https://%d.example", i),
			Category: "coding", Status: domain.StatusPublished,
		}
		if i < 3 {
			r.GlobalStickyOrder = 10 - i
		}
		require.NoError(t, s.CreateResource(ctx, &r))
	}

	e := listing.NewEngine(s, listing.Config{RandomPoolSize: 20}, nil)
	for range 20 {
		page := e.List(ctx, listing.Query{Sort: listing.SortRandom, Limit: 10, Offset: 30})
		require.Len(t, page.Resources, 10, "random ignores offset")
		assert.Equal(t, 40, page.Total)
		assert.Equal(t, []string{"n00", "n01", "n02"}, ids(page.Resources[:3]))
		for _, r := range page.Resources[3:] {
			assert.False(t, r.IsSticky())
		}
	}

	page := e.List(ctx, listing.Query{Sort: listing.SortRandom})
	assert.Len(t, page.Resources, 40, "no limit draws from every match")
}

func TestList_FallbackOnStoreError(t *testing.T) {
	s := seeded(t)
	s.FailWith = errors.New("connection refused")
	p := metrics.NewProvider()
	e := listing.NewEngine(s, listing.Config{Metrics: p}, nil)

	page := e.List(context.Background(), listing.Query{})
	require.True(t, page.Degraded())
	assert.Equal(t, listing.FallbackWarning, page.Warning)
	require.Len(t, page.Resources, 12)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, "mock-1", page.Resources[0].ID, "sticky fallback entry leads")
	for _, r := range page.Resources {
		require.NotNil(t, r.PublishedAt)
	}
}

func TestList_FallbackOnTimeout(t *testing.T) {
	s := seeded(t)
	s.Delay = 500 * time.Millisecond
	e := listing.NewEngine(s, listing.Config{QueryTimeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	page := e.List(context.Background(), listing.Query{})
	assert.Less(t, time.Since(start), 400*time.Millisecond, "the engine stops waiting at the timeout")
	assert.True(t, page.Degraded())
	assert.NotEmpty(t, page.Resources)
}

func TestList_FallbackHonoursFilters(t *testing.T) {
	s := memstore.New()
	s.FailWith = errors.New("down")
	e := listing.NewEngine(s, listing.Config{}, nil)
	ctx := context.Background()

	page := e.List(ctx, listing.Query{Category: "image"})
	assert.Equal(t, []string{"mock-3", "mock-7"}, sortedIDs(page.Resources))
	assert.Equal(t, 2, page.Total)

	page = e.List(ctx, listing.Query{Search: "openai"})
	assert.Equal(t, []string{"mock-1", "mock-6"}, sortedIDs(page.Resources))

	page = e.List(ctx, listing.Query{Sort: listing.SortAlphabetical, Limit: 3, Offset: 1})
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, []string{"Character.AI", "ChatGPT", "Claude"}, names(page.Resources))
}

func TestList_BreakerShortCircuits(t *testing.T) {
	s := seeded(t)
	s.FailWith = errors.New("down")
	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, OpenTimeout: time.Hour})
	e := listing.NewEngine(s, listing.Config{Breaker: b}, nil)
	ctx := context.Background()

	e.List(ctx, listing.Query{})
	e.List(ctx, listing.Query{})
	require.Equal(t, circuitbreaker.StateOpen, b.State())

	s.FailWith = nil
	page := e.List(ctx, listing.Query{})
	assert.True(t, page.Degraded(), "open circuit serves the fallback without querying")
}

func TestStats(t *testing.T) {
	s := seeded(t)
	e := listing.NewEngine(s, listing.Config{}, nil)

	counts, degraded := e.Stats(context.Background())
	assert.False(t, degraded)
	assert.Equal(t, 1, counts["coding"])
	assert.NotContains(t, counts, "robotics")

	s.FailWith = errors.New("down")
	counts, degraded = e.Stats(context.Background())
	assert.True(t, degraded)
	assert.Equal(t, listing.FallbackStats(), counts)
}

func TestFallbackResourcesAreCopies(t *testing.T) {
	now := time.Now()
	a := listing.FallbackResources(now)
	a[0].Name = "changed"
	b := listing.FallbackResources(now)
	assert.Equal(t, "GPT-4", b[0].Name)
}

func sortedIDs(rs []domain.Resource) []string {
	out := ids(rs)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func names(rs []domain.Resource) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].Name
	}
	return out
}
