package click_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/internal/click"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]domain.Click
	err     error
}

func (f *fakeStore) InsertClicks(_ context.Context, clicks []domain.Click) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]domain.Click(nil), clicks...))
	return nil
}

func (f *fakeStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestBuffer_SendFullAndClosed(t *testing.T) {
	b := click.NewBuffer(2)

	assert.True(t, b.Send(domain.Click{}))
	assert.True(t, b.Send(domain.Click{}))
	assert.False(t, b.Send(domain.Click{}), "full")
	assert.Equal(t, 2, b.Len())

	b.Close()
	b.Close()
	assert.False(t, b.Send(domain.Click{}), "closed")
}

func TestRecorder_FlushesAtThreshold(t *testing.T) {
	fs := &fakeStore{}
	r := click.NewRecorder(fs, click.Config{FlushInterval: time.Hour, FlushThreshold: 3}, nil, nil)
	r.Start()
	defer r.Stop()

	for range 3 {
		require.True(t, r.Record(context.Background(), domain.Click{ResourceID: "r1"}))
	}

	require.Eventually(t, func() bool { return fs.total() == 3 }, time.Second, 5*time.Millisecond)
}

func TestRecorder_FlushesOnInterval(t *testing.T) {
	fs := &fakeStore{}
	r := click.NewRecorder(fs, click.Config{FlushInterval: 10 * time.Millisecond, FlushThreshold: 100}, nil, nil)
	r.Start()
	defer r.Stop()

	r.Record(context.Background(), domain.Click{ResourceID: "r1"})

	require.Eventually(t, func() bool { return fs.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRecorder_StopDrains(t *testing.T) {
	fs := &fakeStore{}
	r := click.NewRecorder(fs, click.Config{FlushInterval: time.Hour, FlushThreshold: 100}, nil, nil)
	r.Start()

	for range 7 {
		r.Record(context.Background(), domain.Click{ResourceID: "r1"})
	}
	r.Stop()

	assert.Equal(t, 7, fs.total())
	for _, c := range fs.batches[0] {
		assert.NotEmpty(t, c.ID)
		assert.False(t, c.CreatedAt.IsZero())
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	p := metrics.NewProvider()
	r := click.NewRecorder(&fakeStore{}, click.Config{BufferSize: 1}, nil, p)

	assert.True(t, r.Record(context.Background(), domain.Click{}))
	assert.False(t, r.Record(context.Background(), domain.Click{}))
	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.ClicksDropped), 0)
}

func TestRecorder_WriteErrorIsCounted(t *testing.T) {
	p := metrics.NewProvider()
	fs := &fakeStore{err: errors.New("db down")}
	r := click.NewRecorder(fs, click.Config{FlushInterval: time.Hour}, nil, p)
	r.Start()

	r.Record(context.Background(), domain.Click{})
	r.Stop()

	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.ClickFlushErrors), 0)
}
