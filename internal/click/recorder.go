// Package click buffers consented redirect clicks and writes them to the
// store in batches, off the request path.
package click

import (
	"context"
	"sync"
	"time"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
)

const (
	DefaultBufferSize     = 1000
	DefaultFlushInterval  = 2 * time.Second
	DefaultFlushThreshold = 50

	// flushTimeout bounds each batch write.
	flushTimeout = 5 * time.Second
)

// Inserter is the slice of store.Store the recorder writes to.
type Inserter interface {
	InsertClicks(ctx context.Context, clicks []domain.Click) error
}

// Buffer is a bounded, non-blocking click queue.
type Buffer struct {
	events chan domain.Click
	closed chan struct{}
	once   sync.Once
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{
		events: make(chan domain.Click, capacity),
		closed: make(chan struct{}),
	}
}

// Send enqueues c without blocking. It returns false when the buffer is full
// or closed.
func (b *Buffer) Send(c domain.Click) bool {
	select {
	case <-b.closed:
		return false
	default:
	}
	select {
	case b.events <- c:
		return true
	default:
		return false
	}
}

func (b *Buffer) Len() int {
	return len(b.events)
}

// Close stops the buffer accepting clicks. Safe to call more than once.
func (b *Buffer) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}

// Config tunes the recorder. Zero values take the defaults.
type Config struct {
	BufferSize     int
	FlushInterval  time.Duration
	FlushThreshold int
}

// Recorder owns a Buffer and the goroutine that drains it.
type Recorder struct {
	buffer    *Buffer
	store     Inserter
	log       logger.Logger
	metrics   *metrics.Provider
	interval  time.Duration
	threshold int
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewRecorder(s Inserter, cfg Config, log logger.Logger, m *metrics.Provider) *Recorder {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = DefaultFlushThreshold
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{
		buffer:    NewBuffer(cfg.BufferSize),
		store:     s,
		log:       log,
		metrics:   m,
		interval:  cfg.FlushInterval,
		threshold: cfg.FlushThreshold,
		now:       time.Now,
	}
}

// Record queues c for writing. A full buffer drops the click; the caller
// never waits on the store.
func (r *Recorder) Record(ctx context.Context, c domain.Click) bool {
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now().UTC()
	}
	if !r.buffer.Send(c) {
		r.metrics.RecordClickDropped()
		logger.FromContext(ctx).Warn("Click buffer full, dropping click",
			logger.String("resource_id", c.ResourceID),
		)
		return false
	}
	r.metrics.RecordClickQueued()
	r.metrics.SetClickBufferLength(r.buffer.Len())
	return true
}

// Start launches the flush goroutine.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.flushLoop()
}

// Stop closes the buffer, flushes what is queued and waits for the flush
// goroutine to exit.
func (r *Recorder) Stop() {
	r.buffer.Close()
	r.wg.Wait()
}

func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	batch := make([]domain.Click, 0, r.threshold)
	for {
		select {
		case c := <-r.buffer.events:
			batch = append(batch, c)
			if len(batch) >= r.threshold {
				r.flush(batch)
				batch = make([]domain.Click, 0, r.threshold)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = make([]domain.Click, 0, r.threshold)
			}
		case <-r.buffer.closed:
			r.drain(&batch)
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

func (r *Recorder) drain(batch *[]domain.Click) {
	for {
		select {
		case c := <-r.buffer.events:
			*batch = append(*batch, c)
		default:
			return
		}
	}
}

func (r *Recorder) flush(batch []domain.Click) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	err := r.store.InsertClicks(ctx, batch)
	r.metrics.RecordClickFlush(len(batch), err)
	r.metrics.SetClickBufferLength(r.buffer.Len())
	if err != nil {
		r.log.Error("Failed to write clicks",
			logger.Error(err),
			logger.Int("batch_size", len(batch)),
		)
		return
	}
	r.log.Debug("Flushed clicks", logger.Int("total", len(batch)))
}
