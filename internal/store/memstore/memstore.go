// Package memstore is an in-process store.Store for local runs and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

// Store keeps every record in memory behind one RWMutex.
type Store struct {
	mu         sync.RWMutex
	resources  map[string]domain.Resource
	categories []domain.Category
	clicks     []domain.Click
	logs       []domain.AdminLog

	// FailWith, when set, is returned by every read and write. Tests use it
	// to simulate an unavailable database.
	FailWith error
	// Delay is slept (or ctx is honoured) before every operation.
	Delay time.Duration
}

var _ store.Store = (*Store)(nil)

// New returns an empty store seeded with the built-in categories.
func New() *Store {
	return &Store{
		resources:  make(map[string]domain.Resource),
		categories: domain.Categories(),
	}
}

func (s *Store) gate(ctx context.Context) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.FailWith
}

func (s *Store) ListResources(ctx context.Context, opts store.ListOptions) ([]domain.Resource, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if opts.Filter.Matches(&r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	// map iteration is random; fix the base order before the stable sort
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	store.SortResources(out, opts.Order)
	return store.Page(out, opts.Limit, opts.Offset), nil
}

func (s *Store) CountResources(ctx context.Context, f store.Filter) (int, error) {
	if err := s.gate(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.resources {
		if f.Matches(&r) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, store.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) CreateResource(ctx context.Context, r *domain.Resource) error {
	if err := s.gate(ctx); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[r.ID]; exists {
		return fmt.Errorf("resource %s already exists", r.ID)
	}
	s.resources[r.ID] = *r
	return nil
}

func (s *Store) UpdateResource(ctx context.Context, r *domain.Resource) error {
	if err := s.gate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.resources[r.ID]
	if !ok {
		return fmt.Errorf("resource %s: %w", r.ID, store.ErrNotFound)
	}
	cur.Status = r.Status
	cur.Category = r.Category
	cur.PublishedAt = r.PublishedAt
	cur.GlobalStickyOrder = r.GlobalStickyOrder
	cur.CategoryStickyOrder = r.CategoryStickyOrder
	s.resources[r.ID] = cur
	return nil
}

func (s *Store) DeleteResource(ctx context.Context, id string) error {
	if err := s.gate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; !ok {
		return fmt.Errorf("resource %s: %w", id, store.ErrNotFound)
	}
	delete(s.resources, id)
	return nil
}

func (s *Store) URLExists(ctx context.Context, url string, statuses ...domain.Status) (bool, error) {
	if err := s.gate(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		if r.URL != url {
			continue
		}
		if len(statuses) == 0 {
			return true, nil
		}
		for _, st := range statuses {
			if r.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) CountByCategory(ctx context.Context, status domain.Status) (map[string]int, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, r := range s.resources {
		if r.Status == status {
			counts[r.Category]++
		}
	}
	return counts, nil
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) InsertClicks(ctx context.Context, clicks []domain.Click) error {
	if err := s.gate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = append(s.clicks, clicks...)
	return nil
}

// Clicks returns a copy of every recorded click.
func (s *Store) Clicks() []domain.Click {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Click(nil), s.clicks...)
}

func (s *Store) InsertAdminLog(ctx context.Context, entry *domain.AdminLog) error {
	if err := s.gate(ctx); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = domain.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *Store) ListAdminLogs(ctx context.Context, limit, offset int) ([]domain.AdminLog, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.AdminLog, len(s.logs))
	// stored oldest first
	for i, l := range s.logs {
		out[len(s.logs)-1-i] = l
	}
	s.mu.RUnlock()
	return store.Page(out, limit, offset), nil
}

func (s *Store) CountAdminLogs(ctx context.Context) (int, error) {
	if err := s.gate(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.gate(ctx)
}

func (s *Store) Close() error {
	return nil
}
