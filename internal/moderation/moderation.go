// Package moderation implements the resource review workflow:
//
//	pending   -> published  (approve; sets published_at once, needs a category)
//	pending   -> rejected   (reject)
//	published -> delisted   (delist)
//	delisted  -> published  (restore; keeps published_at)
//
// Every mutation is paired with a best-effort audit entry. Concurrent edits
// of one resource are last-writer-wins.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/audit"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrCategoryRequired   = errors.New("a known category is required to publish")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidStickyOrder = fmt.Errorf("sticky order must be between 0 and %d", domain.MaxStickyOrder)
	ErrEmptyChange        = errors.New("no fields to update")
	ErrInvalidCategory    = errors.New("unknown category")
)

// Transition is a named workflow step.
type Transition string

const (
	Approve Transition = "approve"
	Reject  Transition = "reject"
	Delist  Transition = "delist"
	Restore Transition = "restore"
)

type edge struct {
	from []domain.Status
	to   domain.Status
	act  domain.Action
}

var edges = map[Transition]edge{
	// approving a published resource again is a no-op on published_at
	Approve: {[]domain.Status{domain.StatusPending, domain.StatusPublished}, domain.StatusPublished, domain.ActionApprove},
	Reject:  {[]domain.Status{domain.StatusPending}, domain.StatusRejected, domain.ActionReject},
	Delist:  {[]domain.Status{domain.StatusPublished}, domain.StatusDelisted, domain.ActionDelist},
	Restore: {[]domain.Status{domain.StatusDelisted}, domain.StatusPublished, domain.ActionRestore},
}

// ParseTransition validates a transition name.
func ParseTransition(s string) (Transition, bool) {
	t := Transition(s)
	_, ok := edges[t]
	return t, ok
}

// Next returns the status t leads to from the given status.
func Next(from domain.Status, t Transition) (domain.Status, error) {
	e, ok := edges[t]
	if !ok {
		return "", fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, t)
	}
	for _, s := range e.from {
		if s == from {
			return e.to, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a %s resource", ErrInvalidTransition, t, from)
}

// ActionFor names the audit action for a raw status change, the way a
// direct overwrite is recorded.
func ActionFor(previous, next domain.Status) domain.Action {
	switch next {
	case domain.StatusPublished:
		if previous == domain.StatusDelisted {
			return domain.ActionRestore
		}
		return domain.ActionApprove
	case domain.StatusRejected:
		return domain.ActionReject
	case domain.StatusDelisted:
		return domain.ActionDelist
	default:
		return domain.ActionUpdate
	}
}

// Change is a partial update. Nil fields are left untouched.
type Change struct {
	Status              *domain.Status
	Category            *string
	GlobalStickyOrder   *int
	CategoryStickyOrder *int
}

func (c Change) validate() error {
	if c.Status == nil && c.Category == nil && c.GlobalStickyOrder == nil && c.CategoryStickyOrder == nil {
		return ErrEmptyChange
	}
	if c.Status != nil && !c.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *c.Status)
	}
	if c.Category != nil {
		if err := checkCategory(*c.Category); err != nil {
			return err
		}
	}
	for _, v := range []*int{c.GlobalStickyOrder, c.CategoryStickyOrder} {
		if v != nil && (*v < 0 || *v > domain.MaxStickyOrder) {
			return ErrInvalidStickyOrder
		}
	}
	return nil
}

// checkCategory accepts an empty slug (no change), the default bucket and
// the built-in slugs.
func checkCategory(slug string) error {
	if slug == "" || slug == domain.DefaultCategory || domain.IsKnownCategory(slug) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidCategory, slug)
}

// Service applies moderation actions against a store.
type Service struct {
	store   store.Store
	audit   *audit.Recorder
	metrics *metrics.Provider
	now     func() time.Time
}

func NewService(s store.Store, rec *audit.Recorder, m *metrics.Provider) *Service {
	return &Service{store: s, audit: rec, metrics: m, now: time.Now}
}

// Transition moves resource id along a workflow edge. category, when
// non-empty, is assigned before the move.
func (s *Service) Transition(ctx context.Context, id string, t Transition, category, actorIPHash string) (*domain.Resource, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := Next(r.Status, t)
	if err != nil {
		return nil, err
	}

	previous := r.Status
	if category != "" {
		r.Category = category
	}
	if err = s.apply(r, next); err != nil {
		return nil, err
	}
	if err = s.store.UpdateResource(ctx, r); err != nil {
		return nil, fmt.Errorf("update resource: %w", err)
	}

	action := edges[t].act
	s.record(ctx, action, actorIPHash, r.ID, statusDetails{PreviousStatus: previous, NewStatus: next})
	return r, nil
}

// Update overwrites the given fields. A status change here bypasses the
// workflow edges (it is how a rejected resource is reopened) but still
// stamps published_at on first publish and is audited by target status.
func (s *Service) Update(ctx context.Context, id string, c Change, actorIPHash string) (*domain.Resource, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := r.Status
	next := r.Status
	if c.Status != nil {
		next = *c.Status
	}
	if c.Category != nil && *c.Category != "" {
		r.Category = *c.Category
	}
	if c.GlobalStickyOrder != nil {
		r.GlobalStickyOrder = *c.GlobalStickyOrder
	}
	if c.CategoryStickyOrder != nil {
		r.CategoryStickyOrder = *c.CategoryStickyOrder
	}
	if c.Status != nil {
		if err = s.apply(r, next); err != nil {
			return nil, err
		}
	} else if c.Category != nil && r.Status == domain.StatusPublished && !domain.IsKnownCategory(r.Category) {
		// a published resource keeps a final category
		return nil, fmt.Errorf("%w: %q", ErrCategoryRequired, r.Category)
	}

	if err = s.store.UpdateResource(ctx, r); err != nil {
		return nil, fmt.Errorf("update resource: %w", err)
	}

	action := domain.ActionUpdate
	if c.Status != nil {
		action = ActionFor(previous, next)
	}
	details := statusDetails{PreviousStatus: previous}
	if c.Status != nil {
		details.NewStatus = next
	}
	s.record(ctx, action, actorIPHash, r.ID, details)
	return r, nil
}

// Delete removes resource id from any status and returns what was removed.
func (s *Service) Delete(ctx context.Context, id, actorIPHash string) (*domain.Resource, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.store.DeleteResource(ctx, id); err != nil {
		return nil, fmt.Errorf("delete resource: %w", err)
	}

	s.record(ctx, domain.ActionDelete, actorIPHash, "", deleteDetails{
		DeletedResource: deletedResource{ID: r.ID, Name: r.Name, URL: r.URL},
	})
	return r, nil
}

// apply sets the status, enforcing the publish invariants.
func (s *Service) apply(r *domain.Resource, next domain.Status) error {
	if next == domain.StatusPublished {
		if !domain.IsKnownCategory(r.Category) {
			return fmt.Errorf("%w: %q", ErrCategoryRequired, r.Category)
		}
		if r.PublishedAt == nil {
			now := s.now().UTC()
			r.PublishedAt = &now
		}
	}
	r.Status = next
	return nil
}

func (s *Service) record(ctx context.Context, action domain.Action, ipHash, resourceID string, details any) {
	s.metrics.RecordModeration(string(action))
	logger.FromContext(ctx).Info("Moderation action",
		logger.String("action", string(action)),
		logger.String("resource_id", resourceID),
	)
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Entry{Action: action, IPHash: ipHash, ResourceID: resourceID, Details: details})
}

type statusDetails struct {
	PreviousStatus domain.Status `json:"previousStatus"`
	NewStatus      domain.Status `json:"newStatus,omitempty"`
}

type deletedResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type deleteDetails struct {
	DeletedResource deletedResource `json:"deletedResource"`
}
