// Package store defines the persistence contract of the navigator. One
// implementation is selected at startup: sqlstore (postgres or sqlite) or
// memstore.
package store

import (
	"context"
	"errors"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Order selects the secondary ordering applied after sticky precedence.
type Order int

const (
	// OrderPublished sorts by publish time, newest first.
	OrderPublished Order = iota
	// OrderName sorts by name ascending.
	OrderName
	// OrderCreated sorts by creation time, newest first.
	OrderCreated
)

// AllCategories disables the category filter.
const AllCategories = "all"

// Filter narrows a resource query. Zero values match everything.
type Filter struct {
	Status   domain.Status
	Category string
	// Search is a case-insensitive substring of name or description.
	Search string
}

// ListOptions is a filtered, ordered, optionally paginated query. A
// non-positive Limit returns every match from Offset on.
type ListOptions struct {
	Filter Filter
	Order  Order
	Limit  int
	Offset int
}

// Store is the persistence capability used by every component.
type Store interface {
	ListResources(ctx context.Context, opts ListOptions) ([]domain.Resource, error)
	CountResources(ctx context.Context, f Filter) (int, error)
	GetResource(ctx context.Context, id string) (*domain.Resource, error)
	CreateResource(ctx context.Context, r *domain.Resource) error
	// UpdateResource overwrites the mutable moderation fields of r.
	UpdateResource(ctx context.Context, r *domain.Resource) error
	DeleteResource(ctx context.Context, id string) error
	// URLExists reports whether a resource with url is in one of statuses.
	URLExists(ctx context.Context, url string, statuses ...domain.Status) (bool, error)
	CountByCategory(ctx context.Context, status domain.Status) (map[string]int, error)

	ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error)

	InsertClicks(ctx context.Context, clicks []domain.Click) error

	InsertAdminLog(ctx context.Context, entry *domain.AdminLog) error
	ListAdminLogs(ctx context.Context, limit, offset int) ([]domain.AdminLog, error)
	CountAdminLogs(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
