// Package domain holds the navigator's persisted record types and the
// fixed vocabularies (statuses, price tiers, categories, audit actions).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is a resource's moderation state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusDelisted  Status = "delisted"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected, StatusDelisted:
		return true
	default:
		return false
	}
}

// PriceTier is the pricing model of a listed tool.
type PriceTier string

const (
	PriceFree     PriceTier = "Free"
	PriceFreemium PriceTier = "Freemium"
	PricePaid     PriceTier = "Paid"
)

// Valid reports whether p is a known tier.
func (p PriceTier) Valid() bool {
	return p == PriceFree || p == PriceFreemium || p == PricePaid
}

// Sticky order fields are bounded to [0, MaxStickyOrder].
const MaxStickyOrder = 100

// Resource is one catalog entry.
type Resource struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	URL                 string     `json:"url"`
	Category            string     `json:"category"`
	Price               PriceTier  `json:"price"`
	IsOpenSource        bool       `json:"is_open_source"`
	Status              Status     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	PublishedAt         *time.Time `json:"published_at"`
	GlobalStickyOrder   int        `json:"global_sticky_order"`
	CategoryStickyOrder int        `json:"category_sticky_order"`
	SubmitterIPHash     string     `json:"submitter_ip,omitempty"`
	Source              string     `json:"source,omitempty"`
}

// IsSticky reports whether r is pinned at global or category scope.
func (r *Resource) IsSticky() bool {
	return r.GlobalStickyOrder > 0 || r.CategoryStickyOrder > 0
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}
