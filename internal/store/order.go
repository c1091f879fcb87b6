package store

import (
	"sort"
	"strings"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
)

// SortResources orders rs in place with sticky precedence: global sticky
// order descending, then category sticky order descending, then order.
// Resources with both sticky fields zero therefore always follow every
// sticky resource.
func SortResources(rs []domain.Resource, order Order) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := &rs[i], &rs[j]
		if a.GlobalStickyOrder != b.GlobalStickyOrder {
			return a.GlobalStickyOrder > b.GlobalStickyOrder
		}
		if a.CategoryStickyOrder != b.CategoryStickyOrder {
			return a.CategoryStickyOrder > b.CategoryStickyOrder
		}
		switch order {
		case OrderName:
			return a.Name < b.Name
		case OrderCreated:
			return a.CreatedAt.After(b.CreatedAt)
		default:
			return publishedAfter(a, b)
		}
	})
}

// publishedAfter sorts unpublished resources last, like NULLS LAST.
func publishedAfter(a, b *domain.Resource) bool {
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	default:
		return a.PublishedAt.After(*b.PublishedAt)
	}
}

// Matches reports whether r satisfies f.
func (f Filter) Matches(r *domain.Resource) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Category != "" && f.Category != AllCategories && r.Category != f.Category {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	return true
}

// Page applies offset and limit to rs. A non-positive limit keeps the rest.
func Page[T any](rs []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rs) {
		return []T{}
	}
	rs = rs[offset:]
	if limit > 0 && limit < len(rs) {
		rs = rs[:limit]
	}
	return rs
}
