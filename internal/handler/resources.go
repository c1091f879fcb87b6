package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/listing"
	"github.com/Eninte/ai-resource-navigator/internal/redirect"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

// ResourceHandler serves the public catalog reads.
type ResourceHandler struct {
	engine *listing.Engine
	store  store.Store
	tokens *redirect.Service
	logger logger.Logger
}

// NewResourceHandler creates a ResourceHandler.
func NewResourceHandler(
	engine *listing.Engine,
	s store.Store,
	tokens *redirect.Service,
	log logger.Logger,
) *ResourceHandler {
	return &ResourceHandler{
		engine: engine,
		store:  s,
		tokens: tokens,
		logger: log,
	}
}

// ResourceItem is one listed resource with the token that unlocks its
// redirect link.
type ResourceItem struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	URL                 string           `json:"url"`
	Category            string           `json:"category"`
	Price               domain.PriceTier `json:"price"`
	IsOpenSource        bool             `json:"is_open_source"`
	GlobalStickyOrder   int              `json:"global_sticky_order"`
	CategoryStickyOrder int              `json:"category_sticky_order"`
	PublishedAt         *time.Time       `json:"published_at"`
	Token               string           `json:"token"`
}

// ListResponse is the body of GET /api/resources.
type ListResponse struct {
	Resources []ResourceItem `json:"resources"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
	Warning   string         `json:"warning,omitempty"`
}

// List answers the public listing query. It always responds 200; a failing
// store yields the fallback dataset with warning set.
func (h *ResourceHandler) List(c *gin.Context) {
	q := listing.Query{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     listing.ParseSort(c.Query("sort")),
		Limit:    queryInt(c, "limit", 0),
		Offset:   queryInt(c, "offset", 0),
	}

	page := h.engine.List(c.Request.Context(), q)

	items := make([]ResourceItem, 0, len(page.Resources))
	for i := range page.Resources {
		items = append(items, h.annotate(c, &page.Resources[i]))
	}

	c.JSON(http.StatusOK, ListResponse{
		Resources: items,
		Total:     page.Total,
		Limit:     page.Limit,
		Offset:    page.Offset,
		Warning:   page.Warning,
	})
}

func (h *ResourceHandler) annotate(c *gin.Context, r *domain.Resource) ResourceItem {
	token, err := h.tokens.Issue(r.ID)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to issue redirect token",
			logger.String("resource_id", r.ID),
			logger.Error(err),
		)
	}
	return ResourceItem{
		ID:                  r.ID,
		Name:                r.Name,
		Description:         r.Description,
		URL:                 r.URL,
		Category:            r.Category,
		Price:               r.Price,
		IsOpenSource:        r.IsOpenSource,
		GlobalStickyOrder:   r.GlobalStickyOrder,
		CategoryStickyOrder: r.CategoryStickyOrder,
		PublishedAt:         r.PublishedAt,
		Token:               token,
	}
}

// Categories returns the active categories in display order.
func (h *ResourceHandler) Categories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context(), true)
	if err != nil {
		h.logger.Error("Failed to fetch categories", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Stats returns published counts keyed by category slug. On store failure
// the built-in table is returned instead.
func (h *ResourceHandler) Stats(c *gin.Context) {
	counts, _ := h.engine.Stats(c.Request.Context())
	c.JSON(http.StatusOK, counts)
}

// queryInt parses a non-negative integer query parameter, falling back to
// def when absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
