package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/click"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/middleware"
	"github.com/Eninte/ai-resource-navigator/internal/redirect"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

const (
	// ConsentCookie must equal ConsentAccepted for a click to be recorded.
	ConsentCookie   = "cookie-consent"
	ConsentAccepted = "accepted"
)

// Redirect outcomes.
const (
	outcomeRedirected   = "redirected"
	outcomeInvalidToken = "invalid_token"
	outcomeNotFound     = "not_found"
	outcomeError        = "error"
)

// RedirectHandler gates outbound links behind redirect tokens.
type RedirectHandler struct {
	store   store.Store
	tokens  *redirect.Service
	clicks  *click.Recorder
	hasher  *iphash.Hasher
	logger  logger.Logger
	metrics *metrics.Provider
}

// NewRedirectHandler creates a RedirectHandler.
func NewRedirectHandler(
	s store.Store,
	tokens *redirect.Service,
	clicks *click.Recorder,
	hasher *iphash.Hasher,
	log logger.Logger,
	m *metrics.Provider,
) *RedirectHandler {
	return &RedirectHandler{
		store:   s,
		tokens:  tokens,
		clicks:  clicks,
		hasher:  hasher,
		logger:  log,
		metrics: m,
	}
}

// Go verifies the token, records a consented click and redirects to the
// resource URL.
func (h *RedirectHandler) Go(c *gin.Context) {
	id := c.Param("id")

	if !h.tokens.Verify(c.Query("token"), id) {
		h.metrics.RecordRedirect(outcomeInvalidToken)
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
		return
	}

	resource, err := h.store.GetResource(c.Request.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.metrics.RecordRedirect(outcomeNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	case err != nil:
		h.metrics.RecordRedirect(outcomeError)
		h.logger.Error("Failed to load resource for redirect",
			logger.String("resource_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if resource.Status != domain.StatusPublished {
		h.metrics.RecordRedirect(outcomeNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}

	if h.shouldRecord(c) {
		h.clicks.Record(c.Request.Context(), domain.Click{
			ResourceID: id,
			IPHash:     h.hasher.Hash(iphash.ClientIP(c.Request)),
			UserAgent:  c.Request.UserAgent(),
			Referrer:   c.Request.Referer(),
		})
	}

	h.metrics.RecordRedirect(outcomeRedirected)
	c.Redirect(http.StatusFound, resource.URL)
}

// shouldRecord requires explicit consent and skips known crawlers.
func (h *RedirectHandler) shouldRecord(c *gin.Context) bool {
	if h.clicks == nil || middleware.IsBot(c) {
		return false
	}
	consent, err := c.Cookie(ConsentCookie)
	return err == nil && consent == ConsentAccepted
}
