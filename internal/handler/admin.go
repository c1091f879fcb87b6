package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/adminauth"
	"github.com/Eninte/ai-resource-navigator/internal/audit"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/moderation"
	"github.com/Eninte/ai-resource-navigator/internal/ratelimit"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

const (
	defaultLogsLimit = 50
	maxLogsLimit     = 500
)

// Login outcomes.
const (
	loginSuccess = "success"
	loginFailure = "failure"
	loginLocked  = "locked"
)

// AdminDeps are the collaborators of AdminHandler.
type AdminDeps struct {
	Store         store.Store
	Moderation    *moderation.Service
	Sessions      *adminauth.SessionManager
	Passwords     *adminauth.PasswordVerifier
	LoginGuard    *ratelimit.LoginGuard
	Audit         *audit.Recorder
	Hasher        *iphash.Hasher
	Logger        logger.Logger
	Metrics       *metrics.Provider
	SecureCookies bool
}

// AdminHandler serves the authenticated back office and the login flow.
type AdminHandler struct {
	AdminDeps
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &AdminHandler{AdminDeps: deps}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login checks the admin password and sets the session cookie.
func (h *AdminHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "密码不能为空"})
		return
	}

	ipHash := h.actor(c)
	locked, err := h.LoginGuard.Locked(ctx, ipHash)
	if err != nil {
		h.Logger.Warn("Login lock check failed", logger.Error(err))
	}
	if locked {
		h.rejectLocked(c)
		return
	}

	if !h.Passwords.Verify(req.Password) {
		nowLocked, failErr := h.LoginGuard.RecordFailure(ctx, ipHash)
		if failErr != nil {
			h.Logger.Warn("Failed to record login failure", logger.Error(failErr))
		}
		if nowLocked {
			h.Logger.Warn("Admin login locked after repeated failures")
		}
		h.Metrics.RecordLogin(loginFailure)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "密码错误"})
		return
	}

	if err = h.LoginGuard.Reset(ctx, ipHash); err != nil {
		h.Logger.Warn("Failed to reset login failures", logger.Error(err))
	}

	token, err := h.Sessions.Issue(ipHash)
	if err != nil {
		h.Logger.Error("Failed to issue admin session", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败，请稍后重试"})
		return
	}

	h.Audit.Record(ctx, audit.Entry{Action: domain.ActionLogin, IPHash: ipHash})
	h.Metrics.RecordLogin(loginSuccess)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminauth.CookieName, token, int(h.Sessions.TTL().Seconds()), "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) rejectLocked(c *gin.Context) {
	h.Metrics.RecordLogin(loginLocked)
	h.Metrics.RecordRateLimited("login")
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "登录尝试次数过多，请稍后再试"})
}

// Logout clears the session cookie.
func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminauth.CookieName, "", -1, "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListResources lists resources for moderation. status defaults to
// pending; "all" disables the status filter.
func (h *AdminHandler) ListResources(c *gin.Context) {
	status := c.DefaultQuery("status", string(domain.StatusPending))
	f := store.Filter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if status != store.AllCategories {
		f.Status = domain.Status(status)
		if !f.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}

	resources, err := h.Store.ListResources(c.Request.Context(), store.ListOptions{Filter: f, Order: store.OrderCreated})
	if err != nil {
		h.Logger.Error("Failed to fetch resources", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch resources"})
		return
	}
	if resources == nil {
		resources = []domain.Resource{}
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}

type updateRequest struct {
	ID                  string         `binding:"required"             json:"id"`
	Status              *domain.Status `json:"status"`
	Category            *string        `json:"category"`
	GlobalStickyOrder   *int           `json:"global_sticky_order"`
	CategoryStickyOrder *int           `json:"category_sticky_order"`
}

// UpdateResource overwrites status, category and sticky orders.
func (h *AdminHandler) UpdateResource(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	updated, err := h.Moderation.Update(c.Request.Context(), req.ID, moderation.Change{
		Status:              req.Status,
		Category:            req.Category,
		GlobalStickyOrder:   req.GlobalStickyOrder,
		CategoryStickyOrder: req.CategoryStickyOrder,
	}, h.actor(c))
	if err != nil {
		h.moderationError(c, req.ID, err, "Failed to update resource")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": updated})
}

type transitionRequest struct {
	Category string `json:"category"`
}

// TransitionResource applies a workflow step named by the :action path
// parameter (approve, reject, delist or restore).
func (h *AdminHandler) TransitionResource(c *gin.Context) {
	t, ok := moderation.ParseTransition(c.Param("action"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
		return
	}

	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
	}

	id := c.Param("id")
	updated, err := h.Moderation.Transition(c.Request.Context(), id, t, strings.TrimSpace(req.Category), h.actor(c))
	if err != nil {
		h.moderationError(c, id, err, "Failed to update resource")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": updated})
}

// DeleteResource removes the resource named by ?id=.
func (h *AdminHandler) DeleteResource(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resource ID is required"})
		return
	}

	if _, err := h.Moderation.Delete(c.Request.Context(), id, h.actor(c)); err != nil {
		h.moderationError(c, id, err, "Failed to delete resource")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) moderationError(c *gin.Context, id string, err error, internalMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, moderation.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, moderation.ErrCategoryRequired),
		errors.Is(err, moderation.ErrInvalidStatus),
		errors.Is(err, moderation.ErrInvalidStickyOrder),
		errors.Is(err, moderation.ErrEmptyChange),
		errors.Is(err, moderation.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
	default:
		h.Logger.Error(internalMsg,
			logger.String("resource_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalMsg})
	}
}

// Logs returns the audit trail newest first.
func (h *AdminHandler) Logs(c *gin.Context) {
	limit := queryInt(c, "limit", defaultLogsLimit)
	if limit == 0 {
		limit = defaultLogsLimit
	}
	limit = min(limit, maxLogsLimit)
	offset := queryInt(c, "offset", 0)

	ctx := c.Request.Context()
	logs, err := h.Store.ListAdminLogs(ctx, limit, offset)
	if err != nil {
		h.Logger.Error("Failed to fetch logs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}
	if logs == nil {
		logs = []domain.AdminLog{}
	}
	total, err := h.Store.CountAdminLogs(ctx)
	if err != nil {
		h.Logger.Error("Failed to count logs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total, "limit": limit, "offset": offset})
}

// actor is the hashed identity of the caller: the session's ipHash when
// authenticated, otherwise the hashed client address.
func (h *AdminHandler) actor(c *gin.Context) string {
	if claims, ok := adminauth.GetClaims(c); ok && claims.IPHash != "" {
		return claims.IPHash
	}
	return h.Hasher.Hash(iphash.ClientIP(c.Request))
}
