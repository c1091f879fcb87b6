package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Eninte/ai-resource-navigator/internal/adminauth"
	"github.com/Eninte/ai-resource-navigator/internal/handler"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/middleware"
)

// Handlers groups every route handler.
type Handlers struct {
	Resources *handler.ResourceHandler
	Redirect  *handler.RedirectHandler
	Submit    *handler.SubmitHandler
	Admin     *handler.AdminHandler
	Health    *handler.HealthHandler
}

// RouteOptions carries the middleware dependencies of SetupRoutes.
type RouteOptions struct {
	Sessions *adminauth.SessionManager
	// Throttle, when set, limits redirect bursts per client address.
	Throttle *middleware.Throttle
	// Metrics, when set, instruments every route and is served on
	// MetricsPath.
	Metrics     *metrics.Provider
	MetricsPath string
}

// SetupRoutes configures all API routes.
// Health routes are registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, h Handlers, opts RouteOptions) {
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET(opts.MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}

	api := router.Group("/api")
	api.GET("/health", h.Health.HealthCheck)
	api.GET("/resources", h.Resources.List)
	api.GET("/categories", h.Resources.Categories)
	api.GET("/stats", h.Resources.Stats)
	api.POST("/submit", h.Submit.Submit)

	// Redirect with bot filter and burst throttling
	redirect := api.Group("/go")
	redirect.Use(middleware.BotFilter())
	if opts.Throttle != nil {
		redirect.Use(opts.Throttle.Handler(clientIP))
	}
	redirect.GET("/:id", h.Redirect.Go)

	api.POST("/admin/login", h.Admin.Login)
	api.POST("/admin/logout", h.Admin.Logout)

	admin := api.Group("/admin")
	admin.Use(adminauth.Middleware(opts.Sessions))
	admin.GET("/resources", h.Admin.ListResources)
	admin.PATCH("/resources", h.Admin.UpdateResource)
	admin.DELETE("/resources", h.Admin.DeleteResource)
	admin.POST("/resources/:id/:action", h.Admin.TransitionResource)
	admin.GET("/logs", h.Admin.Logs)
	admin.GET("/db-check", h.Health.DBCheck)
}

func clientIP(c *gin.Context) string {
	return iphash.ClientIP(c.Request)
}
