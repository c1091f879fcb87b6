package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/Eninte/ai-resource-navigator/infrastructure/gin"
	infralogger "github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/config"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// NewServer creates the HTTP server. storePing backs the /health
// dependency check.
func NewServer(
	h Handlers,
	opts RouteOptions,
	cfg *config.Config,
	log infralogger.Logger,
	storePing func(ctx context.Context) error,
) *infragin.Server {
	return infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins, true).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout).
		WithHealthCheck("store", storePing).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, h, opts)
		}).
		Build()
}
