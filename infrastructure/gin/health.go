package gin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

// HealthChecker reports a dependency failure as an error.
type HealthChecker func(ctx context.Context) error

// HealthOptions configures RegisterHealthRoutes.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	Checks         map[string]HealthChecker
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RegisterHealthRoutes adds GET and HEAD /health. Any failing check makes
// the response 503 with status "degraded".
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	started := time.Now()

	router.GET("/health", func(c *gin.Context) {
		resp := HealthResponse{
			Status:    "healthy",
			Service:   opts.ServiceName,
			Version:   opts.ServiceVersion,
			Uptime:    time.Since(started).Round(time.Second).String(),
			Timestamp: time.Now().UTC(),
		}
		code := http.StatusOK

		if len(opts.Checks) > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()

			resp.Checks = make(map[string]string, len(opts.Checks))
			for name, check := range opts.Checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = "unhealthy: " + err.Error()
					resp.Status = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "healthy"
			}
		}

		c.JSON(code, resp)
	})

	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}
