package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Eninte/ai-resource-navigator/infrastructure/health"
)

// HealthHandler handles the API health and diagnostics endpoints.
type HealthHandler struct {
	version string
	driver  string
	checker *health.Checker
}

// NewHealthHandler creates a HealthHandler reporting version and the
// configured store driver. checker backs the admin diagnostics.
func NewHealthHandler(version, driver string, checker *health.Checker) *HealthHandler {
	return &HealthHandler{version: version, driver: driver, checker: checker}
}

// HealthCheck reports that the API is serving.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "API is working",
		"version":   h.version,
		"driver":    h.driver,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DBCheck runs every registered diagnostic and returns the report. The
// status is 200 even when checks fail; the summary carries the verdict.
func (h *HealthHandler) DBCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Run(c.Request.Context()))
}
