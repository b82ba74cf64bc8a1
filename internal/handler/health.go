package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventup/api/internal/service"
)

// HealthChecker runs dependency checks
type HealthChecker interface {
	Service() string
	Check(ctx context.Context) *service.HealthReport
}

// HealthHandler serves liveness and dependency checks
type HealthHandler struct {
	health HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health HealthChecker) *HealthHandler {
	return &HealthHandler{health: health}
}

// Live handles GET /api/health
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   h.health.Service(),
		"timestamp": time.Now().UTC(),
	})
}

// Details handles GET /api/health/details
func (h *HealthHandler) Details(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
