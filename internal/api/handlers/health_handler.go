package handlers

import (
	"context"
	"net/http"
	"time"

	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	store   interfaces.Store
	cache   interfaces.CacheService
	version string
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(store interfaces.Store, cache interfaces.CacheService, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		cache:   cache,
		version: version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	services := make(map[string]string)

	services["database"] = "healthy"
	if err := h.store.Health(ctx); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		services["cache"] = "healthy"
		if err := h.cache.Health(ctx); err != nil {
			// catalog reads fall back to the store
			services["cache"] = "unhealthy: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Services:  services,
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	ready := h.store.Health(ctx) == nil
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now(),
	})
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	response := map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
	}

	c.JSON(http.StatusOK, response)
}
