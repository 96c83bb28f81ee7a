package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Basic liveness check (always returns 200 OK).
//   - /readyz: Readiness check, runs every registered dependency check.
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler constructs a HealthHandler. checks maps a dependency name
// (e.g. "postgres", "redis") to its check; nil entries are ignored.
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: 200 when every check passes, 503 with per-dependency status otherwise.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness check
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness check
	// @Description  Returns ready if the service dependencies (postgres, redis) are reachable
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]interface{}
	// @Failure      503  {object}  map[string]interface{}
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name, check := range h.checks {
			if check != nil {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		deps := gin.H{}
		healthy := true
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				deps[name] = err.Error()
				healthy = false
				continue
			}
			deps[name] = "ok"
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "dependencies": deps})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "dependencies": deps})
	})
}
