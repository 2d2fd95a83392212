package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Pneuma Data Discovery API",
		"version": h.Cfg.APIVersion,
		"docs":    nil,
		"health":  h.Cfg.APIPrefix + "/health",
	})
}

func (h *Handler) pneumaStatus() string {
	if h.Discovery != nil && h.Discovery.Healthy() {
		return statusHealthy
	}
	return statusUnhealthy
}

func (h *Handler) redisStatus(ctx context.Context) string {
	if h.Sessions == nil {
		return statusUnhealthy
	}
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.Sessions.Ping(pctx); err != nil {
		return statusUnhealthy
	}
	return statusHealthy
}

func (h *Handler) Health(c *gin.Context) {
	pneuma := h.pneumaStatus()
	redis := h.redisStatus(c.Request.Context())

	overall := statusHealthy
	if pneuma != statusHealthy || redis != statusHealthy {
		overall = statusUnhealthy
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        overall,
		"timestamp":     time.Now().UTC(),
		"version":       h.Cfg.APIVersion,
		"pneuma_status": pneuma,
		"redis_status":  redis,
	})
}

func (h *Handler) PneumaHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      h.pneumaStatus(),
		"initialized": h.Discovery != nil && h.Discovery.Initialized(),
		"timestamp":   time.Now().UTC(),
	})
}
