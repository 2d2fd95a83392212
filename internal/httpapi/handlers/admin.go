package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/auth"
	"github.com/suPer8Hu/pneuma-api/internal/common"
)

type tokenReq struct {
	Password string `json:"password" binding:"required"`
}

// AdminToken exchanges the admin password for a bearer token.
func (h *Handler) AdminToken(c *gin.Context) {
	if h.Cfg.AdminPasswordHash == "" {
		fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "admin authentication is not enabled")
		return
	}
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailure(c, err)
		return
	}
	if !auth.CheckPassword(h.Cfg.AdminPasswordHash, req.Password) {
		fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid credentials")
		return
	}
	tok, exp, err := auth.SignAdminToken(h.Cfg.SecretKey, h.Cfg.AdminTokenTTL())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("sign admin token")
		fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "expires_at": exp.UTC()})
}

func (h *Handler) AdminStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":          time.Now().UTC(),
		"pneuma_initialized": h.Discovery.Initialized(),
		"services": gin.H{
			"pneuma": h.pneumaStatus(),
			"redis":  h.redisStatus(c.Request.Context()),
		},
	})
}

func (h *Handler) AdminReload(c *gin.Context) {
	if err := h.Discovery.Reload(c.Request.Context()); err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to reload pneuma service")
		fail(c, http.StatusInternalServerError, common.CodeInternal, "reload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pneuma service reloaded successfully"})
}

func (h *Handler) AdminIndexes(c *gin.Context) {
	infos, err := h.Discovery.AdminIndexInfos(c.Request.Context())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list indexes")
		fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to retrieve indexes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexes": infos})
}

func (h *Handler) AdminDeleteSession(c *gin.Context) {
	sid := c.Param("session_id")
	deleted, err := h.Sessions.Delete(c.Request.Context(), sid)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("session_id", sid).Msg("failed to delete session")
		fail(c, http.StatusServiceUnavailable, common.CodeSessionsUnavailable, "session deletion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Session " + sid + " deleted",
		"deleted": deleted,
	})
}

func (h *Handler) AdminMetrics(c *gin.Context) {
	ctx := c.Request.Context()

	var total int64
	if h.QueryLog != nil {
		n, err := h.QueryLog.Count(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("count query log")
		}
		total = n
	}
	active, err := h.Sessions.ActiveSessions(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("count sessions")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":  int64(time.Since(h.StartedAt).Seconds()),
		"total_queries":   total,
		"active_sessions": active,
		"memory_usage_mb": ms.Sys / (1 << 20),
		"timestamp":       time.Now().UTC(),
	})
}
