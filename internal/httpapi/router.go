package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/pneuma-api/internal/common"
	"github.com/suPer8Hu/pneuma-api/internal/httpapi/handlers"
	"github.com/suPer8Hu/pneuma-api/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	cfg := h.Cfg

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(h.Metrics))
	r.Use(middleware.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, common.CodeRouteNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, common.CodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/", h.Root)
	if cfg.EnableMetrics && h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := r.Group(cfg.APIPrefix)

	// health
	api.GET("/health", h.Health)
	api.GET("/health/pneuma", h.PneumaHealth)

	// query
	api.POST("/query", h.Query)
	api.GET("/query/session/:session_id", h.SessionHistory)

	// tables
	api.GET("/indexes", h.ListIndexes)
	api.GET("/table/:table_id", h.TableDetails)

	// admin
	api.POST("/admin/token", h.AdminToken)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired(cfg.SecretKey, cfg.AdminPasswordHash != ""))
	admin.GET("/status", h.AdminStatus)
	admin.POST("/reload", h.AdminReload)
	admin.GET("/indexes", h.AdminIndexes)
	admin.DELETE("/sessions/:session_id", h.AdminDeleteSession)
	admin.GET("/metrics", h.AdminMetrics)

	return r
}
