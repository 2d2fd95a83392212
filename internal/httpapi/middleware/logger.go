package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/metrics"
)

// AccessLog writes one line per request and counts it by route template.
func AccessLog(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(status))

		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Ctx(c.Request.Context()).Error()
		case status >= 400:
			ev = log.Ctx(c.Request.Context()).Warn()
		default:
			ev = log.Ctx(c.Request.Context()).Info()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
