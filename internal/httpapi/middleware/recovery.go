package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/common"
)

// Recovery turns a panic into the generic 500 envelope. The panic value is
// logged, never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Ctx(c.Request.Context()).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("unhandled panic")
				common.Fail(c, http.StatusInternalServerError, common.CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
