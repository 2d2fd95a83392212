package common

import (
	"github.com/gin-gonic/gin"
)

// Error codes carried in the failure envelope.
const (
	CodeInvalidRequest      = 10001
	CodeUnauthorized        = 40101
	CodeRouteNotFound       = 40400
	CodeTableNotFound       = 40402
	CodeMethodNotAllowed    = 40500
	CodeInternal            = 50001
	CodeEngineUnavailable   = 50301
	CodeSessionsUnavailable = 50302
)

// Fail writes the uniform error envelope. msg must never carry internal
// error text.
func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
