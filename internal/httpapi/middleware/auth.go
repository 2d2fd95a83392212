package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/pneuma-api/internal/auth"
	"github.com/suPer8Hu/pneuma-api/internal/common"
)

const AdminClaimsKey = "admin_claims"

// AdminRequired checks the bearer token on admin routes. When enabled is
// false every request passes, which is how a deployment without an admin
// password behaves.
func AdminRequired(secret string, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "missing bearer token")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

		claims, err := auth.ParseAdminToken(tokenStr, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token")
			return
		}
		c.Set(AdminClaimsKey, claims)
		c.Next()
	}
}
