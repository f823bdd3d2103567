package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/errors"
)

// IPChecker reports whether an address is blocked.
type IPChecker interface {
	IsBlocked(ctx context.Context, ip string) bool
}

func BlocklistMiddleware(checker IPChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if checker.IsBlocked(c.Request.Context(), ip) {
			GetLoggerFromContext(c).Warn("Blocked IP rejected", map[string]interface{}{
				"ip": ip,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzIPBlocked, "access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}
