package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"refund-backend/internal/shared/utils"
)

type clientIPKey struct{}

// ClientIPMiddleware extracts the real client IP and injects it into the
// request context. Registered early so every handler and audit log entry
// sees the same value.
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := utils.ExtractClientIP(c)

		c.Set("client_ip", clientIP)

		ctx := context.WithValue(c.Request.Context(), clientIPKey{}, clientIP)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetClientIPFromContext retrieves the client IP from context. Returns an
// empty string if not found.
func GetClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}
