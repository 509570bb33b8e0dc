package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"refund-backend/internal/shared"
	"refund-backend/pkg/jwt"
)

// Context keys set by AuthMiddleware.
const (
	ContextTenantID = "tenantID"
	ContextActor    = "actor"
)

// AuthMiddleware validates the bearer token and places the tenant id and the
// acting user in the request context. Handlers pass both explicitly into
// services; nothing downstream reads authentication state ambiently.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid tenant id in token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid user id in token"})
			c.Abort()
			return
		}

		c.Set(ContextTenantID, tenantID)
		c.Set(ContextActor, shared.Actor{UserID: userID, Role: claims.Role})

		c.Next()
	}
}

// TenantID reads the tenant set by AuthMiddleware.
func TenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextTenantID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// Actor reads the acting user set by AuthMiddleware.
func Actor(c *gin.Context) shared.Actor {
	if v, ok := c.Get(ContextActor); ok {
		if actor, ok := v.(shared.Actor); ok {
			return actor
		}
	}
	return shared.Actor{}
}
