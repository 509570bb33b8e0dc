package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole restricts a route group to the given roles. Admin always
// passes.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles)+1)
	allowed["admin"] = true
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		actor := Actor(c)
		if !allowed[actor.Role] {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: insufficient role",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminMiddleware restricts a route group to admins.
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole()
}
