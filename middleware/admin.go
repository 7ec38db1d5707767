package middleware

import (
	"net/http"

	"turtlesoup/models"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after AuthMiddleware; it gates on the role carried
// in the token claims.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role.(string) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			return
		}
		c.Next()
	}
}
