package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdminKey guards mutating admin routes with the X-Admin-Key header.
// An empty key leaves the routes open, which is how local development runs.
func RequireAdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		got := c.GetHeader("X-Admin-Key")
		if got == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-Admin-Key header"})
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin key rejected"})
			c.Abort()
			return
		}
		c.Next()
	}
}
