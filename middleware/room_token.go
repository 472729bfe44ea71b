package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/ai-podcast-backend/utils"
)

const roomClaimsKey = "room_claims"

type RoomTokenVerifier interface {
	Verify(token string) (*utils.RoomClaims, error)
}

// RoomAuth accepts a room token from the access_token query parameter (what
// WebSocket clients can send) or an "Authorization: Bearer" header.
func RoomAuth(verifier RoomTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("access_token")
		if token == "" {
			parts := strings.Split(c.GetHeader("Authorization"), " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing room token"})
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired room token"})
			c.Abort()
			return
		}

		c.Set(roomClaimsKey, claims)
		c.Next()
	}
}

func RoomClaimsFrom(c *gin.Context) (*utils.RoomClaims, bool) {
	v, ok := c.Get(roomClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.RoomClaims)
	return claims, ok
}
