package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/ai-podcast-backend/middleware"
	"github.com/vnkhanh/ai-podcast-backend/models"
)

// NewUpgrader accepts requests with no Origin header and requests from one of
// the allowed origins. A "*" entry allows every origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// HandleRoomWebSocket joins the caller into the room named by its token grant.
// It expects middleware.RoomAuth to run first.
func HandleRoomWebSocket(hub *Hub, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.RoomClaimsFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing room token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("WebSocket upgrade failed", "error", err)
			return
		}
		hub.Join(claims.Video.Room, claims.Identity(), conn)
	}
}

// HandlePodcastFeed streams collection snapshots, starting with the current one.
func HandlePodcastFeed(hub *Hub, upgrader *websocket.Upgrader, snapshot func() []models.Podcast) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("WebSocket upgrade failed", "error", err)
			return
		}
		hub.RegisterFeed(conn, snapshot())
	}
}
