package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/ai-podcast-backend/controllers"
	"github.com/vnkhanh/ai-podcast-backend/middleware"
	"github.com/vnkhanh/ai-podcast-backend/ws"
)

type Deps struct {
	Podcasts    *controllers.PodcastController
	Connections *controllers.ConnectionController
	Health      *controllers.HealthController
	Hub         *ws.Hub
	RoomTokens  middleware.RoomTokenVerifier
	AdminKey    string
	// AllowedOrigins gates websocket upgrades from browsers.
	AllowedOrigins []string
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", d.Health.Check)

	api := r.Group("/api")

	podcasts := api.Group("/podcasts")
	{
		podcasts.GET("", d.Podcasts.List)
		podcasts.GET("/:id", d.Podcasts.Get)
		podcasts.POST("", d.Podcasts.Create)
		podcasts.POST("/:id/like", d.Podcasts.Like)
		podcasts.DELETE("/:id/like", d.Podcasts.Unlike)
		podcasts.POST("/:id/comments", d.Podcasts.AddComment)
	}

	admin := api.Group("/podcasts")
	{
		admin.Use(middleware.RequireAdminKey(d.AdminKey))
		admin.PATCH("/:id", d.Podcasts.Update)
		admin.DELETE("/:id", d.Podcasts.Delete)
		admin.POST("/:id/image", d.Podcasts.UploadImage)
		admin.POST("/:id/knowledge", d.Podcasts.UploadKnowledge)
	}

	api.GET("/connection-details", d.Connections.Details)

	upgrader := ws.NewUpgrader(d.AllowedOrigins)
	r.GET("/rtc", middleware.RoomAuth(d.RoomTokens), ws.HandleRoomWebSocket(d.Hub, upgrader))
	r.GET("/ws/podcasts", ws.HandlePodcastFeed(d.Hub, upgrader, d.Podcasts.Store.Podcasts))

	return r
}
