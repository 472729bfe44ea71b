package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/ai-podcast-backend/store"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HubStats interface {
	GetStats() map[string]int
}

type HealthController struct {
	DB    Pinger // nil with the memory driver
	Store *store.Store
	Hub   HubStats
}

func (hc *HealthController) Check(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"db":        "ok",
		"podcasts": gin.H{
			"loaded": hc.Store.Loaded(),
			"count":  len(hc.Store.Podcasts()),
		},
		"websocket": gin.H{
			"enabled": hc.Hub != nil,
		},
	}
	if hc.Hub != nil {
		response["websocket"] = gin.H{"enabled": true, "stats": hc.Hub.GetStats()}
	}

	if hc.DB == nil {
		response["db"] = "memory"
		c.JSON(http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := hc.DB.PingContext(ctx); err != nil {
		response["db"] = "error: cannot connect to DB"
		response["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
