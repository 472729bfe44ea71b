package agent

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Supervisor *Supervisor
}

func RegisterRoutes(r gin.IRouter, h *Handler) {
	api := r.Group("/api/agent")
	{
		api.POST("/start", h.Start)
		api.POST("/stop", h.Stop)
		api.GET("/status", h.Status)
	}
}

// POST /api/agent/start
func (h *Handler) Start(c *gin.Context) {
	var in StartRequest
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	st, started, err := h.Supervisor.Start(in)
	if err != nil {
		slog.Error("Agent start failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start agent", "details": err.Error()})
		return
	}

	status := "started"
	if !started {
		status = "already_running"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "agent": st})
}

// POST /api/agent/stop
func (h *Handler) Stop(c *gin.Context) {
	if err := h.Supervisor.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stop agent", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped", "agent": h.Supervisor.Status()})
}

// GET /api/agent/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Supervisor.Status())
}
