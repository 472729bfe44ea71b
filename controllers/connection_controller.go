package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/ai-podcast-backend/store"
	"github.com/vnkhanh/ai-podcast-backend/utils"
)

type RoomTokenIssuer interface {
	Issue(identity, name, room string) (string, time.Time, error)
}

// ConnectionDetails authorises one room connection.
type ConnectionDetails struct {
	ServerURL        string    `json:"serverUrl"`
	RoomName         string    `json:"roomName"`
	ParticipantName  string    `json:"participantName"`
	ParticipantToken string    `json:"participantToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

type ConnectionController struct {
	Store     *store.Store
	Issuer    RoomTokenIssuer
	ServerURL string
}

// GET /api/connection-details?podcast=<id>
func (cc *ConnectionController) Details(c *gin.Context) {
	id := strings.TrimSpace(c.Query("podcast"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "podcast query parameter is required"})
		return
	}
	p, ok := cc.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found"})
		return
	}

	identity := utils.NewParticipantIdentity()
	room := utils.RoomName(p)
	token, expiresAt, err := cc.Issuer.Issue(identity, identity, room)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue room token", "details": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, ConnectionDetails{
		ServerURL:        cc.ServerURL,
		RoomName:         room,
		ParticipantName:  identity,
		ParticipantToken: token,
		ExpiresAt:        expiresAt,
	})
}
