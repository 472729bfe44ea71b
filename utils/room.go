package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

// RoomName is the signalling room a podcast's sessions join.
func RoomName(p models.Podcast) string {
	s := slug.Make(p.Title)
	if len(s) > 48 {
		s = strings.Trim(s[:48], "-")
	}
	if s == "" {
		return "podcast-" + p.ID
	}
	return fmt.Sprintf("podcast-%s-%s", s, p.ID)
}

// NewParticipantIdentity returns a fresh listener identity.
func NewParticipantIdentity() string {
	return "listener_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
