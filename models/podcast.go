package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPodcast is returned by PodcastUpdate.Validate.
var ErrInvalidPodcast = errors.New("invalid podcast")

const (
	DefaultHost      = "AI Assistant"
	DefaultCategory  = "General"
	PlaceholderImage = "/api/placeholder/300/200"
	AvatarBaseURL    = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

type Poster struct {
	Name   string `gorm:"size:100" json:"name"`
	Avatar string `gorm:"type:text" json:"avatar"`
}

type Podcast struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Host          string    `gorm:"size:100;not null" json:"host"`
	Category      string    `gorm:"size:100;not null" json:"category"`
	Participants  int       `gorm:"not null;default:0;check:participants >= 0" json:"participants"`
	Likes         int       `gorm:"not null;default:0;check:likes >= 0" json:"likes"`
	Comments      int       `gorm:"not null;default:0;check:comments >= 0" json:"comments"`
	Image         string    `gorm:"type:text" json:"image"`
	Poster        Poster    `gorm:"embedded;embeddedPrefix:poster_" json:"poster"`
	Tags          []string  `gorm:"serializer:json;type:text" json:"tags"`
	KnowledgeBase string    `gorm:"type:text" json:"knowledge_base,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AvatarURL builds a deterministic avatar reference for seed.
func AvatarURL(seed string) string {
	return AvatarBaseURL + seed
}

// PodcastUpdate carries the fields of a partial update. Nil fields are left untouched.
type PodcastUpdate struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Host          *string   `json:"host,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Participants  *int      `json:"participants,omitempty"`
	Likes         *int      `json:"likes,omitempty"`
	Comments      *int      `json:"comments,omitempty"`
	Image         *string   `json:"image,omitempty"`
	Poster        *Poster   `json:"poster,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	KnowledgeBase *string   `json:"knowledge_base,omitempty"`
}

func (u PodcastUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidPodcast)
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", ErrInvalidPodcast)
	}
	for name, v := range map[string]*int{
		"participants": u.Participants,
		"likes":        u.Likes,
		"comments":     u.Comments,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must be >= 0 (got %d)", ErrInvalidPodcast, name, *v)
		}
	}
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (u PodcastUpdate) IsEmpty() bool {
	return u == PodcastUpdate{}
}

// Apply merges the non-nil fields of u into p.
func (u PodcastUpdate) Apply(p *Podcast) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Host != nil {
		p.Host = *u.Host
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Participants != nil {
		p.Participants = *u.Participants
	}
	if u.Likes != nil {
		p.Likes = *u.Likes
	}
	if u.Comments != nil {
		p.Comments = *u.Comments
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Poster != nil {
		p.Poster = *u.Poster
	}
	if u.Tags != nil {
		p.Tags = NormalizeTags(*u.Tags)
	}
	if u.KnowledgeBase != nil {
		p.KnowledgeBase = *u.KnowledgeBase
	}
}

// NormalizeTags trims tags, drops empties and case-insensitive duplicates, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Clone returns a copy of p that shares no slices with it.
func (p Podcast) Clone() Podcast {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}

// FormatCount renders counters the way the feed shows them: 1247 -> "1.2k".
func FormatCount(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}
