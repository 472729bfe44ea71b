package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

// AvatarSeeds are the seeds a new poster avatar is drawn from.
var AvatarSeeds = []string{"alice", "bob", "charlie", "diana", "evan", "fiona"}

// CreateInput is what the creation form submits.
type CreateInput struct {
	Title  string   `json:"title"`
	Topics string   `json:"topics"`
	Tags   []string `json:"tags"`
}

// Create builds a new podcast from in and adds it. The returned record is the
// one sent to the repository; the mirror shows it after the next refresh.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.Podcast, error) {
	title := strings.TrimSpace(in.Title)
	topics := strings.TrimSpace(in.Topics)
	if title == "" || topics == "" {
		return models.Podcast{}, fmt.Errorf("%w: title and topics are required", ErrValidation)
	}

	p := models.Podcast{
		ID:          s.nextID(),
		Title:       title,
		Description: topics,
		Host:        models.DefaultHost,
		Category:    s.category(ctx, title, topics),
		Image:       models.PlaceholderImage,
		Poster: models.Poster{
			Name:   posterName(title),
			Avatar: models.AvatarURL(AvatarSeeds[s.intn(len(AvatarSeeds))]),
		},
		Tags: models.NormalizeTags(in.Tags),
	}

	if err := s.Add(ctx, p); err != nil {
		return models.Podcast{}, err
	}
	return p, nil
}

// nextID returns the current unix millisecond timestamp, bumped past any id
// already present in the mirror.
func (s *Store) nextID() string {
	ms := s.now().UnixMilli()

	s.mu.RLock()
	taken := make(map[string]struct{}, len(s.podcasts))
	for _, p := range s.podcasts {
		taken[p.ID] = struct{}{}
	}
	s.mu.RUnlock()

	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}

func (s *Store) category(ctx context.Context, title, topics string) string {
	if s.categorizer == nil {
		return models.DefaultCategory
	}
	c, err := s.categorizer.SuggestCategory(ctx, title, topics)
	if err != nil {
		s.log.Warn("category suggestion failed", "title", title, "error", err)
		return models.DefaultCategory
	}
	if c = strings.TrimSpace(c); c == "" {
		return models.DefaultCategory
	}
	return c
}

func posterName(title string) string {
	if fields := strings.Fields(title); len(fields) > 0 {
		return fields[0]
	}
	return "User"
}
