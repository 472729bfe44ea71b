package store

import (
	"context"
	"errors"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

var (
	ErrPodcastNotFound = errors.New("podcast not found")
	ErrDuplicateID     = errors.New("podcast id already exists")
	ErrValidation      = errors.New("validation failed")
)

// Repository is the persistence side of the store. Every operation is keyed by
// the application-level podcast id.
type Repository interface {
	Create(ctx context.Context, p *models.Podcast) error
	List(ctx context.Context) ([]models.Podcast, error)
	Get(ctx context.Context, id string) (*models.Podcast, error)
	Update(ctx context.Context, id string, u models.PodcastUpdate) (*models.Podcast, error)
	Delete(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) error
	// DecrementLikes lowers likes by one, never below zero.
	DecrementLikes(ctx context.Context, id string) error
	IncrementComments(ctx context.Context, id string) error
	// SeedIfEmpty inserts defaults only when the collection is empty. Records whose
	// id already exists are skipped, so concurrent seeders cannot duplicate.
	SeedIfEmpty(ctx context.Context, defaults []models.Podcast) (int, error)
}
