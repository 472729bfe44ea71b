package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

// MemoryRepository is a process-local Repository used for development
// (DATABASE_DRIVER=memory) and tests. It keeps insertion order.
type MemoryRepository struct {
	mu       sync.Mutex
	order    []string
	podcasts map[string]models.Podcast
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		podcasts: make(map[string]models.Podcast),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Podcast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(p)
}

func (r *MemoryRepository) insertLocked(p *models.Podcast) error {
	if _, ok := r.podcasts[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	now := r.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.podcasts[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Podcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Podcast, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.podcasts[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Podcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.podcasts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	c := p.Clone()
	return &c, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, u models.PodcastUpdate) (*models.Podcast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.podcasts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	u.Apply(&p)
	p.UpdatedAt = r.now()
	r.podcasts[id] = p
	c := p.Clone()
	return &c, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.podcasts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	delete(r.podcasts, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) IncrementLikes(_ context.Context, id string) error {
	return r.mutate(id, func(p *models.Podcast) { p.Likes++ })
}

func (r *MemoryRepository) DecrementLikes(_ context.Context, id string) error {
	return r.mutate(id, func(p *models.Podcast) {
		if p.Likes > 0 {
			p.Likes--
		}
	})
}

func (r *MemoryRepository) IncrementComments(_ context.Context, id string) error {
	return r.mutate(id, func(p *models.Podcast) { p.Comments++ })
}

func (r *MemoryRepository) mutate(id string, fn func(*models.Podcast)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.podcasts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	fn(&p)
	p.UpdatedAt = r.now()
	r.podcasts[id] = p
	return nil
}

func (r *MemoryRepository) SeedIfEmpty(_ context.Context, defaults []models.Podcast) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.podcasts) > 0 {
		return 0, nil
	}
	inserted := 0
	for _, p := range defaults {
		p := p.Clone()
		if err := r.insertLocked(&p); err != nil {
			continue
		}
		inserted++
	}
	return inserted, nil
}
