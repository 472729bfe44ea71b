// Package store mirrors the podcast collection in memory and routes every
// mutation through a Repository. The mirror only changes on refresh, which runs
// whenever a change event arrives from the broker.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnkhanh/ai-podcast-backend/messaging"
	"github.com/vnkhanh/ai-podcast-backend/models"
)

// ListCache caches the full collection snapshot. Get reports ok=false on a miss.
type ListCache interface {
	Get(ctx context.Context) (podcasts []models.Podcast, ok bool, err error)
	Set(ctx context.Context, podcasts []models.Podcast) error
	Invalidate(ctx context.Context) error
}

// Categorizer suggests a category for a new podcast from its title and topics.
type Categorizer interface {
	SuggestCategory(ctx context.Context, title, topics string) (string, error)
}

type Store struct {
	repo        Repository
	cache       ListCache
	broker      messaging.Broker
	categorizer Categorizer
	defaults    []models.Podcast
	seedEnabled bool
	log         *slog.Logger
	now         func() time.Time
	intn        func(n int) int

	// refreshMu serialises refreshes and guards seedAttempted.
	refreshMu     sync.Mutex
	seedAttempted bool

	mu       sync.RWMutex
	podcasts []models.Podcast
	loaded   bool

	// cacheMu orders cache writes against invalidations. cacheEpoch moves on
	// every invalidation so a snapshot read before it is never written back.
	cacheMu    sync.Mutex
	cacheEpoch atomic.Uint64

	subMu   sync.Mutex
	subs    map[int]func([]models.Podcast)
	nextSub int

	unsubscribe func()
}

type Option func(*Store)

func WithCache(c ListCache) Option { return func(s *Store) { s.cache = c } }

func WithBroker(b messaging.Broker) Option { return func(s *Store) { s.broker = b } }

func WithCategorizer(c Categorizer) Option { return func(s *Store) { s.categorizer = c } }

func WithDefaults(defaults []models.Podcast) Option {
	return func(s *Store) { s.defaults = defaults }
}

func WithSeeding(enabled bool) Option { return func(s *Store) { s.seedEnabled = enabled } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithRandom replaces the source used to pick poster avatar seeds.
func WithRandom(intn func(n int) int) Option { return func(s *Store) { s.intn = intn } }

func New(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		defaults:    models.DefaultPodcasts(),
		seedEnabled: true,
		log:         slog.Default(),
		now:         time.Now,
		intn:        rand.IntN,
		subs:        make(map[int]func([]models.Podcast)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.broker == nil {
		s.broker = messaging.NewLocalBroker()
	}
	return s
}

// Start subscribes to change events and loads the first snapshot.
func (s *Store) Start(ctx context.Context) error {
	unsubscribe, err := s.broker.Subscribe(func(evt messaging.Event) {
		if err := s.Refresh(context.Background()); err != nil {
			s.log.Error("failed to refresh podcasts", "event", evt.Type, "podcast_id", evt.PodcastID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to podcast events: %w", err)
	}
	s.unsubscribe = unsubscribe
	return s.Refresh(ctx)
}

func (s *Store) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Refresh re-reads the collection. The first time an empty collection is
// observed, the default set is seeded once.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()

	podcasts, err := s.load(ctx)
	if err != nil {
		s.refreshMu.Unlock()
		return err
	}

	seeded := 0
	if len(podcasts) == 0 && s.seedEnabled && !s.seedAttempted {
		s.seedAttempted = true
		n, err := s.repo.SeedIfEmpty(ctx, s.defaults)
		if err != nil {
			s.log.Error("failed to seed podcasts", "error", err)
		} else {
			// another replica may have seeded first; re-read either way
			seeded = n
			s.invalidateCache(ctx)
			if podcasts, err = s.load(ctx); err != nil {
				s.refreshMu.Unlock()
				return err
			}
		}
	}

	s.mu.Lock()
	s.podcasts = podcasts
	s.loaded = true
	s.mu.Unlock()
	s.refreshMu.Unlock()

	s.notify(podcasts)

	if seeded > 0 {
		s.log.Info("seeded default podcasts", "count", seeded)
		s.publish(ctx, messaging.EventSeeded, "")
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]models.Podcast, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("podcast cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	epoch := s.cacheEpoch.Load()
	podcasts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.storeSnapshot(ctx, epoch, podcasts)
	}
	return podcasts, nil
}

// storeSnapshot writes podcasts to the cache unless an invalidation happened
// after they were read.
func (s *Store) storeSnapshot(ctx context.Context, epoch uint64, podcasts []models.Podcast) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheEpoch.Load() != epoch {
		s.log.Debug("skipping stale podcast cache write")
		return
	}
	if err := s.cache.Set(ctx, podcasts); err != nil {
		s.log.Warn("podcast cache write failed", "error", err)
	}
}

// Loaded reports whether at least one refresh has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Podcasts returns a copy of the mirrored collection in collection order.
func (s *Store) Podcasts() []models.Podcast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.podcasts)
}

func (s *Store) Get(id string) (models.Podcast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.podcasts {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Podcast{}, false
}

// Add sends the full record to the repository. The mirror picks it up on the
// refresh triggered by the change event.
func (s *Store) Add(ctx context.Context, p models.Podcast) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: id, title and description are required", ErrValidation)
	}
	if p.Likes < 0 || p.Comments < 0 || p.Participants < 0 {
		return fmt.Errorf("%w: counters must be >= 0", ErrValidation)
	}
	p.Tags = models.NormalizeTags(p.Tags)

	if err := s.repo.Create(ctx, &p); err != nil {
		s.log.Error("failed to create podcast", "podcast_id", p.ID, "error", err)
		return err
	}
	s.changed(ctx, messaging.EventCreated, p.ID)
	return nil
}

// Update merges u into the stored record and returns the stored result.
func (s *Store) Update(ctx context.Context, id string, u models.PodcastUpdate) (models.Podcast, error) {
	if err := u.Validate(); err != nil {
		return models.Podcast{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p, err := s.repo.Update(ctx, id, u)
	if err != nil {
		s.log.Error("failed to update podcast", "podcast_id", id, "error", err)
		return models.Podcast{}, err
	}
	s.changed(ctx, messaging.EventUpdated, id)
	return p.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete podcast", "podcast_id", id, "error", err)
		return err
	}
	s.changed(ctx, messaging.EventDeleted, id)
	return nil
}

func (s *Store) Like(ctx context.Context, id string) error {
	if err := s.repo.IncrementLikes(ctx, id); err != nil {
		s.log.Error("failed to like podcast", "podcast_id", id, "error", err)
		return err
	}
	s.changed(ctx, messaging.EventLiked, id)
	return nil
}

// Unlike is a no-op when the mirrored record already has zero likes.
func (s *Store) Unlike(ctx context.Context, id string) error {
	p, ok := s.Get(id)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
		s.log.Error("failed to unlike podcast", "podcast_id", id, "error", err)
		return err
	}
	if p.Likes <= 0 {
		return nil
	}
	if err := s.repo.DecrementLikes(ctx, id); err != nil {
		s.log.Error("failed to unlike podcast", "podcast_id", id, "error", err)
		return err
	}
	s.changed(ctx, messaging.EventUnliked, id)
	return nil
}

func (s *Store) AddComment(ctx context.Context, id string) error {
	if err := s.repo.IncrementComments(ctx, id); err != nil {
		s.log.Error("failed to add comment", "podcast_id", id, "error", err)
		return err
	}
	s.changed(ctx, messaging.EventCommented, id)
	return nil
}

// Search matches query case-insensitively against title, description, host and
// category. A blank query returns the whole collection.
func (s *Store) Search(query string) []models.Podcast {
	all := s.Podcasts()
	if strings.TrimSpace(query) == "" {
		return all
	}

	q := strings.ToLower(query)
	out := make([]models.Podcast, 0, len(all))
	for _, p := range all {
		if Matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p matches an already lower-cased query.
func Matches(p models.Podcast, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(p.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Description), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Host), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Category), lowerQuery)
}

// Subscribe registers fn for every new snapshot. The returned func cancels it.
func (s *Store) Subscribe(fn func([]models.Podcast)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(podcasts []models.Podcast) {
	s.subMu.Lock()
	fns := make([]func([]models.Podcast), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(cloneAll(podcasts))
	}
}

func (s *Store) changed(ctx context.Context, t messaging.EventType, id string) {
	s.invalidateCache(ctx)
	s.publish(ctx, t, id)
}

func (s *Store) invalidateCache(ctx context.Context) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheEpoch.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("podcast cache invalidate failed", "error", err)
	}
}

func (s *Store) publish(ctx context.Context, t messaging.EventType, id string) {
	if err := s.broker.Publish(ctx, messaging.NewEvent(t, id)); err != nil {
		s.log.Error("failed to publish podcast event", "event", t, "podcast_id", id, "error", err)
	}
}

func cloneAll(podcasts []models.Podcast) []models.Podcast {
	out := make([]models.Podcast, len(podcasts))
	for i, p := range podcasts {
		out[i] = p.Clone()
	}
	return out
}

// IsNotFound is a convenience for handlers.
func IsNotFound(err error) bool { return errors.Is(err, ErrPodcastNotFound) }
