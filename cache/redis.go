package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

const podcastListKey = "podcasts:all"

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	slog.Info("Redis connected", "addr", addr)
	return client, nil
}

// PodcastCache stores the whole collection snapshot as one JSON value.
type PodcastCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPodcastCache(client *redis.Client, ttl time.Duration) *PodcastCache {
	return &PodcastCache{client: client, ttl: ttl}
}

// Get returns ok=false when nothing is cached.
func (c *PodcastCache) Get(ctx context.Context) ([]models.Podcast, bool, error) {
	raw, err := c.client.Get(ctx, podcastListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", podcastListKey, err)
	}

	var podcasts []models.Podcast
	if err := json.Unmarshal(raw, &podcasts); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", podcastListKey, err)
	}
	return podcasts, true, nil
}

func (c *PodcastCache) Set(ctx context.Context, podcasts []models.Podcast) error {
	raw, err := json.Marshal(podcasts)
	if err != nil {
		return fmt.Errorf("encode podcasts: %w", err)
	}
	return c.client.Set(ctx, podcastListKey, raw, c.ttl).Err()
}

func (c *PodcastCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, podcastListKey).Err()
}
