package session

import (
	"context"
	"sync"
	"time"
)

// RefreshMargin is how long before expiry cached details stop being reused.
const RefreshMargin = 30 * time.Second

type DetailsFetcher interface {
	FetchConnectionDetails(ctx context.Context, podcastID string) (ConnectionDetails, error)
}

// CredentialsCache keeps the last connection details for one podcast.
type CredentialsCache struct {
	fetcher   DetailsFetcher
	podcastID string
	now       func() time.Time

	mu      sync.Mutex
	details ConnectionDetails
	valid   bool
}

func NewCredentialsCache(fetcher DetailsFetcher, podcastID string) *CredentialsCache {
	return &CredentialsCache{fetcher: fetcher, podcastID: podcastID, now: time.Now}
}

// ExistingOrRefresh returns the cached details unless they were invalidated or
// expire within RefreshMargin.
func (c *CredentialsCache) ExistingOrRefresh(ctx context.Context) (ConnectionDetails, error) {
	c.mu.Lock()
	if c.valid && c.now().Add(RefreshMargin).Before(c.details.ExpiresAt) {
		d := c.details
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh always fetches new details and caches them.
func (c *CredentialsCache) Refresh(ctx context.Context) (ConnectionDetails, error) {
	d, err := c.fetcher.FetchConnectionDetails(ctx, c.podcastID)
	if err != nil {
		return ConnectionDetails{}, err
	}
	c.mu.Lock()
	c.details = d
	c.valid = true
	c.mu.Unlock()
	return d, nil
}

// Invalidate forces the next ExistingOrRefresh to fetch.
func (c *CredentialsCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
