// Package settings provides a read-through TTL cache in front of the
// settings repository. The reply pipeline hits it on every analyze call, so
// repeated questions within the TTL cost no database round trip.
package settings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

type cacheEntry struct {
	settings domain.Settings
	loadedAt time.Time
}

// Cache implements domain.SettingsProvider. Concurrent misses for the same
// user are collapsed into a single repository load via singleflight.
type Cache struct {
	repo  domain.SettingsRepository
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[uuid.UUID]cacheEntry
	group   singleflight.Group
}

func NewCache(repo domain.SettingsRepository, ttl time.Duration, clock clockwork.Clock) *Cache {
	return &Cache{
		repo:    repo,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[uuid.UUID]cacheEntry),
	}
}

func (c *Cache) Get(ctx context.Context, userID uuid.UUID) (domain.Settings, error) {
	c.mu.Lock()
	entry, ok := c.entries[userID]
	fresh := ok && c.clock.Since(entry.loadedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		return entry.settings, nil
	}

	result, err, _ := c.group.Do(userID.String(), func() (any, error) {
		loaded, err := c.repo.Get(ctx, userID)
		if err != nil {
			return domain.Settings{}, err
		}
		c.mu.Lock()
		c.entries[userID] = cacheEntry{settings: loaded, loadedAt: c.clock.Now()}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return result.(domain.Settings), nil
}

// Invalidate drops the cached entry; the next Get reloads from the
// repository. Called after a settings update.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
