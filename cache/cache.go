package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"GuildFM/logger"
	"GuildFM/model"

	"golang.org/x/sync/singleflight"
)

// Tier names one metadata cache tier.
type Tier string

const (
	TierSpotify  Tier = "spotify"  // provider metadata
	TierYouTube  Tier = "youtube"  // search match results
	TierLavalink Tier = "lavalink" // node track resolution
)

// Entry is one cached payload with its write time.
type Entry struct {
	Payload []byte    `json:"payload"`
	Updated time.Time `json:"updated"`
}

// Store is the persistence behind the cache tiers.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	// Sweep removes entries last updated before the cutoff and returns how
	// many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// FetchFunc produces the payload on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Cache fronts the provider adapters with independently toggleable tiers.
// A disabled tier always calls through. Concurrent identical queries are
// collapsed into a single upstream fetch.
type Cache struct {
	mu     sync.RWMutex
	store  Store
	level  model.CacheLevel
	maxAge time.Duration

	group singleflight.Group
}

// New creates a cache over the given store. The store handle is explicit
// and can be swapped via SetStore with a defined lifecycle.
func New(store Store, level model.CacheLevel, maxAge time.Duration) *Cache {
	return &Cache{
		store:  store,
		level:  level,
		maxAge: maxAge,
	}
}

// SetStore swaps the backing store, e.g. when reconnecting Redis.
func (c *Cache) SetStore(store Store) {
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
}

// SetLevel changes which tiers are enabled.
func (c *Cache) SetLevel(level model.CacheLevel) {
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
}

// enabled reports whether a tier is switched on by the current level.
func (c *Cache) enabled(tier Tier) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch tier {
	case TierSpotify:
		return c.level.Spotify()
	case TierYouTube:
		return c.level.YouTube()
	case TierLavalink:
		return c.level.Lavalink()
	default:
		return false
	}
}

// NormalizeQuery canonicalizes a query string for use as a cache key.
func NormalizeQuery(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
}

func key(tier Tier, normalized string) string {
	return "cache:" + string(tier) + ":" + normalized
}

// GetOrFetch returns the cached payload for (tier, query) or runs fetch.
// The second return reports whether the payload came from cache. Stale
// hits are served; age-based eviction is storage reclamation only.
func (c *Cache) GetOrFetch(ctx context.Context, tier Tier, rawQuery string, fetch FetchFunc) ([]byte, bool, error) {
	if !c.enabled(tier) {
		payload, err := fetch(ctx)
		return payload, false, err
	}

	normalized := NormalizeQuery(rawQuery)
	cacheKey := key(tier, normalized)

	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()

	if entry, err := store.Get(ctx, cacheKey); err != nil {
		logger.Warn("cache read failed, calling through",
			logger.String("tier", string(tier)), logger.ErrorField(err))
	} else if entry != nil {
		return entry.Payload, true, nil
	}

	// Collapse concurrent identical misses into one upstream call.
	payload, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		if entry, err := store.Get(ctx, cacheKey); err == nil && entry != nil {
			return entry.Payload, nil
		}
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := store.Set(ctx, cacheKey, &Entry{Payload: fetched, Updated: time.Now()}); err != nil {
			logger.Warn("cache write failed",
				logger.String("tier", string(tier)), logger.ErrorField(err))
		}
		return fetched, nil
	})
	if err != nil {
		return nil, false, err
	}
	return payload.([]byte), false, nil
}

// Sweep removes entries older than the configured max age.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	c.mu.RLock()
	store := c.store
	maxAge := c.maxAge
	c.mu.RUnlock()

	return store.Sweep(ctx, time.Now().Add(-maxAge))
}
