package enrich

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mediaradar/catalogservice/internal/domain"
	"mediaradar/catalogservice/internal/metrics"
)

const (
	defaultCacheTTL        = 24 * time.Hour
	defaultCacheMaxEntries = 1000
)

// CacheBackend is an optional second cache tier shared across processes.
type CacheBackend interface {
	Get(ctx context.Context, key string) (domain.MediaDetails, bool, error)
	Set(ctx context.Context, key string, details domain.MediaDetails, ttl time.Duration) error
}

func cacheKey(title string, year int, kind domain.MediaKind) string {
	return fmt.Sprintf("%s_%d_%s", title, year, kind)
}

type cachedDetails struct {
	details   domain.MediaDetails
	updatedAt time.Time
	expiresAt time.Time
}

// detailsCache holds resolved media details for the life of the process,
// capped so a huge catalog cannot grow it without bound. An optional
// backend tier survives restarts.
type detailsCache struct {
	mu         sync.Mutex
	entries    map[string]*cachedDetails
	ttl        time.Duration
	maxEntries int
	backend    CacheBackend
}

func newDetailsCache(ttl time.Duration, maxEntries int, backend CacheBackend) *detailsCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &detailsCache{
		entries:    make(map[string]*cachedDetails),
		ttl:        ttl,
		maxEntries: maxEntries,
		backend:    backend,
	}
}

func (c *detailsCache) lookup(ctx context.Context, key string, now time.Time) (domain.MediaDetails, bool) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && now.Before(entry.expiresAt) {
		details := entry.details
		c.mu.Unlock()
		metrics.EnrichCacheHitsTotal.Inc()
		return details, true
	}
	c.mu.Unlock()

	if c.backend != nil {
		if details, found, err := c.backend.Get(ctx, key); err == nil && found {
			metrics.EnrichCacheHitsTotal.Inc()
			c.storeMemory(key, details, now)
			return details, true
		}
	}

	metrics.EnrichCacheMissesTotal.Inc()
	return domain.MediaDetails{}, false
}

func (c *detailsCache) store(ctx context.Context, key string, details domain.MediaDetails, now time.Time) {
	if c.backend != nil {
		_ = c.backend.Set(ctx, key, details, c.ttl)
	}
	c.storeMemory(key, details, now)
}

func (c *detailsCache) storeMemory(key string, details domain.MediaDetails, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cachedDetails{
		details:   details,
		updatedAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.trimLocked(now)
}

func (c *detailsCache) trimLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cachedDetails
	}
	items := make([]pair, 0, len(c.entries))
	for key, entry := range c.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-c.maxEntries; i++ {
		delete(c.entries, items[i].key)
	}
}

func (c *detailsCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
