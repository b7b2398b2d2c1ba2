package cloud

import (
	"context"
	"sync"
	"time"
)

// Cache is a TTL cache with per-key refresh locking.
//
// Get serves the cached value while fresh. On expiry it takes the key's
// lock, re-checks expiry (a concurrent caller may have refreshed while
// this one waited), and only then invokes the fetch function. One refresh
// per key runs at a time; independent keys refresh in parallel.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	mu     sync.Mutex
	value  any
	expiry time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the cached value for key, refreshing it via fetch when
// expired. Fetch failures propagate unmodified and leave any stale value
// in place for the next attempt.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if time.Now().Before(entry.expiry) {
		return entry.value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	entry.value = value
	entry.expiry = time.Now().Add(ttl)
	return value, nil
}

// Invalidate drops the cached value for key so the next Get refetches.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	entry.value = nil
	entry.expiry = time.Time{}
	entry.mu.Unlock()
}
