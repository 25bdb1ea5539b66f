// Package cache holds the process-local map from event id to the last
// scheduled instant the reconciler settled on. It is the fast first tier of
// the old-date lookup; the notified-state collection remains authoritative,
// so a cold or stale cache is safe, only slower.
package cache

import (
	"sync"
	"time"
)

// Cache maps event ids to their last-known scheduled instant. The engine is
// the only writer, but the manual trigger can run concurrently with the
// listener, so access is mutex-guarded.
type Cache struct {
	mu    sync.Mutex
	dates map[string]time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{dates: make(map[string]time.Time)}
}

// Get returns the cached instant for an event id.
func (c *Cache) Get(id string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.dates[id]
	return ts, ok
}

// Put upserts the cached instant for an event id.
func (c *Cache) Put(id string, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dates[id] = ts
}

// Delete drops the entry for an event id. Deleting an absent id is a no-op.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dates, id)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dates)
}
