// Package viewcache provides a small keyed cache for page data.
//
// Mutating form actions invalidate the keys of the views that display the
// affected entity, so the next page load refetches. A short TTL bounds
// staleness for anything an action forgets to invalidate.
package viewcache

import (
	"strings"
	"sync"
	"time"
)

// Well-known view keys, one per page that caches its data.
const (
	ViewCRM       = "/crm"
	ViewAgenda    = "/agenda"
	ViewAnalytics = "/analitica"
)

type entry struct {
	value   any
	expires time.Time
}

// Cache is a TTL cache with explicit invalidation.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

// New creates a cache whose entries live at most ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// GetOr returns the cached value for key, or runs loader, caches its result
// and returns it. A loader error is returned uncached.
func (c *Cache) GetOr(key string, loader func() (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := loader()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops every entry whose key matches or is nested under one of
// the given view paths, mirroring path-based revalidation: invalidating
// "/crm" drops "/crm/citizens" and "/crm/stats" alike.
func (c *Cache) Invalidate(views ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, view := range views {
		for key := range c.entries {
			if key == view || strings.HasPrefix(key, view+"/") {
				delete(c.entries, key)
			}
		}
	}
}
