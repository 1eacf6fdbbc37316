package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

type entry struct {
	bag       *simplemeta.Bag
	expiresAt time.Time
}

// Cache is an in-memory implementation of the simplemeta.Cache interface
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// Option configures the cache
type Option func(*Cache)

// WithClock replaces the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a new in-memory cache
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached bag. Expired entries are misses.
func (c *Cache) Get(ctx context.Context, key string) (*simplemeta.Bag, bool, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// the entry may have been replaced since the read lock was released
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.bag.Clone(), true, nil
}

// Set stores a copy of bag. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, bag *simplemeta.Bag, ttl time.Duration) error {
	e := entry{bag: bag.Clone()}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

// Delete removes a cached bag
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len reports the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
