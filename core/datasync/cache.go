package datasync

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = 300000 * time.Millisecond

// Entry is one cached snapshot of a remote collection.
type Entry[T any] struct {
	// Data is the last known-good result of the fetch.
	Data []T

	// FetchedAt is when the fetch that produced Data completed.
	FetchedAt time.Time
}

// Cache holds the last known-good snapshot per key and answers freshness
// queries against a fixed TTL. It performs no I/O.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache. A zero ttl uses DefaultTTL; a nil clock uses time.Now.
func NewCache[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		now:     now,
	}
}

// TTL returns the freshness window.
func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// Get returns the snapshot for key, if any.
func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	return Entry[T]{Data: slices.Clone(e.Data), FetchedAt: e.FetchedAt}, true
}

// Put stores data under key stamped with the current time.
func (c *Cache[T]) Put(key string, data []T) {
	c.mu.Lock()
	c.entries[key] = Entry[T]{Data: slices.Clone(data), FetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops the snapshot for key so the next freshness check fails.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// IsFresh reports whether key holds a snapshot younger than the TTL.
func (c *Cache[T]) IsFresh(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return c.now().Sub(e.FetchedAt) < c.ttl
}

// Clear drops every snapshot.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry[T])
	c.mu.Unlock()
}

// Keys returns the cached keys in sorted order.
func (c *Cache[T]) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
