// Package cache is a small in-memory TTL cache, used to shield the public
// client search from repeated identical queries.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory cache with per-entry TTL.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
}

// New creates a new cache
func New[T any]() *Cache[T] {
	return &Cache[T]{items: map[string]entry[T]{}}
}

// Set stores a value with a given TTL
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[T]{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get retrieves a value if it hasn't expired
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.items[key]
	if !exists || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Delete removes a key
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]entry[T]{}
}
