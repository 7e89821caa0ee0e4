package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	stored time.Time
}

// Cache holds values for a fixed TTL. When maxEntries is positive the oldest
// entry is evicted to make room for a new key.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache; maxEntries <= 0 means unbounded
func New[K comparable, V any](ttl time.Duration, maxEntries int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the value for key, evicting it if it has expired
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.Delete(key)
		return zero, false
	}
	return e.value, true
}

// Touch resets the age of a live entry. It reports false for missing or expired keys.
func (c *Cache[K, V]) Touch(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.expired(e) {
		delete(c.entries, key)
		return false
	}
	e.stored = c.now()
	c.entries[key] = e
	return true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.pruneLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry[V]{value: value, stored: c.now()}
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Prune drops every expired entry and returns how many were removed
func (c *Cache[K, V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked()
}

// Len counts stored entries, including expired ones not yet pruned
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.stored) > c.ttl
}

func (c *Cache[K, V]) pruneLocked() int {
	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache[K, V]) evictOldestLocked() {
	var (
		oldestKey K
		oldest    time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.stored.Before(oldest) {
			oldestKey, oldest, found = k, e.stored, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
