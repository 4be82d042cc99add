// Package cache provides a bounded in-memory key/value store with per-entry
// TTLs and least-recently-used eviction. It is purely an optimization layer:
// clearing it at any time must not change the correctness of any caller.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is a size- and TTL-bounded store safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	items      map[string]*list.Element
}

// New creates a cache holding at most maxEntries values. A non-positive limit
// falls back to a single entry.
func New[V any](maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[V]{
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get returns the value for key. An entry past its TTL is treated as a miss
// and purged on the spot.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := elem.Value.(*entry[V])
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.ll.MoveToFront(elem)
	return ent.value, true
}

// Set stores the value under key for the given TTL, evicting the least
// recently used entry when the cache is full.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(elem)
		return
	}

	elem := c.ll.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	for c.ll.Len() > c.maxEntries {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// InvalidatePattern drops every entry whose key contains the substring and
// returns how many were removed.
func (c *Cache[V]) InvalidatePattern(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.items {
		if strings.Contains(key, substr) {
			c.removeElement(elem)
			removed++
		}
	}
	return removed
}

// Clear empties the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[V]) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry[V])
	c.ll.Remove(elem)
	delete(c.items, ent.key)
}
