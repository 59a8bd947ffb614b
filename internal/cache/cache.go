// Package cache is a typed TTL cache over patrickmn/go-cache.
package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores values of type V under comparable keys. Keys are rendered with
// fmt so types implementing fmt.Stringer (common.Address) key by their string form.
type Cache[K comparable, V any] struct {
	store *gocache.Cache
}

// New creates a cache whose expired entries are swept every cleanupInterval.
func New[K comparable, V any](cleanupInterval time.Duration) *Cache[K, V] {
	return &Cache[K, V]{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Get returns the value for key when present and not expired.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	v, ok := c.store.Get(keyOf(key))
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value for ttl. A ttl <= 0 keeps the entry until deleted.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(keyOf(key), value, ttl)
}

// Delete removes key.
func (c *Cache[K, V]) Delete(_ context.Context, key K) {
	c.store.Delete(keyOf(key))
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *Cache[K, V]) Len() int {
	return c.store.ItemCount()
}

// Close drops every entry.
func (c *Cache[K, V]) Close() {
	c.store.Flush()
}

func keyOf[K comparable](key K) string {
	return fmt.Sprint(key)
}
