package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds the in-process LRU so a run over a huge
// repository cannot grow memory without limit.
const DefaultMemoryEntries = 1024

// MemoryCache is a bounded in-process LRU cache with per-entry TTL.
// It is used directly in tests and as the default backend when no cache
// directory is configured.
type MemoryCache struct {
	lru *lru.LRU[string, []byte]
}

// NewMemoryCache creates an in-memory cache holding at most maxEntries
// items. A non-positive maxEntries falls back to DefaultMemoryEntries.
// The ttl applies uniformly to all entries; zero disables expiry.
func NewMemoryCache(maxEntries int, ttl time.Duration) Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &MemoryCache{lru: lru.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value. The per-call ttl is ignored; the LRU applies the
// cache-wide TTL chosen at construction.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.lru.Add(key, data)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Close does nothing for memory cache.
func (c *MemoryCache) Close() error {
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
