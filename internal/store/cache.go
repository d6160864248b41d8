package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListCache is a read-through projection of the faculty listing. The database
// stays the source of truth; every mutation must call Invalidate.
type ListCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewListCache builds a cache over the given redis client. A nil client
// yields a cache that always misses.
func NewListCache(r *Redis, key string, ttl time.Duration) *ListCache {
	if key == "" {
		key = "nodue:students:list"
	}
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &ListCache{client: client, key: key, ttl: ttl}
}

// Get returns the cached listing payload, or nil on miss or error.
func (c *ListCache) Get(ctx context.Context) []byte {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		return nil
	}
	return data
}

// Set stores the listing payload. Errors are ignored; the cache is best-effort.
func (c *ListCache) Set(ctx context.Context, data []byte) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, c.key, data, c.ttl).Err()
}

// Invalidate drops the cached listing.
func (c *ListCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, c.key).Err()
}
