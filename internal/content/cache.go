package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// candidateCacheKey is the Redis key holding the serialized candidate pool.
const candidateCacheKey = "adaptivefeed:candidates"

// DefaultCacheTTL is how long a cached candidate pool stays fresh.
const DefaultCacheTTL = 30 * time.Second

// Cache provides a Redis-backed cache-aside layer over the candidate pool.
// Ranking is cheap relative to the repository query, so only the pool itself
// is cached; scores are always computed per request.
type Cache struct {
	client *redis.Client
	repo   Repository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a candidate pool cache backed by the given Redis client
// and repository. A zero ttl falls back to DefaultCacheTTL.
func NewCache(client *redis.Client, repo Repository, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client: client,
		repo:   repo,
		ttl:    ttl,
		logger: logger,
	}
}

// Candidates returns the ranking candidate pool, serving from Redis when a
// fresh copy exists and falling back to the repository otherwise. Cache
// failures degrade to a direct repository read rather than failing the request.
func (c *Cache) Candidates(ctx context.Context, limit int) ([]*Item, error) {
	if c.client != nil {
		data, err := c.client.Get(ctx, candidateCacheKey).Bytes()
		if err == nil {
			var items []*Item
			if err := json.Unmarshal(data, &items); err == nil {
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
				return items, nil
			}
			c.logger.Warn("discarding corrupt candidate cache entry", "error", err)
		} else if err != redis.Nil {
			c.logger.Warn("candidate cache read failed", "error", err)
		}
	}

	items, err := c.repo.ListCandidates(0)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}

	c.store(ctx, items)

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Invalidate drops the cached candidate pool. Called when the trending job
// or ingest pipeline changes the pool.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, candidateCacheKey).Err(); err != nil {
		c.logger.Warn("candidate cache invalidation failed", "error", err)
	}
}

// store writes the candidate pool back to Redis. Best effort.
func (c *Cache) store(ctx context.Context, items []*Item) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Warn("failed to serialize candidate pool for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, candidateCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("candidate cache write failed", "error", err)
	}
}
