package pricing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Cache is a short-TTL store for recommendations keyed by
// (supplier ref, stay range, strategy). Misses are never errors.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.PriceRecommendation, bool)
	Set(ctx context.Context, key string, rec *domain.PriceRecommendation)
}

// MemoryCache is the in-process fallback when Redis is not configured
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	rec       *domain.PriceRecommendation
	expiresAt time.Time
}

// NewMemoryCache creates an in-process TTL cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a cached recommendation if present and fresh
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.PriceRecommendation, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.rec, true
}

// Set stores a recommendation, expiring stale siblings opportunistically
func (c *MemoryCache) Set(_ context.Context, key string, rec *domain.PriceRecommendation) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{rec: rec, expiresAt: now.Add(c.ttl)}
}

// RedisCache stores recommendations as JSON values with a server-side TTL
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisCache creates a Redis-backed recommendation cache
func NewRedisCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("cache", "recommendation").Logger(),
	}
}

// Get returns a cached recommendation. Redis errors count as misses.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.PriceRecommendation, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var rec domain.PriceRecommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return &rec, true
}

// Set stores a recommendation. Failures are logged, never propagated.
func (c *RedisCache) Set(ctx context.Context, key string, rec *domain.PriceRecommendation) {
	raw, err := json.Marshal(rec)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to encode recommendation")
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache recommendation")
	}
}
