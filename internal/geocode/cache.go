package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/skillmatch/internal/geo"
)

// Cache defaults.
const (
	DefaultCacheSize = 4096
	DefaultCacheTTL  = 7 * 24 * time.Hour
	redisKeyPrefix   = "geocode:"
)

// LRUCache is the bounded in-process tier. Safe for concurrent use.
type LRUCache struct {
	cache *lru.Cache[string, geo.Coordinate]
}

// NewLRUCache creates an LRU tier holding at most size entries.
// A non-positive size uses DefaultCacheSize.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, geo.Coordinate](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUCache{cache: c}, nil
}

// Get returns the cached coordinate for key.
func (c *LRUCache) Get(key string) (geo.Coordinate, bool) {
	return c.cache.Get(key)
}

// Add stores a coordinate, evicting the least recently used entry when full.
func (c *LRUCache) Add(key string, coord geo.Coordinate) {
	c.cache.Add(key, coord)
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// SharedCache is an optional cross-instance tier.
type SharedCache interface {
	Get(ctx context.Context, key string) (geo.Coordinate, bool, error)
	Set(ctx context.Context, key string, coord geo.Coordinate) error
}

// RedisCache stores coordinates as JSON under "geocode:<key>" with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed shared tier. A non-positive ttl uses
// DefaultCacheTTL.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the stored coordinate. A missing key is (zero, false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) (geo.Coordinate, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return geo.Coordinate{}, false, nil
	}
	if err != nil {
		return geo.Coordinate{}, false, fmt.Errorf("redis get: %w", err)
	}

	var coord geo.Coordinate
	if err := json.Unmarshal(raw, &coord); err != nil {
		return geo.Coordinate{}, false, fmt.Errorf("decode cached coordinate: %w", err)
	}
	return coord, true, nil
}

// Set stores a coordinate with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, coord geo.Coordinate) error {
	raw, err := json.Marshal(coord)
	if err != nil {
		return fmt.Errorf("encode coordinate: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
