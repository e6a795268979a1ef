package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "governance:cache:"

// VotingStatsKey caches the aggregate voting statistics.
const VotingStatsKey = "voting_stats"

// Cache stores JSON encoded values with a TTL. Concurrent misses for the same key
// share a single load. Redis failures degrade to loading directly.
type Cache struct {
	client rueidis.Client
	group  singleflight.Group
	logger *zap.Logger
}

// NewCache creates a cache on the given client.
func NewCache(client rueidis.Client, logger *zap.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger.Named("redis_cache"),
	}
}

// GetOrLoad returns the cached value for key or calls load and caches its result for ttl.
// A zero ttl bypasses the cache.
func GetOrLoad[T any](
	ctx context.Context, c *Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error),
) (T, error) {
	if ttl <= 0 {
		return load(ctx)
	}

	fullKey := cacheKeyPrefix + key

	var cached T
	hit, err := c.get(ctx, fullKey, &cached)
	if err != nil {
		c.logger.Warn("Failed to read cache entry", zap.Error(err), zap.String("key", key))
	} else if hit {
		return cached, nil
	}

	v, err, _ := c.group.Do(fullKey, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.set(ctx, fullKey, value, ttl); err != nil {
			c.logger.Warn("Failed to write cache entry", zap.Error(err), zap.String("key", key))
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

// Invalidate removes the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = cacheKeyPrefix + key
	}

	if err := c.client.Do(ctx, c.client.B().Del().Key(fullKeys...).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := sonic.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	cmd := c.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Px(ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}
