package scope

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mewshq/mews/internal/location"
)

// DefaultSetCacheTTL bounds how long a resolved location set is served from
// cache. The tree changes rarely, but a short TTL keeps a rebuild or import
// from being masked for long.
const DefaultSetCacheTTL = 5 * time.Minute

// setCacheKeyPrefix namespaces the cache keys.
const setCacheKeyPrefix = "scope:set:"

// CachedSetResolver wraps a LocationSetResolver with a Redis cache keyed by
// target location id. Redis failures fail open to the underlying resolver:
// caching is an optimization, never a correctness dependency.
type CachedSetResolver struct {
	inner   LocationSetResolver
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// NewCachedSetResolver creates a CachedSetResolver. A zero ttl uses
// DefaultSetCacheTTL. metrics may be nil.
func NewCachedSetResolver(inner LocationSetResolver, client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *Metrics) *CachedSetResolver {
	if ttl <= 0 {
		ttl = DefaultSetCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSetResolver{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// ResolveSet returns the cached set for the target if present, otherwise
// resolves through the underlying resolver and caches the result.
func (c *CachedSetResolver) ResolveSet(ctx context.Context, target *location.Location) ([]string, error) {
	key := setCacheKeyPrefix + target.ID

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var ids []string
		if err := json.Unmarshal([]byte(cached), &ids); err == nil {
			if c.metrics != nil {
				c.metrics.CacheHit()
			}
			return ids, nil
		}
		// Corrupt entry: drop it and fall through to a fresh resolution.
		c.logger.WarnContext(ctx, "corrupt location-set cache entry", "key", key)
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		if c.metrics != nil {
			c.metrics.CacheError()
		}
		c.logger.WarnContext(ctx, "location-set cache read failed, falling through",
			"key", key, "error", err)
	} else if c.metrics != nil {
		c.metrics.CacheMiss()
	}

	ids, err := c.inner.ResolveSet(ctx, target)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(ids); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			if c.metrics != nil {
				c.metrics.CacheError()
			}
			c.logger.WarnContext(ctx, "location-set cache write failed",
				"key", key, "error", err)
		}
	}
	return ids, nil
}

// Invalidate removes the cached set for a location id. Called after tree
// mutations such as an ancestor rebuild or a bulk import.
func (c *CachedSetResolver) Invalidate(ctx context.Context, locationID string) {
	if err := c.client.Del(ctx, setCacheKeyPrefix+locationID).Err(); err != nil {
		c.logger.WarnContext(ctx, "location-set cache invalidation failed",
			"location_id", locationID, "error", err)
	}
}
