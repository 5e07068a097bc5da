// internal/adapters/orgcache/cache.go
package orgcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sante-search/internal/common/database"
	"sante-search/internal/common/logger"
)

// Address is the resolved location of a parent organization, used by the
// geographic refinement pass.
type Address struct {
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// Loader resolves an organization reference against the backing directory
// when the cache misses.
type Loader func(ctx context.Context, orgRef string) (*Address, error)

// Cache is a Redis-first organization address lookup. Cache problems degrade
// to the loader; they never fail a request.
type Cache struct {
	redis  *database.RedisClient
	loader Loader
	ttl    time.Duration
	logger logger.Logger
}

func New(rdb *database.RedisClient, loader Loader, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{redis: rdb, loader: loader, ttl: ttl, logger: log}
}

func key(orgRef string) string {
	return fmt.Sprintf("org:addr:%s", orgRef)
}

// Address returns the organization's address, from Redis when present,
// otherwise from the loader with a write-back.
func (c *Cache) Address(ctx context.Context, orgRef string) (*Address, error) {
	if orgRef == "" {
		return nil, fmt.Errorf("empty organization reference")
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key(orgRef))
		switch {
		case err == nil:
			var addr Address
			if jsonErr := json.Unmarshal([]byte(raw), &addr); jsonErr == nil {
				return &addr, nil
			}
			// Corrupt entry: drop it and reload.
			_ = c.redis.Del(ctx, key(orgRef))
		case err != redis.Nil:
			c.logger.Warn("organization cache unavailable", map[string]interface{}{
				"orgRef": orgRef,
				"error":  err.Error(),
			})
		}
	}

	addr, err := c.loader(ctx, orgRef)
	if err != nil {
		return nil, err
	}

	if c.redis != nil && addr != nil {
		if data, jsonErr := json.Marshal(addr); jsonErr == nil {
			if setErr := c.redis.Set(ctx, key(orgRef), string(data), c.ttl); setErr != nil {
				c.logger.Warn("organization cache write failed", map[string]interface{}{
					"orgRef": orgRef,
					"error":  setErr.Error(),
				})
			}
		}
	}
	return addr, nil
}
