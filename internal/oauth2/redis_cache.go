package oauth2

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/utils"
)

// RedisTokenCache shares tokens between gateway instances
type RedisTokenCache struct {
	client *goredis.Client
	prefix string
	clock  utils.Clock
}

// NewRedisTokenCache creates a Redis-backed cache with the "usps:token:" prefix
func NewRedisTokenCache(client *goredis.Client, clock utils.Clock) *RedisTokenCache {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &RedisTokenCache{
		client: client,
		prefix: "usps:token:",
		clock:  clock,
	}
}

// Get loads and decodes the token for key
func (c *RedisTokenCache) Get(ctx context.Context, key TokenKey) (*CachedToken, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key.String()).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.InternalError("failed to read token from redis", err)
	}

	var token CachedToken
	if err := json.Unmarshal(data, &token); err != nil {
		_ = c.client.Del(ctx, c.prefix+key.String()).Err()
		return nil, false, nil
	}
	if !token.ValidAt(c.clock.Now()) {
		return nil, false, nil
	}
	return &token, true, nil
}

// Set stores token with a Redis TTL matching its remaining lifetime
func (c *RedisTokenCache) Set(ctx context.Context, key TokenKey, token *CachedToken) error {
	ttl := token.ExpiresAt.Sub(c.clock.Now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(token)
	if err != nil {
		return errors.InternalError("failed to encode token", err)
	}
	// Redis expiry rounds to milliseconds; keep the entry a second longer and
	// let ValidAt decide the boundary.
	if err := c.client.Set(ctx, c.prefix+key.String(), data, ttl+time.Second).Err(); err != nil {
		return errors.InternalError("failed to write token to redis", err)
	}
	return nil
}

// Invalidate deletes key
func (c *RedisTokenCache) Invalidate(ctx context.Context, key TokenKey) error {
	if err := c.client.Del(ctx, c.prefix+key.String()).Err(); err != nil {
		return errors.InternalError("failed to delete token from redis", err)
	}
	return nil
}

// InvalidateFamily deletes every key for family
func (c *RedisTokenCache) InvalidateFamily(ctx context.Context, family string) error {
	return c.deleteMatching(ctx, c.prefix+family+":*")
}

// Clear deletes every token under the prefix
func (c *RedisTokenCache) Clear(ctx context.Context) error {
	return c.deleteMatching(ctx, c.prefix+"*")
}

func (c *RedisTokenCache) deleteMatching(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.InternalError("failed to scan tokens", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.InternalError("failed to delete tokens", err)
	}
	return nil
}
