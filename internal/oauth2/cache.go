package oauth2

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"usps-gateway/internal/common/utils"
)

// TokenCache stores bearer tokens per TokenKey. Get must not return a token
// past its ExpiresAt.
type TokenCache interface {
	Get(ctx context.Context, key TokenKey) (*CachedToken, bool, error)
	Set(ctx context.Context, key TokenKey, token *CachedToken) error
	Invalidate(ctx context.Context, key TokenKey) error
	// InvalidateFamily drops every entry for family regardless of environment
	// or credentials
	InvalidateFamily(ctx context.Context, family string) error
	Clear(ctx context.Context) error
}

// MemoryTokenCache is a process-local TokenCache
type MemoryTokenCache struct {
	cache *gocache.Cache
	clock utils.Clock
}

// NewMemoryTokenCache creates an in-memory cache. A nil clock uses wall time.
func NewMemoryTokenCache(clock utils.Clock) *MemoryTokenCache {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &MemoryTokenCache{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
		clock: clock,
	}
}

// Get returns the token for key if it is still valid
func (c *MemoryTokenCache) Get(_ context.Context, key TokenKey) (*CachedToken, bool, error) {
	item, ok := c.cache.Get(key.String())
	if !ok {
		return nil, false, nil
	}
	token, ok := item.(*CachedToken)
	if !ok || !token.ValidAt(c.clock.Now()) {
		c.cache.Delete(key.String())
		return nil, false, nil
	}
	copied := *token
	return &copied, true, nil
}

// Set stores token until its expiry. The go-cache expiration trails the
// token by a minute; ValidAt decides.
func (c *MemoryTokenCache) Set(_ context.Context, key TokenKey, token *CachedToken) error {
	ttl := token.ExpiresAt.Sub(c.clock.Now())
	if ttl <= 0 {
		return nil
	}
	copied := *token
	c.cache.Set(key.String(), &copied, ttl+time.Minute)
	return nil
}

// Invalidate removes key
func (c *MemoryTokenCache) Invalidate(_ context.Context, key TokenKey) error {
	c.cache.Delete(key.String())
	return nil
}

// InvalidateFamily removes every key belonging to family
func (c *MemoryTokenCache) InvalidateFamily(_ context.Context, family string) error {
	prefix := family + ":"
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
	return nil
}

// Clear removes everything
func (c *MemoryTokenCache) Clear(context.Context) error {
	c.cache.Flush()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted
func (c *MemoryTokenCache) Len() int {
	return c.cache.ItemCount()
}
