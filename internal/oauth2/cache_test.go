package oauth2

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/config"
)

var issuedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testKey(family string) TokenKey {
	return NewTokenKey(family, "testing", config.Credentials{ClientID: "id", ClientSecret: "secret"})
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, 3060*time.Second, cacheTTL(3600))
	assert.Equal(t, 28800*85/100*time.Second, cacheTTL(28800))
	assert.Equal(t, 8*time.Second, cacheTTL(10))
	assert.Equal(t, FallbackTTL, cacheTTL(0))
}

func TestTokenKey(t *testing.T) {
	key := testKey("labels")
	assert.Len(t, key.CredentialHash, 16)
	assert.Equal(t, "labels:testing:"+key.CredentialHash, key.String())

	rotated := NewTokenKey("labels", "testing", config.Credentials{ClientID: "id", ClientSecret: "other"})
	assert.NotEqual(t, key, rotated)
}

func TestMemoryTokenCache_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	clock := utils.NewFakeClock(issuedAt)
	cache := NewMemoryTokenCache(clock)
	key := testKey("prices")

	require.NoError(t, cache.Set(ctx, key, &CachedToken{Value: "tok", ExpiresAt: issuedAt.Add(cacheTTL(3600))}))

	clock.Advance(3060 * time.Second)
	token, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", token.Value)

	clock.Advance(time.Second)
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenCache_InvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	clock := utils.NewFakeClock(issuedAt)
	cache := NewMemoryTokenCache(clock)
	expires := issuedAt.Add(time.Hour)

	for _, family := range []string{"prices", "labels", "addresses"} {
		require.NoError(t, cache.Set(ctx, testKey(family), &CachedToken{Value: family, ExpiresAt: expires}))
	}
	assert.Equal(t, 3, cache.Len())

	require.NoError(t, cache.Invalidate(ctx, testKey("prices")))
	_, ok, _ := cache.Get(ctx, testKey("prices"))
	assert.False(t, ok)

	require.NoError(t, cache.InvalidateFamily(ctx, "labels"))
	_, ok, _ = cache.Get(ctx, testKey("labels"))
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, testKey("addresses"))
	assert.True(t, ok)

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryTokenCache_SkipsExpiredSet(t *testing.T) {
	ctx := context.Background()
	clock := utils.NewFakeClock(issuedAt)
	cache := NewMemoryTokenCache(clock)

	require.NoError(t, cache.Set(ctx, testKey("prices"), &CachedToken{Value: "old", ExpiresAt: issuedAt.Add(-time.Second)}))
	assert.Equal(t, 0, cache.Len())
}

func newRedisCache(t *testing.T, clock utils.Clock) (*RedisTokenCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTokenCache(client, clock), mr
}

func TestRedisTokenCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := utils.NewFakeClock(issuedAt)
	cache, mr := newRedisCache(t, clock)
	key := testKey("labels")

	require.NoError(t, cache.Set(ctx, key, &CachedToken{Value: "tok", Scope: "labels", ExpiresAt: issuedAt.Add(3060 * time.Second)}))
	assert.True(t, mr.Exists("usps:token:"+key.String()))

	clock.Advance(3060 * time.Second)
	token, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", token.Value)
	assert.Equal(t, "labels", token.Scope)

	clock.Advance(time.Second)
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("usps:token:"+key.String()))
}

func TestRedisTokenCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t, utils.NewFakeClock(issuedAt))
	key := testKey("prices")

	require.NoError(t, mr.Set("usps:token:"+key.String(), "{not json"))

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("usps:token:"+key.String()))
}

func TestRedisTokenCache_InvalidateFamilyAndClear(t *testing.T) {
	ctx := context.Background()
	clock := utils.NewFakeClock(issuedAt)
	cache, mr := newRedisCache(t, clock)
	expires := issuedAt.Add(time.Hour)

	require.NoError(t, cache.Set(ctx, testKey("prices"), &CachedToken{Value: "p", ExpiresAt: expires}))
	require.NoError(t, cache.Set(ctx, testKey("labels"), &CachedToken{Value: "l", ExpiresAt: expires}))
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, cache.InvalidateFamily(ctx, "prices"))
	_, ok, _ := cache.Get(ctx, testKey("prices"))
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, testKey("labels"))
	assert.True(t, ok)

	require.NoError(t, cache.Clear(ctx))
	_, ok, _ = cache.Get(ctx, testKey("labels"))
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"))
}
