package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, found := c.Get(ctx, "missing")
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, c, "a", map[string]string{"city": "FREDERICKSBURG"}, time.Hour))
	var got map[string]string
	require.True(t, GetJSON(ctx, c, "a", &got))
	assert.Equal(t, "FREDERICKSBURG", got["city"])

	require.NoError(t, c.Delete(ctx, "a"))
	assert.False(t, GetJSON(ctx, c, "a", &got))

	require.NoError(t, c.Set(ctx, "b", []byte(`"x"`), time.Hour))
	require.NoError(t, c.Clear(ctx))
	_, found = c.Get(ctx, "b")
	assert.False(t, found)
}

func TestLocalCache(t *testing.T) {
	exercise(t, NewLocalCache(time.Hour, time.Minute))
}

func TestRedisCache(t *testing.T) {
	client, mr := newMiniRedis(t)
	c := NewRedisCache(client, "usps:cache:")
	exercise(t, c)

	require.NoError(t, c.Set(context.Background(), "ttl", []byte("1"), time.Minute))
	assert.True(t, mr.Exists("usps:cache:ttl"))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("usps:cache:ttl"))
}

func TestTwoTierCache_PopulatesL1FromL2(t *testing.T) {
	client, _ := newMiniRedis(t)
	ctx := context.Background()
	c := NewTwoTierCache(time.Minute, time.Minute, client, "usps:cache:")
	exercise(t, c)

	require.NoError(t, c.l2.Set(ctx, "shared", []byte(`{"ok":true}`), time.Hour))
	_, found := c.l1.Get(ctx, "shared")
	assert.False(t, found)

	val, found := c.Get(ctx, "shared")
	require.True(t, found)
	assert.JSONEq(t, `{"ok":true}`, string(val))

	_, found = c.l1.Get(ctx, "shared")
	assert.True(t, found)
}

func TestNew(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &LocalCache{}, c)

	_, err = New(Config{Type: TypeRedis})
	assert.Error(t, err)

	_, err = New(Config{Type: "disk"})
	assert.Error(t, err)

	client, _ := newMiniRedis(t)
	c, err = New(Config{Type: TypeTwoTier, RedisClient: client, KeyPrefix: "p:"})
	require.NoError(t, err)
	assert.IsType(t, &TwoTierCache{}, c)
}

func TestHashKey(t *testing.T) {
	a := HashKey("address", map[string]string{"state": "DC", "city": "Washington"})
	b := HashKey("address", map[string]string{"city": "Washington", "state": "DC"})
	c := HashKey("address", map[string]string{"city": "Washington", "state": "VA"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "address:")
}
