package cache

import (
	"context"
	"itinerary-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisDurationCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisDurationCache(client, ttl), mr
}

func TestRedisDurationCache_RoundTrip(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	ctx := context.Background()

	key := "TRANSIT|1767628800|35.681200,139.767100|35.714800,139.774500"

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	want := ports.CachedDuration{DurationSeconds: 1320, DistanceMeters: 4100, IsSimplifiedTransit: true}
	require.NoError(t, c.Put(ctx, key, want))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	require.True(t, mr.Exists(redisKeyPrefix+key))
	require.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+key))
}

func TestRedisDurationCache_Expires(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "WALK|0|a|b", ports.CachedDuration{DurationSeconds: 60}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "WALK|0|a|b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisDurationCache_RejectsEmptyKey(t *testing.T) {
	c, _ := newRedisCache(t, 0)

	_, _, err := c.Get(context.Background(), " ")
	require.Error(t, err)
	require.Error(t, c.Put(context.Background(), "", ports.CachedDuration{}))
}

func TestRedisDurationCache_CorruptValue(t *testing.T) {
	c, mr := newRedisCache(t, 0)
	require.NoError(t, mr.Set(redisKeyPrefix+"DRIVE|0|a|b", "not-json"))

	_, _, err := c.Get(context.Background(), "DRIVE|0|a|b")
	require.Error(t, err)
}

func TestModeOf(t *testing.T) {
	require.Equal(t, "TRANSIT", modeOf("TRANSIT|1|a|b"))
	require.Equal(t, "plain", modeOf("plain"))
}
