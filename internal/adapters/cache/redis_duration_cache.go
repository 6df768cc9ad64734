package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "itinerary:duration:"

// RedisDurationCache keeps resolved leg durations in Redis with a TTL so
// stale traffic and timetable data ages out on its own.
type RedisDurationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDurationCache wraps an existing client. A ttl <= 0 keeps entries
// until evicted.
func NewRedisDurationCache(client *redis.Client, ttl time.Duration) *RedisDurationCache {
	return &RedisDurationCache{client: client, ttl: ttl}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("open redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("open redis: ping: %w", err)
	}
	return client, nil
}

type redisEntry struct {
	DurationSeconds     int  `json:"duration_seconds"`
	DistanceMeters      int  `json:"distance_meters"`
	IsSimplifiedTransit bool `json:"simplified_transit"`
}

func (c *RedisDurationCache) Get(ctx context.Context, key string) (_ ports.CachedDuration, _ bool, err error) {
	defer obs.Time(ctx, "duration.redis.Get")(&err)

	if c.client == nil {
		return ports.CachedDuration{}, false, errors.New("redis duration cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.CachedDuration{}, false, errors.New("get redis duration cache: key must not be empty")
	}

	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.CachedDuration{}, false, nil
	}
	if err != nil {
		return ports.CachedDuration{}, false, fmt.Errorf("get redis duration cache: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return ports.CachedDuration{}, false, fmt.Errorf("get redis duration cache: decode %q: %w", key, err)
	}

	return ports.CachedDuration{
		DurationSeconds:     e.DurationSeconds,
		DistanceMeters:      e.DistanceMeters,
		IsSimplifiedTransit: e.IsSimplifiedTransit,
	}, true, nil
}

func (c *RedisDurationCache) Put(ctx context.Context, key string, v ports.CachedDuration) error {
	if c.client == nil {
		return errors.New("redis duration cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("put redis duration cache: key must not be empty")
	}

	raw, err := json.Marshal(redisEntry{
		DurationSeconds:     v.DurationSeconds,
		DistanceMeters:      v.DistanceMeters,
		IsSimplifiedTransit: v.IsSimplifiedTransit,
	})
	if err != nil {
		return fmt.Errorf("put redis duration cache: encode: %w", err)
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("put redis duration cache key=%q: %w", key, err)
	}
	return nil
}
