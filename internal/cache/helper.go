package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache keys and TTLs for the hot read paths: the admin dashboard and the
// per-user unread badge, both polled by clients on a 30s interval.
const (
	DashboardStatsTTL = 15 * time.Second
	UnreadCountTTL    = 10 * time.Second
)

// DashboardStatsKey is the cache key for the admin dashboard snapshot.
func DashboardStatsKey() string {
	return "stats:dashboard"
}

// UnreadCountKey is the cache key for a user's unread notification count.
func UnreadCountKey(userID uint) string {
	return fmt.Sprintf("notif:unread:%d", userID)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if err != nil {
		// Treat any failure, including redis.Nil, as a miss.
		return false, nil
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Invalidate removes keys from the cache, best-effort.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_ = client.Del(ctx, keys...).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result in Redis with ttl.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	// Store into cache (best-effort)
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}
