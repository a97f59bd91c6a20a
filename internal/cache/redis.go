// Package cache provides Redis-backed caching for hot read paths. A nil
// client is a valid state: every helper degrades to a cache miss, so the
// API keeps working when Redis is absent.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errCountingHook bumps the redis error counter per command so cache
// trouble shows up on the metrics endpoint instead of only in logs.
type errCountingHook struct{}

func (errCountingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errCountingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (errCountingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects to Redis at addr, which may be a bare host:port or a
// redis:// URL. Connection failures leave the client nil rather than
// aborting startup.
func InitRedis(addr string) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			slog.Warn("invalid REDIS_URL, continuing without cache", "addr", addr, "error", err)
			client = nil
			return
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	c.AddHook(errCountingHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, continuing without cache", "error", err)
		client = nil
		return
	}

	slog.Info("redis connected", "addr", opts.Addr)
	client = c
}

// GetClient returns the current Redis client, or nil when caching is off.
func GetClient() *redis.Client {
	return client
}
