package ratelimit

import (
	"context"
	"fmt"
	"time"

	"reviewhub_backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// Noop allows everything. Used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Allow(context.Context, string) Decision {
	return Decision{Allowed: true}
}

// RedisLimiter is a fixed-window counter: INCR the window key and set its
// TTL on first hit. Redis errors fail open.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "reviewhub:rl"}
}

// NewFromURL parses a redis:// URL and returns a limiter bound to it.
func NewFromURL(url string, limit int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisLimiter(redis.NewClient(opts), limit, window), nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	windowID := time.Now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowID)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.CtxWarn(ctx, "rate limiter unavailable, allowing request", "error", err.Error())
		return Decision{Allowed: true}
	}

	count := int(incr.Val())
	if count > l.limit {
		elapsed := time.Duration(time.Now().UnixNano() % int64(l.window))
		return Decision{Allowed: false, RetryAfter: l.window - elapsed}
	}
	return Decision{Allowed: true, Remaining: l.limit - count}
}

func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
