package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter with SETNX + TTL. Fails open: if redis is
// unreachable the call is allowed, the downstream timeout is the backstop.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (l *RedisLimiter) AllowOnce(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := l.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
