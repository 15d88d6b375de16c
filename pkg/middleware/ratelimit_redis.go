package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLimitPrefix = "ratelimit:"

// RedisLimiter counts requests per key in fixed windows stored in Redis, so
// every replica behind a load balancer shares one budget.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter allows limit requests per key in each window.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// NewRedisLimiterForRate sizes the window so that burst requests per window
// average out to rps.
func NewRedisLimiterForRate(client redis.Cmdable, rps float64, burst int) *RedisLimiter {
	window := time.Duration(float64(burst) / rps * float64(time.Second))
	if window < time.Second {
		window = time.Second
	}
	return NewRedisLimiter(client, burst, window)
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	k := redisLimitPrefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}
