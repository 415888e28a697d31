package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "maxflow:ratelimit:"

// RedisLimiter fixed window счётчик в Redis, общий для всех реплик
type RedisLimiter struct {
	client redis.UniversalClient
	cfg    Config
	now    func() time.Time
}

func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.normalize(), now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now().UnixNano()
	window := int64(l.cfg.Window)
	slot := now / window
	k := fmt.Sprintf("%s%s:%d", keyPrefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.PExpire(ctx, k, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: %w", err)
	}

	limit := l.cfg.capacity()
	n := int(incr.Val())
	d := Decision{
		Allowed:   n <= limit,
		Limit:     limit,
		Remaining: max(limit-n, 0),
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration((slot+1)*window - now)
	}
	return d, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
