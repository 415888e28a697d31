// Package ratelimit ограничивает частоту вызовов solver-svc по ключу клиента.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"maxflow/pkg/config"
)

var ErrLimiterClosed = errors.New("limiter is closed")

// Decision результат проверки одного запроса
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter решает, пропускать ли запрос с данным ключом
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Close() error
}

// Config: Requests запросов за Window плюс Burst сверху
type Config struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func (c Config) normalize() Config {
	if c.Requests <= 0 {
		c.Requests = 60
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.Burst < 0 {
		c.Burst = 0
	}
	return c
}

func (c Config) capacity() int { return c.Requests + c.Burst }

// FromConfig переносит секцию ratelimit
func FromConfig(c config.RateLimitConfig) Config {
	return Config{Requests: c.Requests, Window: c.Window, Burst: c.Burst}
}

// New создаёт лимитер для backend из конфигурации; redis использует адрес кэша
func New(ctx context.Context, rl config.RateLimitConfig, cache config.CacheConfig) (Limiter, error) {
	cfg := FromConfig(rl)

	switch rl.Backend {
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cache.Address(),
			Password: cache.Password,
			DB:       cache.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return NewRedisLimiter(client, cfg), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", rl.Backend)
	}
}
