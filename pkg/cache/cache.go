// Package cache stores solve results in memory or in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"maxflow/pkg/config"
)

// Backend types for cache implementations.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Standard errors returned by cache operations.
var (
	// ErrKeyNotFound is returned when a requested key does not exist in the cache.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed is returned when an operation is attempted on a closed cache.
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns ErrKeyNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttl <= 0 means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes keys matching a glob with a single '*'.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats holds statistics about a cache's state.
type Stats struct {
	TotalKeys   int64
	Hits        int64
	Misses      int64
	Evictions   int64
	HitRate     float64
	MemoryBytes int64
	Backend     string
}

// Options contains configuration parameters for creating a Cache instance.
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	// memory
	MaxEntries      int
	CleanupInterval time.Duration

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions returns a new Options struct with sensible default values.
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      10 * time.Minute,
		MaxEntries:      1000,
		CleanupInterval: time.Minute,
		RedisAddr:       "localhost:6379",
		RedisPoolSize:   10,
	}
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg *config.CacheConfig) *Options {
	return &Options{
		Backend:         cfg.Driver,
		DefaultTTL:      cfg.DefaultTTL,
		MaxEntries:      cfg.MaxEntries,
		CleanupInterval: time.Minute,
		RedisAddr:       cfg.Address(),
		RedisPassword:   cfg.Password,
		RedisDB:         cfg.DB,
		RedisPoolSize:   10,
	}
}

// New создаёт кэш на основе опций
func New(ctx context.Context, opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(ctx, opts)
	case BackendMemory, "":
		return NewMemoryCache(opts), nil
	default:
		return nil, errors.New("unknown cache backend: " + opts.Backend)
	}
}
