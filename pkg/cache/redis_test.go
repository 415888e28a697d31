package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}

	c, err := NewRedisCache(context.Background(), &Options{
		RedisAddr:     addr,
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
		DefaultTTL:    time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, keyPrefix+"test", []byte("v"), time.Minute))

	got, err := c.Get(ctx, keyPrefix+"test")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, c.Delete(ctx, keyPrefix+"test"))
	_, err = c.Get(ctx, keyPrefix+"test")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisCache_DeleteByPattern(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"a1", "a2", "b1"} {
		require.NoError(t, c.Set(ctx, keyPrefix+k, []byte("v"), 0))
	}

	n, err := c.DeleteByPattern(ctx, keyPrefix+"a*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestParseInfo(t *testing.T) {
	info := "# Stats\r\nkeyspace_hits:30\r\nkeyspace_misses:10\r\nevicted_keys:2\r\n# Memory\r\nused_memory:1024\r\nused_memory_human:1.00K\r\ngarbage\r\n"

	stats := parseInfo(info)

	assert.Equal(t, BackendRedis, stats.Backend)
	assert.Equal(t, int64(30), stats.Hits)
	assert.Equal(t, int64(10), stats.Misses)
	assert.Equal(t, int64(2), stats.Evictions)
	assert.Equal(t, int64(1024), stats.MemoryBytes)
	assert.InDelta(t, 0.75, stats.HitRate, 1e-12)
}
