package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold число ключей, после которого полные bucket'ы удаляются
const sweepThreshold = 4096

// MemoryLimiter token bucket на ключ в памяти процесса
type MemoryLimiter struct {
	mu      sync.Mutex
	cfg     Config
	rate    float64 // токенов в секунду
	buckets map[string]*bucket
	now     func() time.Time
	closed  bool
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	cfg = cfg.normalize()
	return &MemoryLimiter{
		cfg:     cfg,
		rate:    float64(cfg.Requests) / cfg.Window.Seconds(),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return Decision{}, ErrLimiterClosed
	}

	now := l.now()
	capacity := float64(l.cfg.capacity())

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= sweepThreshold {
			l.sweep(now)
		}
		b = &bucket{tokens: capacity, last: now}
		l.buckets[key] = b
	}
	b.tokens = min(capacity, b.tokens+now.Sub(b.last).Seconds()*l.rate)
	b.last = now

	d := Decision{Limit: l.cfg.capacity()}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
		d.Remaining = int(b.tokens)
		return d, nil
	}
	d.RetryAfter = time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return d, nil
}

// sweep удаляет bucket'ы, которые успели заполниться полностью
func (l *MemoryLimiter) sweep(now time.Time) {
	capacity := float64(l.cfg.capacity())
	for k, b := range l.buckets {
		if b.tokens+now.Sub(b.last).Seconds()*l.rate >= capacity {
			delete(l.buckets, k)
		}
	}
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.buckets = nil
	return nil
}
