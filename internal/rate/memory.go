package rate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Memory keeps one token bucket per key. The bucket refills at
// MaxAttempts per Window with a burst of MaxAttempts.
type Memory struct {
	mu       sync.Mutex
	limiters map[string]*bucket
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemory returns an in-process limiter. now defaults to time.Now.
func NewMemory(cfg Config, now func() time.Time) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		limiters: make(map[string]*bucket),
		limit:    rate.Limit(float64(cfg.MaxAttempts) / cfg.Window.Seconds()),
		burst:    cfg.MaxAttempts,
		idle:     cfg.Window,
		now:      now,
	}, nil
}

// Allow takes one token from key's bucket.
func (m *Memory) Allow(_ context.Context, key string) error {
	now := m.now()

	m.mu.Lock()
	b, ok := m.limiters[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	m.mu.Unlock()

	if !allowed {
		return ErrRateLimited
	}
	return nil
}

// Sweep drops buckets idle for longer than a window. A dropped bucket is
// full again, so this never tightens a limit.
func (m *Memory) Sweep() int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, b := range m.limiters {
		if b.lastSeen.Before(cutoff) {
			delete(m.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}
