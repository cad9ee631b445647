package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	_ Limiter = (*Redis)(nil)
	_ Limiter = (*Memory)(nil)
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if err := (Config{MaxAttempts: 0, Window: time.Second}).Validate(); err == nil {
		t.Fatal("expected error for zero attempts")
	}
	if err := (Config{MaxAttempts: 1}).Validate(); err == nil {
		t.Fatal("expected error for zero window")
	}
}

func TestRedisFixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l, err := NewRedis(rdb, Config{MaxAttempts: 3, Window: time.Minute, Prefix: "rl:"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := l.Allow(ctx, "203.0.113.7"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, "203.0.113.7"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Allow(ctx, "198.51.100.1"); err != nil {
		t.Fatalf("other key should be independent: %v", err)
	}

	if ttl := mr.TTL("rl:203.0.113.7"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Allow(ctx, "203.0.113.7"); err != nil {
		t.Fatalf("new window should allow: %v", err)
	}
}

func TestRedisKeysUsePrefix(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l, err := NewRedis(rdb, Config{MaxAttempts: 1, Window: time.Minute, Prefix: "authsvc:rl:"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	if err := l.Allow(ctx, "/login|203.0.113.7"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "authsvc:rl:/login|203.0.113.7" {
		t.Fatalf("keys = %v", keys)
	}
	if ttl := mr.TTL("authsvc:rl:/login|203.0.113.7"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l, err := NewRedis(rdb, DefaultConfig())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	mr.Close()

	if err := l.Allow(context.Background(), "k"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestNewRedisRejectsBadInput(t *testing.T) {
	if _, err := NewRedis(nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for nil client")
	}
	_, rdb := newTestRedis(t)
	if _, err := NewRedis(rdb, Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemoryBucket(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{t: time.Unix(1_700_000_000, 0)}
	l, err := NewMemory(Config{MaxAttempts: 2, Window: time.Minute}, clock.Now)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := l.Allow(ctx, "a"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, "a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Allow(ctx, "b"); err != nil {
		t.Fatalf("other key should be independent: %v", err)
	}

	clock.Advance(30 * time.Second)
	if err := l.Allow(ctx, "a"); err != nil {
		t.Fatalf("one token should have refilled: %v", err)
	}
	if err := l.Allow(ctx, "a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{t: time.Unix(1_700_000_000, 0)}
	l, err := NewMemory(Config{MaxAttempts: 1, Window: time.Minute}, clock.Now)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	_ = l.Allow(ctx, "a")
	clock.Advance(45 * time.Second)
	_ = l.Allow(ctx, "b")
	clock.Advance(30 * time.Second)

	if n := l.Sweep(); n != 1 {
		t.Fatalf("expected one swept key, got %d", n)
	}
	if l.Len() != 1 {
		t.Fatalf("expected one remaining key, got %d", l.Len())
	}
}

func TestMemoryConcurrentAllow(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{t: time.Unix(1_700_000_000, 0)}
	l, err := NewMemory(Config{MaxAttempts: 5, Window: time.Hour}, clock.Now)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(ctx, "k") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 5 {
		t.Fatalf("expected 5 allowed attempts, got %d", allowed)
	}
}
