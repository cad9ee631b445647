package rate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is returned by Allow once the key has used its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps backend failures of the Redis limiter.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Limiter decides whether one more attempt for key is allowed. Allow
// returns nil, ErrRateLimited, or a backend error.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Config sets the budget: at most MaxAttempts per Window for each key.
type Config struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Window      time.Duration `koanf:"window"`
	// Prefix namespaces Redis keys. Ignored by the in-memory limiter.
	Prefix string `koanf:"prefix"`
}

// DefaultConfig allows 10 attempts per minute.
func DefaultConfig() Config {
	return Config{MaxAttempts: 10, Window: time.Minute, Prefix: "authsvc:rl:"}
}

// Validate reports whether cfg describes a usable budget.
func (c Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("rate: max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate: window must be positive, got %s", c.Window)
	}
	return nil
}
