package rate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every instance pointing at the
// same Redis.
type Redis struct {
	client redis.UniversalClient
	config Config
}

// NewRedis returns a limiter backed by client.
func NewRedis(client redis.UniversalClient, cfg Config) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("rate: nil redis client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Redis{client: client, config: cfg}, nil
}

// Allow counts one attempt for key in the current window.
func (l *Redis) Allow(ctx context.Context, key string) error {
	count, err := l.incrementWithTTL(ctx, l.config.Prefix+key)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Redis) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// The window starts at the first hit.
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
