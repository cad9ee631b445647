package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authsvc/store"
)

// BannedTokenStore is a Redis-backed store.BannedTokenStore.
type BannedTokenStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewBannedTokenStore returns a store writing keys under prefix
// (default "abt").
func NewBannedTokenStore(client redis.UniversalClient, prefix string) *BannedTokenStore {
	if prefix == "" {
		prefix = "abt"
	}
	return &BannedTokenStore{redis: client, prefix: prefix, now: time.Now}
}

func (s *BannedTokenStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// AddToken bans token until expiresAt. A ban whose expiry has passed is not
// written; one due within a millisecond is kept for a full millisecond,
// the smallest TTL Redis stores.
func (s *BannedTokenStore) AddToken(ctx context.Context, token string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
		if ttl < time.Millisecond {
			ttl = time.Millisecond
		}
	}
	if err := s.redis.Set(ctx, s.key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return nil
}

func (s *BannedTokenStore) ContainsToken(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return n > 0, nil
}
