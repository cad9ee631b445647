package memory

import (
	"context"
	"sync"
	"time"
)

// BannedTokenStore keeps revoked tokens with their expiry. Expired entries
// are dropped lazily on lookup and in bulk by Sweep.
type BannedTokenStore struct {
	now func() time.Time

	mu     sync.RWMutex
	tokens map[string]time.Time
}

// Option configures the memory stores.
type Option func(*options)

type options struct {
	now func() time.Time
	ttl time.Duration
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithChallengeTTL bounds how long a two-factor challenge stays readable.
// Zero keeps challenges until they are removed or replaced.
func WithChallengeTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewBannedTokenStore returns an empty store.
func NewBannedTokenStore(opts ...Option) *BannedTokenStore {
	o := buildOptions(opts)
	return &BannedTokenStore{
		now:    o.now,
		tokens: make(map[string]time.Time),
	}
}

func (s *BannedTokenStore) AddToken(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the later expiry so a re-ban never shortens the ban.
	if prev, ok := s.tokens[token]; ok && (prev.IsZero() || (!expiresAt.IsZero() && prev.After(expiresAt))) {
		return nil
	}
	s.tokens[token] = expiresAt
	return nil
}

func (s *BannedTokenStore) ContainsToken(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if exp.IsZero() || s.now().Before(exp) {
		return true, nil
	}

	s.mu.Lock()
	if cur, ok := s.tokens[token]; ok && cur.Equal(exp) {
		delete(s.tokens, token)
	}
	s.mu.Unlock()
	return false, nil
}

// Sweep removes expired entries and returns how many were dropped.
func (s *BannedTokenStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, exp := range s.tokens {
		if !exp.IsZero() && !now.Before(exp) {
			delete(s.tokens, token)
			n++
		}
	}
	return n
}

// Len returns the number of entries, expired or not.
func (s *BannedTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
