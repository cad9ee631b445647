package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

type challengeEntry struct {
	challenge store.Challenge
	expiresAt time.Time
}

// TwoFACodeStore holds one challenge per email.
type TwoFACodeStore struct {
	now func() time.Time
	ttl time.Duration

	mu      sync.Mutex
	entries map[credential.Email]challengeEntry
}

// NewTwoFACodeStore returns an empty store.
func NewTwoFACodeStore(opts ...Option) *TwoFACodeStore {
	o := buildOptions(opts)
	return &TwoFACodeStore{
		now:     o.now,
		ttl:     o.ttl,
		entries: make(map[credential.Email]challengeEntry),
	}
}

func (s *TwoFACodeStore) AddCode(_ context.Context, email credential.Email, id credential.LoginAttemptID, code credential.TwoFACode) error {
	entry := challengeEntry{challenge: store.Challenge{LoginAttemptID: id, Code: code}}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[email] = entry
	s.mu.Unlock()
	return nil
}

func (s *TwoFACodeStore) GetCode(_ context.Context, email credential.Email) (store.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(email)
	if !ok {
		return store.Challenge{}, store.ErrCodeNotFound
	}
	return entry.challenge, nil
}

func (s *TwoFACodeStore) RemoveCode(_ context.Context, email credential.Email) error {
	s.mu.Lock()
	delete(s.entries, email)
	s.mu.Unlock()
	return nil
}

func (s *TwoFACodeStore) ConsumeCode(_ context.Context, email credential.Email, id credential.LoginAttemptID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(email)
	if !ok || entry.challenge.LoginAttemptID != id {
		return false, nil
	}
	delete(s.entries, email)
	return true, nil
}

// live must be called with mu held.
func (s *TwoFACodeStore) live(email credential.Email) (challengeEntry, bool) {
	entry, ok := s.entries[email]
	if !ok {
		return challengeEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, email)
		return challengeEntry{}, false
	}
	return entry, true
}
