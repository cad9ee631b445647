package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

// UserStore keeps users in a map guarded by an RWMutex.
type UserStore struct {
	verifier store.PasswordVerifier

	mu    sync.RWMutex
	users map[credential.Email]store.User
}

// NewUserStore returns an empty store that checks passwords with verifier.
func NewUserStore(verifier store.PasswordVerifier) *UserStore {
	return &UserStore{
		verifier: verifier,
		users:    make(map[credential.Email]store.User),
	}
}

func (s *UserStore) AddUser(_ context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Email]; ok {
		return store.ErrUserAlreadyExists
	}
	s.users[u.Email] = u
	return nil
}

func (s *UserStore) GetUser(_ context.Context, email credential.Email) (store.User, error) {
	s.mu.RLock()
	u, ok := s.users[email]
	s.mu.RUnlock()

	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) ValidateUser(ctx context.Context, email credential.Email, password credential.Password) error {
	u, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.verifier.Verify(password.Reveal(), u.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	if !ok {
		return store.ErrInvalidCredentials
	}
	return nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
