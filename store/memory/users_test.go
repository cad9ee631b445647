package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/password"
	"github.com/MrEthical07/authsvc/store"
)

var _ store.UserStore = (*UserStore)(nil)

func newArgon(t *testing.T) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func mustPassword(t *testing.T, raw string) credential.Password {
	t.Helper()
	p, err := credential.ParsePassword(raw)
	if err != nil {
		t.Fatalf("ParsePassword: %v", err)
	}
	return p
}

func TestUserStoreAddGetValidate(t *testing.T) {
	ctx := context.Background()
	h := newArgon(t)
	s := NewUserStore(h)
	email := credential.MustParseEmail("test@example.com")

	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := store.User{Email: email, PasswordHash: hash, Requires2FA: true}

	if err := s.AddUser(ctx, u); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := s.AddUser(ctx, u); !errors.Is(err, store.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}

	got, err := s.GetUser(ctx, email)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got != u {
		t.Fatalf("GetUser = %+v, want %+v", got, u)
	}

	if err := s.ValidateUser(ctx, email, mustPassword(t, "password123")); err != nil {
		t.Fatalf("ValidateUser: %v", err)
	}
	if err := s.ValidateUser(ctx, email, mustPassword(t, "password124")); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	missing := credential.MustParseEmail("nobody@example.com")
	if _, err := s.GetUser(ctx, missing); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := s.ValidateUser(ctx, missing, mustPassword(t, "password123")); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserStoreCorruptHashIsBackendError(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newArgon(t))
	email := credential.MustParseEmail("test@example.com")
	if err := s.AddUser(ctx, store.User{Email: email, PasswordHash: "not-a-hash"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := s.ValidateUser(ctx, email, mustPassword(t, "password123")); !errors.Is(err, store.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestUserStoreConcurrentAddExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newArgon(t))
	email := credential.MustParseEmail("race@example.com")

	const workers = 64
	var (
		wg      sync.WaitGroup
		success atomic.Int32
		exists  atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch err := s.AddUser(ctx, store.User{Email: email, PasswordHash: "h"}); {
			case err == nil:
				success.Add(1)
			case errors.Is(err, store.ErrUserAlreadyExists):
				exists.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if success.Load() != 1 || exists.Load() != workers-1 {
		t.Fatalf("success=%d exists=%d", success.Load(), exists.Load())
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d", s.Len())
	}
}
