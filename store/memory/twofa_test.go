package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

var (
	_ store.TwoFACodeStore = (*TwoFACodeStore)(nil)
	_ store.CodeConsumer   = (*TwoFACodeStore)(nil)
)

func newChallenge(t *testing.T) (credential.LoginAttemptID, credential.TwoFACode) {
	t.Helper()
	id, err := credential.NewLoginAttemptID()
	if err != nil {
		t.Fatalf("NewLoginAttemptID: %v", err)
	}
	code, err := credential.NewTwoFACode()
	if err != nil {
		t.Fatalf("NewTwoFACode: %v", err)
	}
	return id, code
}

func TestTwoFACodeStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewTwoFACodeStore()
	email := credential.MustParseEmail("test@example.com")

	if _, err := s.GetCode(ctx, email); !errors.Is(err, store.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}

	id1, code1 := newChallenge(t)
	id2, code2 := newChallenge(t)
	if err := s.AddCode(ctx, email, id1, code1); err != nil {
		t.Fatalf("AddCode: %v", err)
	}
	if err := s.AddCode(ctx, email, id2, code2); err != nil {
		t.Fatalf("AddCode: %v", err)
	}

	got, err := s.GetCode(ctx, email)
	if err != nil {
		t.Fatalf("GetCode: %v", err)
	}
	if got.LoginAttemptID != id2 || got.Code != code2 {
		t.Fatal("AddCode must overwrite the previous challenge")
	}

	if err := s.RemoveCode(ctx, email); err != nil {
		t.Fatalf("RemoveCode: %v", err)
	}
	if err := s.RemoveCode(ctx, email); err != nil {
		t.Fatalf("RemoveCode on absent email: %v", err)
	}
	if _, err := s.GetCode(ctx, email); !errors.Is(err, store.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after remove, got %v", err)
	}
}

func TestTwoFACodeStoreTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewTwoFACodeStore(WithClock(clock.Now), WithChallengeTTL(time.Minute))
	email := credential.MustParseEmail("test@example.com")

	id, code := newChallenge(t)
	if err := s.AddCode(ctx, email, id, code); err != nil {
		t.Fatalf("AddCode: %v", err)
	}
	clock.Advance(59 * time.Second)
	if _, err := s.GetCode(ctx, email); err != nil {
		t.Fatalf("GetCode before expiry: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := s.GetCode(ctx, email); !errors.Is(err, store.ErrCodeNotFound) {
		t.Fatalf("expected expired challenge to be gone, got %v", err)
	}
}

func TestTwoFACodeStoreConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewTwoFACodeStore()
	email := credential.MustParseEmail("test@example.com")

	id, code := newChallenge(t)
	other, _ := newChallenge(t)
	if err := s.AddCode(ctx, email, id, code); err != nil {
		t.Fatalf("AddCode: %v", err)
	}

	if ok, _ := s.ConsumeCode(ctx, email, other); ok {
		t.Fatal("consume with a different attempt id must fail")
	}

	const workers = 32
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := s.ConsumeCode(ctx, email, id); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one consume, got %d", wins.Load())
	}
}
