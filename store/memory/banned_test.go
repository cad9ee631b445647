package memory

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authsvc/store"
)

var _ store.BannedTokenStore = (*BannedTokenStore)(nil)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBannedTokenStoreAddContains(t *testing.T) {
	ctx := context.Background()
	s := NewBannedTokenStore()

	ok, err := s.ContainsToken(ctx, "tok")
	if err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	for i := 0; i < 3; i++ {
		if err := s.AddToken(ctx, "tok", time.Time{}); err != nil {
			t.Fatalf("AddToken: %v", err)
		}
	}
	ok, err = s.ContainsToken(ctx, "tok")
	if err != nil || !ok {
		t.Fatalf("banned token: ok=%v err=%v", ok, err)
	}
	if s.Len() != 1 {
		t.Fatalf("idempotent add stored %d entries", s.Len())
	}
}

func TestBannedTokenStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewBannedTokenStore(WithClock(clock.Now))

	if err := s.AddToken(ctx, "short", clock.t.Add(time.Minute)); err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	if err := s.AddToken(ctx, "long", clock.t.Add(time.Hour)); err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	// A re-ban with an earlier expiry must not shorten the ban.
	if err := s.AddToken(ctx, "long", clock.t.Add(time.Second)); err != nil {
		t.Fatalf("AddToken: %v", err)
	}

	clock.Advance(2 * time.Minute)

	if ok, _ := s.ContainsToken(ctx, "short"); ok {
		t.Fatal("expired entry should be gone")
	}
	if ok, _ := s.ContainsToken(ctx, "long"); !ok {
		t.Fatal("unexpired entry should remain")
	}

	if err := s.AddToken(ctx, "other", clock.t.Add(time.Second)); err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	clock.Advance(time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}
