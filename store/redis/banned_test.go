package redisstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authsvc/store"
)

var _ store.BannedTokenStore = (*BannedTokenStore)(nil)

func TestBannedTokenStoreAddContains(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewBannedTokenStore(rdb, "")

	ok, err := s.ContainsToken(ctx, "header.payload.sig")
	if err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	exp := time.Now().Add(10 * time.Minute)
	for i := 0; i < 2; i++ {
		if err := s.AddToken(ctx, "header.payload.sig", exp); err != nil {
			t.Fatalf("AddToken: %v", err)
		}
	}
	ok, err = s.ContainsToken(ctx, "header.payload.sig")
	if err != nil || !ok {
		t.Fatalf("banned token: ok=%v err=%v", ok, err)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one key, got %v", keys)
	}
	if !strings.HasPrefix(keys[0], "abt:") || strings.Contains(keys[0], "payload") {
		t.Fatalf("key must be a digest under the prefix, got %q", keys[0])
	}
	if ttl := mr.TTL(keys[0]); ttl <= 9*time.Minute || ttl > 10*time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	mr.FastForward(11 * time.Minute)
	ok, err = s.ContainsToken(ctx, "header.payload.sig")
	if err != nil || ok {
		t.Fatalf("entry should expire with the token: ok=%v err=%v", ok, err)
	}
}

func TestBannedTokenStoreNoExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewBannedTokenStore(rdb, "bans")

	if err := s.AddToken(ctx, "tok", time.Time{}); err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	mr.FastForward(24 * time.Hour)
	if ok, _ := s.ContainsToken(ctx, "tok"); !ok {
		t.Fatal("token without expiry must stay banned")
	}
}

func TestBannedTokenStoreSkipsExpiredToken(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewBannedTokenStore(rdb, "")

	if err := s.AddToken(ctx, "tok", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatal("already expired tokens need no ban entry")
	}
}

func TestBannedTokenStoreKeepsImminentBan(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewBannedTokenStore(rdb, "")
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	if err := s.AddToken(ctx, "tok", now.Add(500*time.Microsecond)); err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("a ban that has not lapsed must be written, keys=%v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl != time.Millisecond {
		t.Fatalf("ttl = %v, want 1ms", ttl)
	}
}

func TestBannedTokenStoreBackendError(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewBannedTokenStore(rdb, "")

	mr.Close()
	if _, err := s.ContainsToken(ctx, "tok"); !errors.Is(err, store.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if err := s.AddToken(ctx, "tok", time.Time{}); !errors.Is(err, store.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}
