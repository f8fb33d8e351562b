package urlcache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type countingSigner struct {
	calls int
	err   error
}

func (s *countingSigner) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("https://signed.example/%s?n=%d", key, s.calls), nil
}

func TestCache_ResolveWithinTTLReturnsCachedURL(t *testing.T) {
	signer := &countingSigner{}
	cache := New(signer, time.Hour)

	first, err := cache.Resolve(context.Background(), "user-1/a.jpg")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := cache.Resolve(context.Background(), "user-1/a.jpg")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first != second {
		t.Fatalf("expected identical cached url, got %q and %q", first, second)
	}
	if signer.calls != 1 {
		t.Fatalf("expected exactly one signing call, got %d", signer.calls)
	}
}

func TestCache_ResolveAfterExpiryTriggersOneFreshCall(t *testing.T) {
	signer := &countingSigner{}
	cache := New(signer, time.Hour)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, err := cache.Resolve(context.Background(), "k"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	now = now.Add(time.Hour + time.Minute)

	if _, err := cache.Resolve(context.Background(), "k"); err != nil {
		t.Fatalf("resolve after expiry: %v", err)
	}
	if signer.calls != 2 {
		t.Fatalf("expected exactly 2 signing calls, got %d", signer.calls)
	}
}

func TestCache_ResolveDistinctKeysSignSeparately(t *testing.T) {
	signer := &countingSigner{}
	cache := New(signer, time.Hour)

	if _, err := cache.Resolve(context.Background(), "a"); err != nil {
		t.Fatalf("resolve a: %v", err)
	}
	if _, err := cache.Resolve(context.Background(), "b"); err != nil {
		t.Fatalf("resolve b: %v", err)
	}
	if signer.calls != 2 {
		t.Fatalf("expected 2 signing calls, got %d", signer.calls)
	}
}

func TestCache_SignErrorNotCached(t *testing.T) {
	signer := &countingSigner{err: errors.New("boom")}
	cache := New(signer, time.Hour)

	if _, err := cache.Resolve(context.Background(), "k"); err == nil {
		t.Fatal("expected error from signer")
	}

	signer.err = nil
	if _, err := cache.Resolve(context.Background(), "k"); err != nil {
		t.Fatalf("resolve after recovery: %v", err)
	}
	if signer.calls != 2 {
		t.Fatalf("expected retry to reach signer, calls %d", signer.calls)
	}
}

func TestCache_InvalidateExpiredDropsOnlyStale(t *testing.T) {
	signer := &countingSigner{}
	cache := New(signer, time.Hour)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, err := cache.Resolve(context.Background(), "old"); err != nil {
		t.Fatalf("resolve old: %v", err)
	}

	now = now.Add(45 * time.Minute)
	if _, err := cache.Resolve(context.Background(), "fresh"); err != nil {
		t.Fatalf("resolve fresh: %v", err)
	}

	now = now.Add(30 * time.Minute) // old 已过期，fresh 还有 15 分钟
	cache.InvalidateExpired()

	if _, err := cache.Resolve(context.Background(), "fresh"); err != nil {
		t.Fatalf("resolve fresh again: %v", err)
	}
	if signer.calls != 2 {
		t.Fatalf("fresh entry was dropped, calls %d", signer.calls)
	}

	if _, err := cache.Resolve(context.Background(), "old"); err != nil {
		t.Fatalf("resolve old again: %v", err)
	}
	if signer.calls != 3 {
		t.Fatalf("expired entry not dropped, calls %d", signer.calls)
	}
}
