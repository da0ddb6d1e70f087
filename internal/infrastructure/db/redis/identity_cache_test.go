package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
)

func newTestCache(t *testing.T) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdentityCache(client, time.Minute, zerolog.Nop()), mr
}

func testUser() *domain.User {
	return &domain.User{
		ID:           "user_1",
		Name:         "Tech",
		Email:        "tech@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         domain.RoleTechnician,
		Flags:        map[domain.Capability]bool{domain.CapServicePortal: true},
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testUser())

	got, ok := cache.Get(ctx, "tech@example.com")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.ID != "user_1" || got.Role != domain.RoleTechnician || !got.Flags[domain.CapServicePortal] {
		t.Fatalf("snapshot fields wrong: %+v", got)
	}
}

func TestSet_StripsPasswordHash(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testUser())

	got, ok := cache.Get(ctx, "tech@example.com")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.PasswordHash != "" {
		t.Fatalf("password hash must never reach the cache")
	}
}

func TestGet_CaseInsensitiveKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testUser())

	if _, ok := cache.Get(ctx, "TECH@Example.COM"); !ok {
		t.Fatalf("lookup must normalize the email key")
	}
}

func TestInvalidate_RemovesEntry(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testUser())
	cache.Invalidate(ctx, "Tech@Example.com")

	if _, ok := cache.Get(ctx, "tech@example.com"); ok {
		t.Fatalf("invalidated entry must be gone")
	}
}

func TestGet_ExpiredEntryMisses(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testUser())
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, "tech@example.com"); ok {
		t.Fatalf("expired entries must miss")
	}
}

func TestGet_CorruptEntryDegradesToMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := mr.Set("identity:tech@example.com", "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, ok := cache.Get(ctx, "tech@example.com"); ok {
		t.Fatalf("corrupt entries must degrade to a miss")
	}
	// The corrupt entry is dropped so it cannot poison later reads.
	if mr.Exists("identity:tech@example.com") {
		t.Fatalf("corrupt entry should be deleted")
	}
}
