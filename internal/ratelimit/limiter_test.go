package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestLimiter connects to a local Redis and cleans up test keys. Tests
// using it require a running Redis on localhost:6379.
func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	cleanup := func() {
		iter := client.Scan(ctx, 0, "rl:*:test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return NewLimiter(client)
}

func TestAllow_UnderLimit(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:sig:", Limit: 3, Window: 10 * time.Second}

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "test_under", rule)
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestAllow_OverLimit(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:sig:", Limit: 2, Window: 10 * time.Second}

	l.Allow(ctx, "test_over", rule)
	l.Allow(ctx, "test_over", rule)

	allowed, err := l.Allow(ctx, "test_over", rule)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if allowed {
		t.Error("request over the limit should be denied")
	}
}

func TestAllow_IndependentIdentifiers(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:find:", Limit: 1, Window: 10 * time.Second}

	l.Allow(ctx, "test_ident_a", rule)

	allowed, err := l.Allow(ctx, "test_ident_b", rule)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if !allowed {
		t.Error("a different identifier should have its own counter")
	}
}

func TestRemaining(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:rep:", Limit: 5, Window: 10 * time.Second}

	remaining, err := l.Remaining(ctx, "test_remaining", rule)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if remaining != 5 {
		t.Errorf("expected full limit 5 before any requests, got %d", remaining)
	}

	l.Allow(ctx, "test_remaining", rule)
	l.Allow(ctx, "test_remaining", rule)

	remaining, err = l.Remaining(ctx, "test_remaining", rule)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if remaining != 3 {
		t.Errorf("expected 3 remaining, got %d", remaining)
	}
}
