package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis-backed tests require a local Redis and skip when it is unavailable.
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T, prefix string) *RedisCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cache := New(client, prefix, 5*time.Minute)
	t.Cleanup(func() {
		cache.InvalidateAll(ctx)
		client.Close()
	})
	return cache
}

func TestRedisCache_GetSet(t *testing.T) {
	cache := setupTestCache(t, "test:getset:")
	ctx := context.Background()

	type entry struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("miss on absent key", func(t *testing.T) {
		var out entry
		found, err := cache.Get(ctx, "absent", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("expected a miss for absent key")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		in := entry{Name: "tasks", Count: 3}
		if err := cache.Set(ctx, "list", in); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		var out entry
		found, err := cache.Get(ctx, "list", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !found {
			t.Fatal("expected a hit after Set")
		}
		if out != in {
			t.Errorf("got %+v, want %+v", out, in)
		}
	})
}

func TestRedisCache_InvalidateAll(t *testing.T) {
	cache := setupTestCache(t, "test:invalidate:")
	ctx := context.Background()

	for _, key := range []string{"list", "stats"} {
		if err := cache.Set(ctx, key, map[string]int{"n": 1}); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}

	for _, key := range []string{"list", "stats"} {
		var out map[string]int
		found, err := cache.Get(ctx, key, &out)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", key, err)
		}
		if found {
			t.Errorf("expected %q to be invalidated", key)
		}
	}
}

func TestNoop(t *testing.T) {
	var c Service = Noop{}
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out string
	found, err := c.Get(ctx, "key", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("noop cache must never report a hit")
	}

	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
}
