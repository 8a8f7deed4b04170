package tokenstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness exposes a Store plus a way to move its notion of time forward
type harness struct {
	store   Store
	advance func(time.Duration)
}

func newHarnesses(t *testing.T) map[string]func(*testing.T) harness {
	t.Helper()
	return map[string]func(*testing.T) harness{
		"memory": func(t *testing.T) harness {
			clock := &fakeClock{now: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)}
			return harness{
				store:   NewMemoryStore().WithClock(clock.Now),
				advance: clock.Advance,
			}
		},
		"redis": func(t *testing.T) harness {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return harness{
				store:   NewRedisStore(client),
				advance: mr.FastForward,
			}
		},
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	for name, newHarness := range newHarnesses(t) {
		newHarness := newHarness
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			ctx := context.Background()

			if err := h.store.Set(ctx, "access_token:u1", "token-a", time.Hour); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			got, err := h.store.Get(ctx, "access_token:u1")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != "token-a" {
				t.Errorf("Expected 'token-a', got '%s'", got)
			}

			if err := h.store.Set(ctx, "access_token:u1", "token-b", time.Hour); err != nil {
				t.Fatalf("Overwrite failed: %v", err)
			}
			got, err = h.store.Get(ctx, "access_token:u1")
			if err != nil || got != "token-b" {
				t.Errorf("Expected overwritten value 'token-b', got '%s' (err=%v)", got, err)
			}

			if err := h.store.Delete(ctx, "access_token:u1"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := h.store.Get(ctx, "access_token:u1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound after delete, got %v", err)
			}

			if err := h.store.Delete(ctx, "access_token:u1"); err != nil {
				t.Errorf("Expected deleting an absent key to succeed, got %v", err)
			}
		})
	}
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()

	for name, newHarness := range newHarnesses(t) {
		newHarness := newHarness
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			ctx := context.Background()

			if err := h.store.Set(ctx, "refresh_token:u1", "refresh", 10*time.Second); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			h.advance(9 * time.Second)
			if _, err := h.store.Get(ctx, "refresh_token:u1"); err != nil {
				t.Errorf("Expected key to be live before TTL, got %v", err)
			}

			h.advance(2 * time.Second)
			if _, err := h.store.Get(ctx, "refresh_token:u1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound after TTL, got %v", err)
			}
		})
	}
}

func TestStore_RejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()

	for name, newHarness := range newHarnesses(t) {
		newHarness := newHarness
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			if err := h.store.Set(context.Background(), "k", "v", 0); err == nil {
				t.Error("Expected error for zero TTL")
			}
		})
	}
}

func TestRedisStore_SurfacesConnectionErrors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client)

	mr.Close()

	_, err := store.Get(context.Background(), "access_token:u1")
	if err == nil {
		t.Fatal("Expected error when Redis is unreachable")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Connection failure must not be reported as ErrNotFound")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "refresh_token:u1", "value", time.Minute)
			_, _ = store.Get(ctx, "refresh_token:u1")
			_ = store.Delete(ctx, "refresh_token:u1")
		}()
	}
	wg.Wait()

	if store.Len() > 1 {
		t.Errorf("Expected at most one entry, got %d", store.Len())
	}
}
