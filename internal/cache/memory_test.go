package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

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

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory[string](30*time.Second, clock.Now)

	if err := c.Set(ctx, "user-1", "profile"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := c.Get(ctx, "user-1")
	if err != nil || !ok || value != "profile" {
		t.Fatalf("expected hit, got %q %v %v", value, ok, err)
	}

	clock.Advance(29 * time.Second)
	if _, ok, _ := c.Get(ctx, "user-1"); !ok {
		t.Fatalf("expected entry to live until ttl")
	}

	clock.Advance(time.Second)
	if _, ok, _ := c.Get(ctx, "user-1"); ok {
		t.Fatalf("expected entry to expire at ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted on read")
	}
}

func TestMemoryDeleteAndPurge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory[int](time.Minute, clock.Now)

	_ = c.Set(ctx, "a", 1)
	_ = c.Set(ctx, "b", 2)
	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expected deleted key to miss")
	}

	clock.Advance(30 * time.Second)
	_ = c.Set(ctx, "c", 3)
	clock.Advance(45 * time.Second)
	if removed := c.Purge(); removed != 1 {
		t.Fatalf("expected one expired entry, got %d", removed)
	}
	if value, ok, _ := c.Get(ctx, "c"); !ok || value != 3 {
		t.Fatalf("expected fresh entry to survive purge")
	}
}

func TestMemoryZeroTTLDisablesCaching(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](0, nil)
	_ = c.Set(ctx, "k", "v")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected zero ttl cache to never hit")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, key, j)
				_, _, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Fatalf("expected 16 keys, got %d", c.Len())
	}
}
