package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLRUCache_SetGetAndEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	c.Set("c", 3) // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("Get(c) = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d", c.Size())
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("Stats = %d/%d", hits, misses)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired too early")
	}
	now = now.Add(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size = %d", c.Size())
	}
}

func TestLRUCache_ZeroTTLDisables(t *testing.T) {
	c := NewLRUCache[int](10, 0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatal("zero ttl must not cache")
	}
}

func TestLRUCache_DeleteAndClear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be deleted")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatal("Clear left entries behind")
	}
	c.Set("c", 3)
	if _, ok := c.Get("c"); !ok {
		t.Fatal("cache unusable after Clear")
	}
}

func TestGetOrLoad(t *testing.T) {
	c := NewLRUCache[[]string](4, time.Minute)
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"x"}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrLoad[[]string](context.Background(), c, "k", load)
		if err != nil || len(v) != 1 {
			t.Fatalf("GetOrLoad = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times", calls)
	}

	boom := errors.New("boom")
	_, err := GetOrLoad[[]string](context.Background(), c, "bad", func(context.Context) ([]string, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("failed load must not be cached")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)
	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("manager never cleaned the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(0)
	m.Stop()
}
