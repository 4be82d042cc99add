package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c := New[string](4)
	c.Set("a", "alpha", time.Minute)

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for key a")
	}
	if got != "alpha" {
		t.Fatalf("expected alpha, got %s", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c := New[int](4)
	c.Set("short", 1, 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected lazy purge on access, have %d entries", c.Len())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	c := New[int](3)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Minute)
	}

	// Touch k0 so k1 becomes the eviction candidate.
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("expected hit for k0")
	}

	c.Set("k3", 3, time.Minute)

	if _, ok := c.Get("k1"); ok {
		t.Fatal("expected k1 to be evicted as least recently used")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("expected k0 to survive eviction")
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, have %d", c.Len())
	}
}

func TestCache_InvalidatePattern(t *testing.T) {
	t.Parallel()

	c := New[int](8)
	c.Set("similar:1", 1, time.Minute)
	c.Set("similar:2", 2, time.Minute)
	c.Set("translate:abc", 3, time.Minute)

	removed := c.InvalidatePattern("similar:")
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := c.Get("translate:abc"); !ok {
		t.Fatal("unrelated entry should survive pattern invalidation")
	}
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c := New[int](8)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, have %d entries", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after clear")
	}
}
