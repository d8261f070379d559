package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Fatalf("expected c=3, got %q (%v)", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)
	c.Set("k", 42)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expired entry must not be served")
	}

	c.Set("k", 42)
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry cleaned, got %d", n)
	}
}

func TestGetOrCompute(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	calls := 0
	f := func() int { calls++; return 7 }

	if v := c.GetOrCompute("k", f); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if v := c.GetOrCompute("k", f); v != 7 {
		t.Fatalf("expected 7 from cache, got %d", v)
	}
	if calls != 1 {
		t.Fatalf("compute should run once, ran %d times", calls)
	}
}

func TestKeyEmbedsVersion(t *testing.T) {
	a := Key("dashboard", 1)
	b := Key("dashboard", 2)
	if a == b {
		t.Fatalf("keys for different versions must differ")
	}
	if got := Key("budgets", 3, "2025-06"); got != "budgets|v3|2025-06" {
		t.Fatalf("unexpected key %q", got)
	}
}
