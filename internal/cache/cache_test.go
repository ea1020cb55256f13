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
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Errorf("Get(c) = %q, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestLRUExpires(t *testing.T) {
	c := NewLRU[int](10, time.Millisecond)
	c.Set("k", 42)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
}

func TestLRUPurge(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}
}
