package dupcache

import "testing"

func TestCacheHitAndUnorderedKey(t *testing.T) {
	c := New()
	c.Put("a", "b", "A.java", "B.java", 0.9)

	if v, ok := c.Get("a", "b", "A.java", "B.java"); !ok || v != 0.9 {
		t.Fatalf("expected hit with 0.9, got %v %v", v, ok)
	}
	if v, ok := c.Get("b", "a", "B.java", "A.java"); !ok || v != 0.9 {
		t.Fatalf("expected order-independent hit, got %v %v", v, ok)
	}
}

func TestCacheMissOnUnknownPair(t *testing.T) {
	c := New()
	if _, ok := c.Get("a", "b", "A.java", "B.java"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestCacheInvalidatePaths(t *testing.T) {
	c := New()
	c.Put("a", "b", "A.java", "B.java", 0.5)
	c.Put("c", "d", "C.java", "D.java", 0.7)

	c.InvalidatePaths([]string{"A.java"})

	if _, ok := c.Get("a", "b", "A.java", "B.java"); ok {
		t.Fatal("expected entry touching A.java to be invalidated")
	}
	if v, ok := c.Get("c", "d", "C.java", "D.java"); !ok || v != 0.7 {
		t.Fatal("expected unrelated entry to survive invalidation")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", c.Len())
	}
}

func TestCacheStalePathMismatchIsMiss(t *testing.T) {
	c := New()
	c.Put("a", "b", "A.java", "B.java", 0.9)
	// Same ids, but one side now claims a different file: treat as a miss
	// rather than trusting a possibly-renamed/stale membership.
	if _, ok := c.Get("a", "b", "A.java", "Renamed.java"); ok {
		t.Fatal("expected miss when recorded path no longer matches")
	}
}
