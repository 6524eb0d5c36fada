package utils

import (
	"sync/atomic"
	"testing"
)

func TestNewIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatalf("empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSortKeyOrdering(t *testing.T) {
	// later timestamps sort after earlier ones
	a := SortKey(1000)
	b := SortKey(2000)
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
	// equal timestamps are disambiguated by the sequence counter
	c := SortKey(3000)
	d := SortKey(3000)
	if !(c < d) {
		t.Fatalf("expected %q < %q", c, d)
	}
}

func TestSortKeyOrderingAcrossCounterBoundary(t *testing.T) {
	atomic.StoreUint64(&seq, 999_998)
	prev := SortKey(42)
	for i := 0; i < 4; i++ {
		next := SortKey(42)
		if prev >= next {
			t.Fatalf("keys out of order: %q >= %q", prev, next)
		}
		prev = next
	}
}
