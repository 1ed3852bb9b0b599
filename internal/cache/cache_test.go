package cache

import (
	"errors"
	"testing"
	"time"
)

type pairKey struct {
	a, b string
}

func TestTTL_GetSet(t *testing.T) {
	c := NewTTL[pairKey, float64](time.Minute)

	if _, ok := c.Get(pairKey{"x", "y"}); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(pairKey{"x", "y"}, 1.5)
	got, ok := c.Get(pairKey{"x", "y"})
	if !ok || got != 1.5 {
		t.Fatalf("Get() = %v, %v; want 1.5, true", got, ok)
	}
}

func TestTTL_Expiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewTTL(5*time.Minute, WithClock[pairKey, float64](clock))

	c.Set(pairKey{"a", "b"}, 2.0)

	now = now.Add(4 * time.Minute)
	if _, ok := c.Get(pairKey{"a", "b"}); !ok {
		t.Error("entry expired before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(pairKey{"a", "b"}); ok {
		t.Error("entry survived past TTL")
	}
}

func TestTTL_GetOrCompute(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", compute)
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Fatalf("GetOrCompute() = %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestTTL_GetOrCompute_ErrorNotCached(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	boom := errors.New("boom")
	calls := 0
	_, err := c.GetOrCompute("k", func() (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	v, err := c.GetOrCompute("k", func() (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("second GetOrCompute() = %d, %v; want 7, nil", v, err)
	}
	if calls != 2 {
		t.Errorf("compute called %d times, want 2", calls)
	}
}

func TestTTL_Purge(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewTTL(time.Minute, WithClock[string, int](clock))

	c.Set("old", 1)
	now = now.Add(2 * time.Minute)
	c.Set("fresh", 2)

	c.Purge()
	if c.Len() != 1 {
		t.Errorf("Len() = %d after purge, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry purged")
	}
}

func TestTTL_Stats(t *testing.T) {
	c := NewTTL[string, int](time.Minute)
	c.Set("k", 1)
	c.Get("k")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, size 1", s)
	}
}
