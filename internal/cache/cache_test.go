package cache

import (
	"errors"
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	c := New[string](time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestCache_GetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := New[int](time.Minute)
	calls := 0
	boom := errors.New("boom")

	if _, err := c.GetOrLoad("k", func() (int, error) { calls++; return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err := c.GetOrLoad("k", func() (int, error) { calls++; return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("got %d %v", v, err)
	}
	v, _ = c.GetOrLoad("k", func() (int, error) { calls++; return 9, nil })
	if v != 7 || calls != 2 {
		t.Fatalf("expected cached 7 after 2 loads, got %d after %d", v, calls)
	}

	c.Clear()
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected empty cache after Clear")
	}
}
