package praytime

import (
	"sync"
	"testing"
	"time"

	"prayerd/internal/astro"
)

func TestCacheHitAndInvalidate(t *testing.T) {
	t.Parallel()
	c := NewCache()
	date := astro.CivilDate{Year: 2026, Month: time.February, Day: 18}

	a, err := c.Schedule(date, dhaka, MWL())
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	b, err := c.Schedule(date, dhaka, MWL())
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if a != b {
		t.Fatal("cache hit returned a different schedule")
	}

	// A different method is a different key.
	if _, err := c.Schedule(date, dhaka, mustMethod(t, "isna")); err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	c.Invalidate(date, dhaka, MWL())
	if c.Len() != 1 {
		t.Fatalf("Len after Invalidate = %d, want 1", c.Len())
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len after Purge = %d, want 0", c.Len())
	}
}

func TestCacheRejectsBadInput(t *testing.T) {
	t.Parallel()
	c := NewCache()
	date := astro.CivilDate{Year: 2026, Month: time.February, Day: 18}
	if _, err := c.Schedule(date, astro.Coordinate{Latitude: 91}, MWL()); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Fatal("failed computation must not be cached")
	}
}

func TestCacheConcurrent(t *testing.T) {
	t.Parallel()
	c := NewCache()
	date := astro.CivilDate{Year: 2026, Month: time.February, Day: 18}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := date
			for j := 0; j < i%4; j++ {
				d = d.Next()
			}
			if _, err := c.Schedule(d, dhaka, MWL()); err != nil {
				t.Errorf("Schedule error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}
}

func mustMethod(t *testing.T, name string) Method {
	t.Helper()
	m, ok := MethodByName(name)
	if !ok {
		t.Fatalf("preset %q missing", name)
	}
	return m
}
