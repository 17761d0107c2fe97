package praytime

import (
	"sync"

	"prayerd/internal/astro"
)

// Cache memoizes schedules per (date, coordinate, method) key. Computing a
// schedule costs two ephemeris evaluations, which is cheap, but the tick
// loop asks for today's schedule once a second; the cache turns that into
// one computation per calendar day.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Schedule
}

func NewCache() *Cache {
	return &Cache{entries: map[string]Schedule{}}
}

func cacheKey(date astro.CivilDate, coord astro.Coordinate, m Method) string {
	return date.String() + "|" + coord.String() + "|" + m.key()
}

// Schedule returns the cached schedule for the key, computing and storing
// it on a miss.
func (c *Cache) Schedule(date astro.CivilDate, coord astro.Coordinate, m Method) (Schedule, error) {
	key := cacheKey(date, coord, m)

	c.mu.RLock()
	s, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := Compute(date, coord, m)
	if err != nil {
		return Schedule{}, err
	}

	c.mu.Lock()
	c.entries[key] = s
	c.mu.Unlock()
	return s, nil
}

// Invalidate drops the entry for one key.
func (c *Cache) Invalidate(date astro.CivilDate, coord astro.Coordinate, m Method) {
	c.mu.Lock()
	delete(c.entries, cacheKey(date, coord, m))
	c.mu.Unlock()
}

// Purge drops every entry. Used when location or method change on reload.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = map[string]Schedule{}
	c.mu.Unlock()
}

// Len reports the number of cached days.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
