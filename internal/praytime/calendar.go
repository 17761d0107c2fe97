package praytime

import (
	"fmt"

	"prayerd/internal/astro"
)

// CalendarEntry is one day of a projected calendar.
type CalendarEntry struct {
	Index    int // 0-based day offset from the projection start
	Date     astro.CivilDate
	Schedule Schedule
}

// Projection is a finite, restartable lazy sequence of daily schedules.
// Each element is an independent Compute call; no state flows between
// elements, so cost is linear in the number of days (two ephemeris
// evaluations each).
type Projection struct {
	start  astro.CivilDate
	days   int
	coord  astro.Coordinate
	method Method
	cache  *Cache

	next int
}

// Project validates the inputs and returns a projection over days
// consecutive dates starting at start.
func Project(start astro.CivilDate, days int, coord astro.Coordinate, m Method) (*Projection, error) {
	if days < 1 {
		return nil, fmt.Errorf("calendar projection needs days >= 1, got %d", days)
	}
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &Projection{start: start, days: days, coord: coord, method: m}, nil
}

// Len is the total number of days in the projection.
func (p *Projection) Len() int { return p.days }

// WithCache makes the projection read through c instead of computing each
// day afresh, so a calendar over already-memoized days costs nothing new.
func (p *Projection) WithCache(c *Cache) *Projection {
	p.cache = c
	return p
}

// Next produces the next entry. ok is false once the projection is
// exhausted. Inputs were validated in Project, so Compute cannot fail here.
func (p *Projection) Next() (CalendarEntry, bool) {
	if p.next >= p.days {
		return CalendarEntry{}, false
	}
	date := p.start
	for i := 0; i < p.next; i++ {
		date = date.Next()
	}
	var s Schedule
	var err error
	if p.cache != nil {
		s, err = p.cache.Schedule(date, p.coord, p.method)
	} else {
		s, err = Compute(date, p.coord, p.method)
	}
	if err != nil {
		// Unreachable after Project's validation; keep the sequence finite.
		return CalendarEntry{}, false
	}
	e := CalendarEntry{Index: p.next, Date: date, Schedule: s}
	p.next++
	return e, true
}

// Reset rewinds the projection to its first day.
func (p *Projection) Reset() { p.next = 0 }

// All materializes the remaining entries. Convenience for fixed-length
// tables (e.g. a 30-day month view).
func (p *Projection) All() []CalendarEntry {
	out := make([]CalendarEntry, 0, p.days-p.next)
	for {
		e, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}
