package sched

import (
	"time"

	"prayerd/internal/astro"
	"prayerd/internal/praytime"
)

// Scheduler resolves the next boundary from the current instant. It carries
// no state between evaluations: every call recomputes from scratch, which
// makes it idempotent and restart-safe. The schedule cache behind it is the
// only optimization.
type Scheduler struct {
	cache *praytime.Cache
}

// NewScheduler builds a scheduler over a shared schedule cache. cache may
// be nil, in which case every evaluation computes fresh.
func NewScheduler(cache *praytime.Cache) *Scheduler {
	return &Scheduler{cache: cache}
}

func (s *Scheduler) schedule(date astro.CivilDate, coord astro.Coordinate, m praytime.Method) (praytime.Schedule, error) {
	if s.cache != nil {
		return s.cache.Schedule(date, coord, m)
	}
	return praytime.Compute(date, coord, m)
}

// Evaluate returns the next boundary after now.
//
// The rule, in order, against the schedule of the civil day at coord's
// mean-time offset:
//
//  1. now < today.Imsak   -> SehriEnds @ today.Imsak
//  2. now < today.Maghrib -> Iftar @ today.Maghrib
//  3. otherwise           -> SehriEnds @ tomorrow.Imsak
//
// Boundary instants belong to the next branch (strict <): at exactly Imsak
// the sehri boundary has elapsed and Iftar is next. The three branches are
// total, so any now, however far in the past or future, resolves
// deterministically.
func (s *Scheduler) Evaluate(now time.Time, coord astro.Coordinate, m praytime.Method) (Event, error) {
	now = now.UTC()
	today := astro.DateOf(now, coord.MeanOffset())

	sch, err := s.schedule(today, coord, m)
	if err != nil {
		return Event{}, err
	}
	switch {
	case now.Before(sch.Imsak):
		return Event{Kind: SehriEnds, At: sch.Imsak}, nil
	case now.Before(sch.Maghrib):
		return Event{Kind: Iftar, At: sch.Maghrib}, nil
	}

	next, err := s.schedule(today.Next(), coord, m)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: SehriEnds, At: next.Imsak}, nil
}
