// Package sched tracks the next fasting boundary (end of sehri, or iftar),
// counts down to it, and guarantees the zero crossing of each boundary
// fires exactly once. Evaluation is stateless and recomputed per tick; the
// only state is the fired-event identity held by FiredGuard.
package sched

import (
	"fmt"
	"time"
)

// EventKind identifies a fasting boundary.
type EventKind int

const (
	// SehriEnds is the Imsak instant closing the pre-dawn meal.
	SehriEnds EventKind = iota
	// Iftar is the Maghrib instant breaking the fast.
	Iftar
)

func (k EventKind) String() string {
	switch k {
	case SehriEnds:
		return "sehri_ends"
	case Iftar:
		return "iftar"
	default:
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
}

// Event is the upcoming boundary. Its identity is the (Kind, At) pair;
// events are ephemeral and recomputed every tick, never persisted.
type Event struct {
	Kind EventKind
	At   time.Time // UTC
}

// Same reports identity equality.
func (e Event) Same(o Event) bool {
	return e.Kind == o.Kind && e.At.Equal(o.At)
}

// RemainingSeconds is the whole seconds left until the event, clamped at
// zero; it never goes negative.
func RemainingSeconds(now time.Time, e Event) int64 {
	d := e.At.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Countdown is the remaining duration decomposed for display.
type Countdown struct {
	Hours   int64
	Minutes int64
	Seconds int64
	Total   int64 // total remaining seconds
}

// CountdownTo decomposes the remaining seconds via integer division.
func CountdownTo(now time.Time, e Event) Countdown {
	total := RemainingSeconds(now, e)
	return Countdown{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
		Total:   total,
	}
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// Trigger is the one-shot signal published when a countdown reaches zero.
// The notification collaborator owns whatever playback it starts; the core
// never waits on it.
type Trigger struct {
	Kind    EventKind
	At      time.Time // the boundary instant
	FiredAt time.Time // when the zero crossing was observed
}
