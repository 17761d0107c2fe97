package sched

import (
	"testing"
	"time"
)

func utc(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestEventKindString(t *testing.T) {
	t.Parallel()
	if SehriEnds.String() != "sehri_ends" || Iftar.String() != "iftar" {
		t.Fatalf("kind strings: %s, %s", SehriEnds, Iftar)
	}
}

func TestEventSame(t *testing.T) {
	t.Parallel()
	at := utc(2026, time.February, 18, 11, 55, 12)
	a := Event{Kind: Iftar, At: at}
	if !a.Same(Event{Kind: Iftar, At: at}) {
		t.Fatal("identical events should be Same")
	}
	if a.Same(Event{Kind: SehriEnds, At: at}) {
		t.Fatal("different kinds should not be Same")
	}
	if a.Same(Event{Kind: Iftar, At: at.Add(time.Second)}) {
		t.Fatal("different instants should not be Same")
	}
	// Same compares instants, not wall representations.
	if !a.Same(Event{Kind: Iftar, At: at.In(time.FixedZone("x", 3600))}) {
		t.Fatal("equal instants in different zones should be Same")
	}
}

func TestRemainingSeconds(t *testing.T) {
	t.Parallel()
	at := utc(2026, time.February, 18, 12, 0, 0)
	ev := Event{Kind: Iftar, At: at}
	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{name: "ninety minutes out", now: at.Add(-90 * time.Minute), want: 5400},
		{name: "sub second floors", now: at.Add(-1500 * time.Millisecond), want: 1},
		{name: "half second floors to zero", now: at.Add(-500 * time.Millisecond), want: 0},
		{name: "exact boundary", now: at, want: 0},
		{name: "past clamps", now: at.Add(time.Hour), want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingSeconds(tt.now, ev); got != tt.want {
				t.Fatalf("RemainingSeconds = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountdownTo(t *testing.T) {
	t.Parallel()
	at := utc(2026, time.February, 18, 12, 0, 0)
	ev := Event{Kind: Iftar, At: at}

	c := CountdownTo(at.Add(-(2*time.Hour + 34*time.Minute + 56*time.Second)), ev)
	if c.Hours != 2 || c.Minutes != 34 || c.Seconds != 56 || c.Total != 9296 {
		t.Fatalf("Countdown = %+v", c)
	}
	if c.String() != "02:34:56" {
		t.Fatalf("String = %s", c.String())
	}

	c = CountdownTo(at.Add(time.Minute), ev)
	if c.Total != 0 || c.String() != "00:00:00" {
		t.Fatalf("past countdown = %+v (%s)", c, c.String())
	}

	// More than a day out the hours field keeps counting.
	c = CountdownTo(at.Add(-25*time.Hour), ev)
	if c.Hours != 25 || c.Minutes != 0 || c.Seconds != 0 {
		t.Fatalf("long countdown = %+v", c)
	}
}
