package sched

import (
	"testing"
	"time"

	"prayerd/internal/astro"
	"prayerd/internal/eventbus"
	"prayerd/internal/praytime"
	logx "prayerd/pkg/logx"
)

var feb18 = astro.CivilDate{Year: 2026, Month: time.February, Day: 18}

func drainTriggers(ch <-chan eventbus.Event) []Trigger {
	var out []Trigger
	for {
		select {
		case e := <-ch:
			if e.Topic != eventbus.TopicAdhanTrigger {
				continue
			}
			out = append(out, e.Data.(Trigger))
		default:
			return out
		}
	}
}

func newTestService(t *testing.T) (*Service, <-chan eventbus.Event, func()) {
	t.Helper()
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(16)
	svc := New(Config{Coord: dhaka, Method: praytime.MWL()}, bus, logx.Nop())
	return svc, ch, unsub
}

func TestTickFiresIftarOnce(t *testing.T) {
	t.Parallel()
	svc, ch, unsub := newTestService(t)
	defer unsub()

	maghrib := dhakaSchedule(t, feb18).Maghrib

	// One-second ticks walking across the boundary. The sub-second tick
	// before the instant is the zero crossing (floor semantics).
	offsets := []time.Duration{
		-2500 * time.Millisecond,
		-1500 * time.Millisecond,
		-500 * time.Millisecond,
		500 * time.Millisecond,
		1500 * time.Millisecond,
	}
	for _, off := range offsets {
		svc.tickOnce(maghrib.Add(off))
	}

	got := drainTriggers(ch)
	if len(got) != 1 {
		t.Fatalf("fired %d triggers, want 1", len(got))
	}
	if got[0].Kind != Iftar || !got[0].At.Equal(maghrib) {
		t.Fatalf("trigger = %v @ %v, want Iftar @ %v", got[0].Kind, got[0].At, maghrib)
	}
}

func TestTickFiresSkippedBoundary(t *testing.T) {
	t.Parallel()
	svc, ch, unsub := newTestService(t)
	defer unsub()

	maghrib := dhakaSchedule(t, feb18).Maghrib

	// A stall across the boundary: the next tick already sees tomorrow's
	// event, but the elapsed iftar must still fire exactly once.
	svc.tickOnce(maghrib.Add(-10 * time.Second))
	svc.tickOnce(maghrib.Add(5 * time.Second))

	got := drainTriggers(ch)
	if len(got) != 1 {
		t.Fatalf("fired %d triggers, want 1", len(got))
	}
	if got[0].Kind != Iftar || !got[0].At.Equal(maghrib) {
		t.Fatalf("trigger = %v @ %v, want Iftar @ %v", got[0].Kind, got[0].At, maghrib)
	}

	// Continued ticking stays quiet until the next boundary.
	svc.tickOnce(maghrib.Add(6 * time.Second))
	svc.tickOnce(maghrib.Add(7 * time.Second))
	if extra := drainTriggers(ch); len(extra) != 0 {
		t.Fatalf("unexpected extra triggers: %d", len(extra))
	}
}

func TestServiceNextAndSchedule(t *testing.T) {
	t.Parallel()
	svc, _, unsub := newTestService(t)
	defer unsub()

	now := utc(2026, time.February, 18, 6, 0, 0)
	ev, cd, err := svc.Next(now)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if ev.Kind != Iftar {
		t.Fatalf("Kind = %v, want Iftar", ev.Kind)
	}
	if cd.Total != RemainingSeconds(now, ev) {
		t.Fatalf("countdown total %d does not match remaining", cd.Total)
	}

	sch, err := svc.Schedule(now)
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if sch.Date != feb18 {
		t.Fatalf("Schedule date = %v, want 2026-02-18", sch.Date)
	}
	if !ev.At.Equal(sch.Maghrib) {
		t.Fatalf("event at %v, schedule maghrib %v", ev.At, sch.Maghrib)
	}
	if svc.Cache().Len() == 0 {
		t.Fatal("cache should hold the computed day")
	}
}

func TestServiceApplyResetsOnChange(t *testing.T) {
	t.Parallel()
	svc, _, unsub := newTestService(t)
	defer unsub()

	now := utc(2026, time.February, 18, 6, 0, 0)
	if _, err := svc.Schedule(now); err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if svc.Cache().Len() == 0 {
		t.Fatal("precondition: cache warm")
	}

	// Same inputs: nothing dropped.
	svc.Apply(Config{Coord: dhaka, Method: praytime.MWL()})
	if svc.Cache().Len() == 0 {
		t.Fatal("unchanged Apply must keep the cache")
	}

	// New location: cache and fired identity are dropped.
	svc.guard.Observe(Event{Kind: Iftar, At: now}, now)
	svc.Apply(Config{Coord: astro.Coordinate{Latitude: 51.4769}, Method: praytime.MWL()})
	if svc.Cache().Len() != 0 {
		t.Fatal("changed Apply must purge the cache")
	}
	if _, ok := svc.guard.Last(); ok {
		t.Fatal("changed Apply must reset the guard")
	}

	sch, err := svc.Schedule(now)
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if sch.Coord.Latitude != 51.4769 {
		t.Fatalf("schedule coord = %v, want Greenwich", sch.Coord)
	}
}

func TestRefreshRunsWhileServiceLocked(t *testing.T) {
	t.Parallel()
	// Stop and Apply hold the service mutex while waiting for running
	// cron jobs to drain. The cron job is refresh, so a refresh that
	// needed the mutex would deadlock the once-daily job against any
	// concurrent reload or shutdown.
	svc, ch, unsub := newTestService(t)
	defer unsub()

	svc.mu.Lock()
	done := make(chan struct{})
	go func() {
		svc.refresh()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		svc.mu.Unlock()
		t.Fatal("refresh blocked on the service mutex")
	}
	svc.mu.Unlock()

	// The refresh did its work: today and tomorrow are warm and the new
	// day was announced.
	if svc.Cache().Len() != 2 {
		t.Fatalf("cache len = %d, want 2", svc.Cache().Len())
	}
	seen := false
	for {
		select {
		case e := <-ch:
			if e.Topic == eventbus.TopicScheduleRefreshed {
				seen = true
				continue
			}
			continue
		default:
		}
		break
	}
	if !seen {
		t.Fatal("refresh did not announce the new day")
	}
}

func TestConfigTickClamp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{in: 0, want: time.Second},
		{in: -time.Second, want: time.Second},
		{in: 250 * time.Millisecond, want: 250 * time.Millisecond},
		{in: time.Second, want: time.Second},
		{in: 5 * time.Second, want: time.Second},
	}
	for _, tt := range tests {
		if got := (Config{Tick: tt.in}).tick(); got != tt.want {
			t.Fatalf("tick(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
