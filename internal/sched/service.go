package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"prayerd/internal/astro"
	"prayerd/internal/eventbus"
	"prayerd/internal/praytime"
	logx "prayerd/pkg/logx"
)

// Config drives the tick service.
type Config struct {
	// Tick is the evaluation period. The countdown assumes at least 1 Hz
	// so the zero crossing can't be skipped; larger values are clamped.
	Tick time.Duration

	Coord  astro.Coordinate
	Method praytime.Method
}

func (c Config) tick() time.Duration {
	if c.Tick <= 0 || c.Tick > time.Second {
		return time.Second
	}
	return c.Tick
}

// Service owns the tick loop: evaluate once per tick, publish a Trigger on
// each zero crossing, and refresh the day's schedule once per (mean-time)
// calendar day via cron.
type Service struct {
	mu sync.Mutex

	// cfg is read lock-free by the tick and cron paths. Stop and Apply
	// wait for running cron jobs while holding mu, so refresh must never
	// take it.
	cfg atomic.Value // Config

	log   logx.Logger
	bus   eventbus.Bus
	cache *praytime.Cache

	sched *Scheduler
	guard *FiredGuard

	c      *cron.Cron
	stopCh chan struct{}

	// cur tracks the identity returned by the previous tick so a boundary
	// crossed between ticks still fires exactly once.
	cur   Event
	curOK bool
}

func New(cfg Config, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cache := praytime.NewCache()
	s := &Service{
		log:   log,
		bus:   bus,
		cache: cache,
		sched: NewScheduler(cache),
		guard: &FiredGuard{},
	}
	s.cfg.Store(cfg)
	return s
}

// Cache exposes the shared schedule cache (used by the HTTP API).
func (s *Service) Cache() *praytime.Cache { return s.cache }

// Start launches the tick loop and the daily refresh trigger. Idempotent.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})

	s.startCronLocked()
	go s.run(ctx, s.stopCh)

	cfg := s.config()
	s.log.Info("scheduler started",
		logx.String("coord", cfg.Coord.String()),
		logx.String("method", cfg.Method.Name),
		logx.Duration("tick", cfg.tick()))
}

// Stop halts the tick loop and the cron trigger. Idempotent.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	s.log.Info("scheduler stopped")
}

// Apply swaps location/method at runtime. Outstanding cached days and the
// fired identity are dropped; the next tick recomputes against the new
// inputs.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.config()
	changed := cfg.Coord != prev.Coord || cfg.Method != prev.Method
	s.cfg.Store(cfg)
	if !changed {
		return
	}

	s.cache.Purge()
	s.guard.Reset()
	s.curOK = false
	if s.stopCh != nil {
		s.restartCronLocked()
	}
	s.log.Info("scheduler reconfigured",
		logx.String("coord", cfg.Coord.String()),
		logx.String("method", cfg.Method.Name))
}

// Next evaluates the upcoming boundary and its countdown at now.
func (s *Service) Next(now time.Time) (Event, Countdown, error) {
	coord, method := s.inputs()
	ev, err := s.sched.Evaluate(now, coord, method)
	if err != nil {
		return Event{}, Countdown{}, err
	}
	return ev, CountdownTo(now, ev), nil
}

// Schedule returns the (cached) schedule of the civil day containing now.
func (s *Service) Schedule(now time.Time) (praytime.Schedule, error) {
	coord, method := s.inputs()
	return s.cache.Schedule(astro.DateOf(now, coord.MeanOffset()), coord, method)
}

func (s *Service) config() Config {
	return s.cfg.Load().(Config)
}

func (s *Service) inputs() (astro.Coordinate, praytime.Method) {
	cfg := s.config()
	return cfg.Coord, cfg.Method
}

func (s *Service) run(ctx context.Context, stopCh chan struct{}) {
	t := time.NewTicker(s.config().tick())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case now := <-t.C:
			s.tickOnce(now)
		}
	}
}

// tickOnce is one scheduler evaluation. It is synchronous, non-blocking
// and free of I/O; publishing drops on slow subscribers instead of waiting.
func (s *Service) tickOnce(now time.Time) {
	coord, method := s.inputs()
	ev, err := s.sched.Evaluate(now, coord, method)
	if err != nil {
		s.log.Warn("evaluate failed", logx.Err(err))
		return
	}

	s.mu.Lock()
	prev, prevOK := s.cur, s.curOK
	s.cur, s.curOK = ev, true
	s.mu.Unlock()

	// A tick landing exactly on (or past) the boundary makes Evaluate
	// return the next identity; the elapsed one must still fire once.
	if prevOK && !prev.Same(ev) && !now.Before(prev.At) {
		if s.guard.Observe(prev, now) {
			s.fire(prev, now)
		}
	}
	if s.guard.Observe(ev, now) {
		s.fire(ev, now)
	}
}

func (s *Service) fire(ev Event, now time.Time) {
	s.log.Info("boundary reached",
		logx.String("kind", ev.Kind.String()),
		logx.Time("at", ev.At))
	s.bus.Publish(eventbus.Event{
		Topic: eventbus.TopicAdhanTrigger,
		Data:  Trigger{Kind: ev.Kind, At: ev.At, FiredAt: now.UTC()},
	})
}

// startCronLocked arms the daily refresh at mean-time midnight for the
// configured longitude, and warms the cache immediately.
func (s *Service) startCronLocked() {
	zone := time.FixedZone("mean", int(s.config().Coord.MeanOffset()/time.Second))
	s.c = cron.New(cron.WithLocation(zone))
	_, err := s.c.AddFunc("0 0 * * *", s.refresh)
	if err != nil {
		s.log.Warn("daily refresh not scheduled", logx.Err(err))
	}
	s.c.Start()
	go s.refresh()
}

func (s *Service) restartCronLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
	s.startCronLocked()
}

// refresh recomputes today's and tomorrow's schedules into the cache and
// announces the new day. Expensive work happens here once per day; the
// tick path only reads the cache.
func (s *Service) refresh() {
	coord, method := s.inputs()
	today := astro.DateOf(time.Now(), coord.MeanOffset())

	sch, err := s.cache.Schedule(today, coord, method)
	if err != nil {
		s.log.Warn("schedule refresh failed", logx.Err(err))
		return
	}
	if _, err := s.cache.Schedule(today.Next(), coord, method); err != nil {
		s.log.Warn("schedule prefetch failed", logx.Err(err))
	}

	s.log.Info("schedule refreshed",
		logx.String("date", today.String()),
		logx.Time("fajr", sch.Fajr),
		logx.Time("maghrib", sch.Maghrib),
		logx.Bool("high_lat", sch.HighLatApplied))
	s.bus.Publish(eventbus.Event{Topic: eventbus.TopicScheduleRefreshed, Data: sch})
}
