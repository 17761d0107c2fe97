// Package notify forwards adhan triggers and daily summaries to the
// notification collaborator (a Telegram chat). The collaborator owns
// playback; this side only emits the signal and records the outcome.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"prayerd/internal/eventbus"
	"prayerd/internal/praytime"
	"prayerd/internal/sched"
	"prayerd/internal/storage"
	logx "prayerd/pkg/logx"
)

// Sender is the outbound transport. *telegram.Adapter satisfies it.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Config struct {
	// Enabled gates forwarding. The scheduler keeps firing either way;
	// a disabled notifier just drops the signal (and still ledgers it).
	Enabled bool

	ChatID     int64
	RatePerSec int

	// Label names the location in messages ("Dhaka").
	Label string
	// Offset is the mean-time offset used to render HH:MM in messages.
	Offset time.Duration
}

type Record struct {
	Trigger   sched.Trigger
	Delivered bool
	Error     string
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log    logx.Logger
	sender Sender
	store  storage.Store // may be nil

	limiter *rate.Limiter

	stopCh  chan struct{}
	unsub   func()
	history []Record
}

func New(cfg Config, sender Sender, store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		sender:  sender,
		store:   store,
		limiter: newLimiter(cfg.RatePerSec),
	}
}

func newLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}
	return rate.NewLimiter(rate.Limit(rps), rps)
}

// Start subscribes to the bus and consumes trigger/refresh events until
// Stop or ctx cancel. Idempotent.
func (n *Service) Start(ctx context.Context, bus eventbus.Bus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopCh != nil {
		return
	}
	n.stopCh = make(chan struct{})

	ch, unsub := bus.Subscribe(16)
	n.unsub = unsub
	go n.consume(ctx, ch, n.stopCh)
	n.log.Info("notifier started", logx.Bool("enabled", n.cfg.Enabled))
}

func (n *Service) Stop(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopCh == nil {
		return
	}
	close(n.stopCh)
	n.stopCh = nil
	if n.unsub != nil {
		n.unsub()
		n.unsub = nil
	}
	n.log.Info("notifier stopped")
}

// Apply swaps the gate/target/rate at runtime.
func (n *Service) Apply(cfg Config) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cfg.RatePerSec != n.cfg.RatePerSec {
		n.limiter = newLimiter(cfg.RatePerSec)
	}
	n.cfg = cfg
}

func (n *Service) snapshot() Config {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cfg
}

func (n *Service) consume(ctx context.Context, ch <-chan eventbus.Event, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch ev.Topic {
			case eventbus.TopicAdhanTrigger:
				if trig, ok := ev.Data.(sched.Trigger); ok {
					n.handleTrigger(ctx, trig)
				}
			case eventbus.TopicScheduleRefreshed:
				if sch, ok := ev.Data.(praytime.Schedule); ok {
					n.handleRefreshed(ctx, sch)
				}
			}
		}
	}
}

func (n *Service) handleTrigger(ctx context.Context, trig sched.Trigger) {
	cfg := n.snapshot()

	rec := Record{Trigger: trig}
	if cfg.Enabled && n.sender != nil && cfg.ChatID != 0 {
		err := n.deliver(ctx, cfg, triggerText(cfg, trig))
		if err != nil {
			rec.Error = err.Error()
			n.log.Warn("trigger delivery failed",
				logx.String("kind", trig.Kind.String()), logx.Err(err))
		} else {
			rec.Delivered = true
			n.log.Debug("trigger delivered",
				logx.String("kind", trig.Kind.String()), logx.Int64("chat_id", cfg.ChatID))
		}
	} else {
		n.log.Debug("trigger suppressed",
			logx.String("kind", trig.Kind.String()), logx.Bool("enabled", cfg.Enabled))
	}
	n.appendHistory(rec)

	if n.store != nil {
		e := storage.FiredEvent{
			Kind:      trig.Kind.String(),
			At:        trig.At,
			FiredAt:   trig.FiredAt,
			Delivered: rec.Delivered,
			Error:     rec.Error,
		}
		if err := n.store.AppendFired(ctx, e); err != nil {
			n.log.Warn("ledger append failed", logx.Err(err))
		}
	}
}

func (n *Service) handleRefreshed(ctx context.Context, sch praytime.Schedule) {
	cfg := n.snapshot()
	if !cfg.Enabled || n.sender == nil || cfg.ChatID == 0 {
		return
	}
	if err := n.deliver(ctx, cfg, summaryText(cfg, sch)); err != nil {
		n.log.Warn("summary delivery failed", logx.Err(err))
	}
}

func (n *Service) deliver(ctx context.Context, cfg Config, text string) error {
	n.mu.Lock()
	lim := n.limiter
	n.mu.Unlock()
	if err := lim.Wait(ctx); err != nil {
		return err
	}
	return n.sender.SendText(ctx, cfg.ChatID, text)
}

func (n *Service) appendHistory(r Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, r)
	if len(n.history) > 100 {
		n.history = n.history[len(n.history)-100:]
	}
}

// History returns a copy of the recent delivery records, newest last.
func (n *Service) History() []Record {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Record(nil), n.history...)
}

func clock(cfg Config, t time.Time) string {
	return t.UTC().Add(cfg.Offset).Format("15:04")
}

func triggerText(cfg Config, trig sched.Trigger) string {
	place := cfg.Label
	if place == "" {
		place = "your location"
	}
	switch trig.Kind {
	case sched.SehriEnds:
		return fmt.Sprintf("🌙 Sehri has ended in %s (imsak %s).", place, clock(cfg, trig.At))
	case sched.Iftar:
		return fmt.Sprintf("🌇 It is iftar time in %s (maghrib %s).", place, clock(cfg, trig.At))
	default:
		return fmt.Sprintf("%s at %s", trig.Kind, clock(cfg, trig.At))
	}
}

func summaryText(cfg Config, sch praytime.Schedule) string {
	place := cfg.Label
	if place == "" {
		place = sch.Coord.String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Prayer times for %s, %s\n", place, sch.Date)
	fmt.Fprintf(&b, "Imsak %s · Fajr %s · Sunrise %s\n", clock(cfg, sch.Imsak), clock(cfg, sch.Fajr), clock(cfg, sch.Sunrise))
	fmt.Fprintf(&b, "Dhuhr %s · Asr %s\n", clock(cfg, sch.Dhuhr), clock(cfg, sch.Asr))
	fmt.Fprintf(&b, "Maghrib %s · Isha %s\n", clock(cfg, sch.Maghrib), clock(cfg, sch.Isha))
	fmt.Fprintf(&b, "Midnight %s · Last third %s", clock(cfg, sch.Midnight), clock(cfg, sch.LastThird))
	if sch.HighLatApplied {
		b.WriteString("\n(high-latitude approximation in effect)")
	}
	return b.String()
}
