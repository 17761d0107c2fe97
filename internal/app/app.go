// Package app wires the daemon together: config, logging, storage, the
// tick scheduler, the notifier, and the HTTP surface.
package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"prayerd/internal/config"
	"prayerd/internal/eventbus"
	"prayerd/internal/httpapi"
	"prayerd/internal/notify"
	"prayerd/internal/sched"
	"prayerd/internal/storage"
	telegram "prayerd/internal/transport/telegram"
	logx "prayerd/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store storage.Store

	sched *sched.Service
	notif *notify.Service
	api   *httpapi.Service

	sub chan *config.Config
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(logSvc.Logger().With(logx.String("comp", "config")))

	// Reject bad reloads before anything applies them.
	cfgm.SetValidator(func(ctx context.Context, c *config.Config) error {
		if _, err := mapSchedConfig(c); err != nil {
			return err
		}
		if _, err := mapNotifyConfig(c); err != nil {
			return err
		}
		if _, err := mapAPIConfig(c); err != nil {
			return err
		}
		_, _, err := mapStorageConfig(c)
		return err
	})

	bus := eventbus.New()

	// Storage (optional)
	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, logSvc.Logger().With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("event ledger enabled", logx.String("driver", sc.Driver))
	}

	schedCfg, err := mapSchedConfig(cfg)
	if err != nil {
		return nil, err
	}
	schedSvc := sched.New(schedCfg, bus, logSvc.Logger().With(logx.String("comp", "sched")))

	// Notifier: the bot transport is only built when a token is present;
	// without one the notifier still runs (logging + ledger, no sends).
	notifCfg, err := mapNotifyConfig(cfg)
	if err != nil {
		return nil, err
	}
	var sender notify.Sender
	if cfg.Adhan.Telegram.Token != "" {
		timeout, err := config.ParseDurationOrDefault("adhan.telegram.timeout", cfg.Adhan.Telegram.Timeout, 8*time.Second)
		if err != nil {
			return nil, err
		}
		ad, err := telegram.New(telegram.Config{
			Token:   cfg.Adhan.Telegram.Token,
			Timeout: timeout,
		}, logSvc.Logger().With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, err
		}
		sender = ad
	} else if notifCfg.Enabled {
		log.Warn("adhan enabled but no telegram token; triggers will only be ledgered")
	}
	notif := notify.New(notifCfg, sender, store, logSvc.Logger().With(logx.String("comp", "notify")))

	apiCfg, err := mapAPIConfig(cfg)
	if err != nil {
		return nil, err
	}
	var api *httpapi.Service
	if apiCfg.Enabled {
		api = httpapi.New(apiCfg, schedSvc, store, logSvc.Logger().With(logx.String("comp", "api")))
	}

	return &App{
		cfgm:  cfgm,
		log:   log,
		logs:  logSvc,
		bus:   bus,
		store: store,
		sched: schedSvc,
		notif: notif,
		api:   api,
	}, nil
}

// Start brings every service up and begins watching the config file.
func (a *App) Start(ctx context.Context) error {
	a.sched.Start(ctx)
	a.notif.Start(ctx, a.bus)
	if a.api != nil {
		a.api.Start(ctx)
	}

	a.sub = a.cfgm.Subscribe(1)
	go a.reloadLoop(ctx, a.sub)
	go func() { _ = a.cfgm.Watch(ctx) }()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("prayerd started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.api != nil {
		a.api.Stop(ctx)
	}
	a.notif.Stop(ctx)
	a.sched.Stop(ctx)
	if a.sub != nil {
		a.cfgm.Unsubscribe(a.sub)
		a.sub = nil
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("prayerd stopped")
	_ = a.logs.Close()
	return nil
}

// reloadLoop applies committed config updates to the live services. The
// validator already vetted them, so mapping errors here are unexpected.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.applyConfig(cfg)
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(mapLoggingConfig(cfg))

	if sc, err := mapSchedConfig(cfg); err == nil {
		a.sched.Apply(sc)
	} else {
		a.log.Warn("scheduler config not applied", logx.Err(err))
	}
	if nc, err := mapNotifyConfig(cfg); err == nil {
		a.notif.Apply(nc)
	} else {
		a.log.Warn("notifier config not applied", logx.Err(err))
	}
	if a.api != nil {
		if ac, err := mapAPIConfig(cfg); err == nil {
			a.api.Apply(ac)
		} else {
			a.log.Warn("api config not applied", logx.Err(err))
		}
	}

	a.bus.Publish(eventbus.Event{Topic: eventbus.TopicConfigReloaded})
	a.log.Info("config applied")
}
