package app

import (
	"fmt"
	"strings"
	"time"

	"prayerd/internal/astro"
	"prayerd/internal/config"
	"prayerd/internal/httpapi"
	"prayerd/internal/notify"
	"prayerd/internal/praytime"
	"prayerd/internal/sched"
	"prayerd/internal/storage"
	logx "prayerd/pkg/logx"
)

// This file maps the raw config surface onto service configs. Each mapper
// validates as it maps, so the config watcher can run them as a
// transactional accept/reject gate before anything is applied.

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapCoordinate(cfg *config.Config) (astro.Coordinate, error) {
	coord := astro.Coordinate{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
	}
	if err := coord.Validate(); err != nil {
		return astro.Coordinate{}, fmt.Errorf("location: %w", err)
	}
	return coord, nil
}

// mapMethod resolves the preset (default "mwl") and applies per-field
// overrides on top.
func mapMethod(cfg *config.Config) (praytime.Method, error) {
	mc := cfg.Method

	name := strings.TrimSpace(mc.Name)
	if name == "" {
		name = "mwl"
	}
	m, ok := praytime.MethodByName(name)
	if !ok {
		return praytime.Method{}, fmt.Errorf("method: unknown preset %q (have %s)",
			mc.Name, strings.Join(praytime.MethodNames(), ", "))
	}

	if mc.FajrAngle != 0 {
		m.FajrAngle = mc.FajrAngle
	}
	if mc.IshaAngle != 0 {
		m.IshaAngle = mc.IshaAngle
		m.IshaInterval = 0
	}
	if mc.IshaInterval != "" {
		d, err := config.ParseDurationField("method.isha_interval", mc.IshaInterval)
		if err != nil {
			return praytime.Method{}, err
		}
		m.IshaInterval = d
	}
	if mc.AsrShadow != 0 {
		m.AsrShadow = mc.AsrShadow
	}
	if mc.HighLatRule != "" {
		rule, err := praytime.ParseHighLatRule(mc.HighLatRule)
		if err != nil {
			return praytime.Method{}, fmt.Errorf("method: %w", err)
		}
		m.HighLatRule = rule
	}
	return m, nil
}

func mapSchedConfig(cfg *config.Config) (sched.Config, error) {
	coord, err := mapCoordinate(cfg)
	if err != nil {
		return sched.Config{}, err
	}
	method, err := mapMethod(cfg)
	if err != nil {
		return sched.Config{}, err
	}
	tick, err := config.ParseDurationOrDefault("adhan.tick", cfg.Adhan.Tick, time.Second)
	if err != nil {
		return sched.Config{}, err
	}
	return sched.Config{Tick: tick, Coord: coord, Method: method}, nil
}

func mapNotifyConfig(cfg *config.Config) (notify.Config, error) {
	coord, err := mapCoordinate(cfg)
	if err != nil {
		return notify.Config{}, err
	}
	if cfg.Adhan.Enabled && cfg.Adhan.ChatID == 0 {
		return notify.Config{}, fmt.Errorf("adhan.chat_id is required when adhan.enabled")
	}
	return notify.Config{
		Enabled:    cfg.Adhan.Enabled,
		ChatID:     cfg.Adhan.ChatID,
		RatePerSec: cfg.Adhan.RatePerSec,
		Label:      cfg.Location.Label,
		Offset:     coord.MeanOffset(),
	}, nil
}

func mapAPIConfig(cfg *config.Config) (httpapi.Config, error) {
	coord, err := mapCoordinate(cfg)
	if err != nil {
		return httpapi.Config{}, err
	}
	method, err := mapMethod(cfg)
	if err != nil {
		return httpapi.Config{}, err
	}
	return httpapi.Config{
		Enabled: cfg.API.Enabled,
		Addr:    cfg.API.Addr,
		Coord:   coord,
		Method:  method,
		Label:   cfg.Location.Label,
	}, nil
}

// mapStorageConfig returns (config, enabled, error).
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{
		Driver:      driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, true, nil
}
