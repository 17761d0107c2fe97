package app

import (
	"testing"
	"time"

	"prayerd/internal/config"
	"prayerd/internal/praytime"
)

func baseConfig() *config.Config {
	return &config.Config{
		Location: config.LocationConfig{Latitude: 23.8103, Longitude: 90.4125, Label: "Dhaka"},
		Method:   config.MethodConfig{Name: "mwl"},
		Adhan:    config.AdhanConfig{Enabled: true, ChatID: 42, Tick: "1s"},
	}
}

func TestMapCoordinate(t *testing.T) {
	t.Parallel()
	coord, err := mapCoordinate(baseConfig())
	if err != nil {
		t.Fatalf("mapCoordinate error: %v", err)
	}
	if coord.Latitude != 23.8103 {
		t.Fatalf("coord = %+v", coord)
	}

	bad := baseConfig()
	bad.Location.Latitude = 100
	if _, err := mapCoordinate(bad); err == nil {
		t.Fatal("expected error for bad latitude")
	}
}

func TestMapMethodDefaultsToMWL(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Method = config.MethodConfig{}
	m, err := mapMethod(cfg)
	if err != nil {
		t.Fatalf("mapMethod error: %v", err)
	}
	if m.Name != "mwl" || m.FajrAngle != 18 || m.IshaAngle != 17 {
		t.Fatalf("method = %+v", m)
	}
}

func TestMapMethodOverrides(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Method = config.MethodConfig{
		Name:        "mwl",
		FajrAngle:   19,
		AsrShadow:   2,
		HighLatRule: "seventh_of_night",
	}
	m, err := mapMethod(cfg)
	if err != nil {
		t.Fatalf("mapMethod error: %v", err)
	}
	if m.FajrAngle != 19 || m.IshaAngle != 17 || m.AsrShadow != 2 {
		t.Fatalf("method = %+v", m)
	}
	if m.HighLatRule != praytime.HighLatSeventhOfNight {
		t.Fatalf("rule = %v", m.HighLatRule)
	}
}

func TestMapMethodIntervalOverridesAngle(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Method = config.MethodConfig{Name: "mwl", IshaInterval: "90m"}
	m, err := mapMethod(cfg)
	if err != nil {
		t.Fatalf("mapMethod error: %v", err)
	}
	if m.IshaInterval != 90*time.Minute {
		t.Fatalf("interval = %v", m.IshaInterval)
	}

	// Switching a preset back to an angle clears its interval.
	cfg.Method = config.MethodConfig{Name: "umm_al_qura", IshaAngle: 17}
	m, err = mapMethod(cfg)
	if err != nil {
		t.Fatalf("mapMethod error: %v", err)
	}
	if m.IshaInterval != 0 || m.IshaAngle != 17 {
		t.Fatalf("method = %+v", m)
	}
}

func TestMapMethodRejects(t *testing.T) {
	t.Parallel()
	for _, mc := range []config.MethodConfig{
		{Name: "nonsense"},
		{Name: "mwl", IshaInterval: "ten minutes"},
		{Name: "mwl", HighLatRule: "quarter"},
	} {
		cfg := baseConfig()
		cfg.Method = mc
		if _, err := mapMethod(cfg); err == nil {
			t.Fatalf("method %+v should be rejected", mc)
		}
	}
}

func TestMapSchedConfig(t *testing.T) {
	t.Parallel()
	sc, err := mapSchedConfig(baseConfig())
	if err != nil {
		t.Fatalf("mapSchedConfig error: %v", err)
	}
	if sc.Tick != time.Second || sc.Coord.Longitude != 90.4125 || sc.Method.Name != "mwl" {
		t.Fatalf("sched config = %+v", sc)
	}

	cfg := baseConfig()
	cfg.Adhan.Tick = ""
	sc, err = mapSchedConfig(cfg)
	if err != nil || sc.Tick != time.Second {
		t.Fatalf("default tick = %v, err %v", sc.Tick, err)
	}
}

func TestMapNotifyConfig(t *testing.T) {
	t.Parallel()
	nc, err := mapNotifyConfig(baseConfig())
	if err != nil {
		t.Fatalf("mapNotifyConfig error: %v", err)
	}
	if !nc.Enabled || nc.ChatID != 42 || nc.Label != "Dhaka" {
		t.Fatalf("notify config = %+v", nc)
	}
	// Offset comes from the longitude, roughly +6h for Dhaka.
	if nc.Offset < 6*time.Hour || nc.Offset > 6*time.Hour+5*time.Minute {
		t.Fatalf("offset = %v", nc.Offset)
	}

	cfg := baseConfig()
	cfg.Adhan.ChatID = 0
	if _, err := mapNotifyConfig(cfg); err == nil {
		t.Fatal("enabled adhan without chat_id should be rejected")
	}
	cfg.Adhan.Enabled = false
	if _, err := mapNotifyConfig(cfg); err != nil {
		t.Fatalf("disabled adhan without chat_id should pass: %v", err)
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	if _, enabled, err := mapStorageConfig(cfg); enabled || err != nil {
		t.Fatalf("absent storage: enabled=%v err=%v", enabled, err)
	}

	cfg.Storage = &config.StorageConfig{Driver: "none"}
	if _, enabled, _ := mapStorageConfig(cfg); enabled {
		t.Fatal("driver none should disable storage")
	}

	cfg.Storage = &config.StorageConfig{Driver: "File", Path: "./store", BusyTimeout: "5s"}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil || !enabled {
		t.Fatalf("enabled=%v err=%v", enabled, err)
	}
	if sc.Driver != "file" || sc.BusyTimeout != 5*time.Second {
		t.Fatalf("storage config = %+v", sc)
	}

	cfg.Storage.BusyTimeout = "soon"
	if _, _, err := mapStorageConfig(cfg); err == nil {
		t.Fatal("bad busy_timeout should be rejected")
	}
}
