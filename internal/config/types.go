package config

type Config struct {
	// Location is the fallback coordinate used when no external location
	// provider hands one in. The engine API always takes coordinates
	// explicitly; this one drives the daemon's own scheduler.
	Location LocationConfig `json:"location"`

	Method  MethodConfig   `json:"method"`
	Adhan   AdhanConfig    `json:"adhan"`
	API     APIConfig      `json:"api,omitempty"`
	Storage *StorageConfig `json:"storage,omitempty"`
	Logging LoggingConfig  `json:"logging"`
}

type LocationConfig struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
}

// MethodConfig selects a calculation method. Name picks a preset
// ("mwl", "isna", "egypt", "karachi", "umm_al_qura"); the remaining fields,
// when set, override individual preset parameters. An empty name falls
// back to the "mwl" preset, with the same overrides layered on top.
type MethodConfig struct {
	Name      string  `json:"name,omitempty"`
	FajrAngle float64 `json:"fajr_angle,omitempty"`
	IshaAngle float64 `json:"isha_angle,omitempty"`
	// IshaInterval is a Go duration string (e.g. "90m"); it replaces the
	// Isha angle with a fixed offset after Maghrib.
	IshaInterval string  `json:"isha_interval,omitempty"`
	AsrShadow    float64 `json:"asr_shadow,omitempty"`
	// HighLatRule: none | middle_of_night | seventh_of_night | twilight_angle.
	HighLatRule string `json:"high_lat_rule,omitempty"`
}

// AdhanConfig controls the countdown/trigger side.
//
// Enabled gates whether trigger signals are forwarded to the notification
// collaborator; the scheduler itself always runs (the API and logs still
// see events).
type AdhanConfig struct {
	Enabled bool `json:"enabled"`
	// Tick is a Go duration string; evaluation period of the countdown
	// loop. Defaults to "1s" and never exceeds it.
	Tick       string         `json:"tick,omitempty"`
	ChatID     int64          `json:"chat_id,omitempty"`
	RatePerSec int            `json:"rate_per_sec,omitempty"`
	Telegram   TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// Timeout is a Go duration string for send calls.
	Timeout string `json:"timeout,omitempty"`
}

// APIConfig controls the read-only HTTP surface.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:8741"
}

// StorageConfig controls the fired-event ledger.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./prayerd_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
