package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the fired-event ledger.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// FiredEvent records one zero crossing observed by the scheduler.
// Keep it compact and schema-stable.
type FiredEvent struct {
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`       // the boundary instant
	FiredAt   time.Time `json:"fired_at"` // when the crossing was observed
	Delivered bool      `json:"delivered"`
	Error     string    `json:"error,omitempty"`
}
