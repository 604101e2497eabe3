package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl journal + json snapshot)
//   - "sqlite": SQLite database file (sqlite build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryRecord is one journal line per logical delivery (not per retry
// attempt). Keep it compact and schema-stable.
type DeliveryRecord struct {
	At       time.Time
	Slot     string // "HH:MM"
	Preview  string // truncated message text
	OK       bool
	Attempts int
	Error    string
}
