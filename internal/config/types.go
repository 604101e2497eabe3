// Package config loads dripbot's configuration: secrets from the
// environment (a .env file is honored), everything else from an optional
// YAML or JSON file with strict unknown-field rejection.
package config

import "fmt"

// Config is the file-backed part of the configuration. Secrets (token, chat
// id) never live here; see Secrets.
type Config struct {
	// Reminders is the daily schedule. Empty falls back to the built-in
	// water reminder slots.
	Reminders []ReminderConfig `json:"reminders,omitempty"`

	// Timezone is an IANA zone for matching reminder times, e.g.
	// "Europe/Berlin". Empty means the host's local zone.
	Timezone string `json:"timezone,omitempty"`

	Logging  LoggingConfig  `json:"logging"`
	Delivery DeliveryConfig `json:"delivery"`
	Storage  *StorageConfig `json:"storage,omitempty"`
}

type ReminderConfig struct {
	At      string `json:"at"` // "HH:MM", 24h
	Message string `json:"message"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console *bool       `json:"console,omitempty"` // pointer: omitted defaults to true
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// DeliveryConfig controls the send pipeline.
//
// All durations are Go duration strings (e.g. "2s", "500ms").
type DeliveryConfig struct {
	RatePerSec int         `json:"rate_per_sec,omitempty"`
	Retry      RetryConfig `json:"retry,omitempty"`
}

type RetryConfig struct {
	MaxAttempts int    `json:"max_attempts,omitempty"`
	BaseDelay   string `json:"base_delay,omitempty"`
	MaxDelay    string `json:"max_delay,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	storage:
//	  driver: file
//	  path: ./dripbot_store
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Default returns the built-in configuration: the five classic water
// reminder slots, console logging, no persistence.
func Default() *Config {
	return &Config{
		Reminders: DefaultReminders(),
	}
}

// DefaultReminders is the out-of-the-box daily schedule.
func DefaultReminders() []ReminderConfig {
	return []ReminderConfig{
		{At: "09:00", Message: "Good morning! Time to drink water! 💧"},
		{At: "12:00", Message: "Lunch time reminder! Stay hydrated! 🌊"},
		{At: "15:00", Message: "Afternoon hydration break! 💦"},
		{At: "18:00", Message: "Evening water reminder! 🚰"},
		{At: "21:00", Message: "Last call for water today! Good night! 🌙"},
	}
}

// ConfigError is a fatal pre-start configuration problem. The process must
// not begin scheduling with one outstanding.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
