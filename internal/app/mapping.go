package app

import (
	"fmt"
	"time"

	"dripbot/internal/config"
	"dripbot/internal/notify"
	"dripbot/internal/schedule"
	"dripbot/internal/storage"
	"dripbot/pkg/logx"
)

// buildSchedule turns the reminders config into a validated schedule.
func buildSchedule(cfg *config.Config) (*schedule.Schedule, error) {
	reminders := cfg.Reminders
	if len(reminders) == 0 {
		reminders = config.DefaultReminders()
	}
	entries := make([]schedule.Entry, 0, len(reminders))
	for i, r := range reminders {
		at, err := schedule.ParseTimeOfDay(r.At)
		if err != nil {
			return nil, &config.ConfigError{
				Field: fmt.Sprintf("reminders[%d].at", i),
				Err:   err,
			}
		}
		if r.Message == "" {
			return nil, &config.ConfigError{
				Field: fmt.Sprintf("reminders[%d].message", i),
				Err:   fmt.Errorf("empty message"),
			}
		}
		entries = append(entries, schedule.Entry{At: at, Message: r.Message})
	}
	sched, err := schedule.NewSchedule(entries)
	if err != nil {
		return nil, &config.ConfigError{Field: "reminders", Err: err}
	}
	return sched, nil
}

func mapDelivery(cfg *config.Config) (notify.Config, error) {
	d := cfg.Delivery
	out := notify.Config{
		RatePerSec: d.RatePerSec,
		Retry:      notify.DefaultPolicy(),
	}
	if d.Retry.MaxAttempts > 0 {
		out.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if d.Retry.BaseDelay != "" {
		v, err := config.ParseDurationField("delivery.retry.base_delay", d.Retry.BaseDelay)
		if err != nil {
			return notify.Config{}, err
		}
		out.Retry.BaseDelay = v
	}
	if d.Retry.MaxDelay != "" {
		v, err := config.ParseDurationField("delivery.retry.max_delay", d.Retry.MaxDelay)
		if err != nil {
			return notify.Config{}, err
		}
		out.Retry.MaxDelay = v
	}
	return out, nil
}

func mapLogging(cfg *config.Config) logx.Config {
	l := cfg.Logging
	console := true
	if l.Console != nil {
		console = *l.Console
	}
	return logx.Config{
		Level:   l.Level,
		Console: console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
	}
}

// mapStorage returns the storage config and whether storage is enabled at
// all. A nil or driver-less storage section disables persistence.
func mapStorage(cfg *config.Config) (storage.Config, bool, error) {
	s := cfg.Storage
	if s == nil || s.Driver == "" || s.Driver == "none" {
		return storage.Config{}, false, nil
	}
	out := storage.Config{Driver: s.Driver, Path: s.Path}
	if s.BusyTimeout != "" {
		v, err := config.ParseDurationField("storage.busy_timeout", s.BusyTimeout)
		if err != nil {
			return storage.Config{}, false, err
		}
		out.BusyTimeout = v
	}
	return out, true, nil
}

// loadLocation resolves the configured timezone. An unknown zone only warns
// and falls back to the host's local zone.
func loadLocation(cfg *config.Config, log logx.Logger) *time.Location {
	if cfg.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("unknown timezone; using local", logx.String("timezone", cfg.Timezone), logx.Err(err))
		return time.Local
	}
	return loc
}

// validateConfig is the manager's validator hook. It rejects configs that
// would break a running instance on reload.
func validateConfig(cfg *config.Config) error {
	if _, err := buildSchedule(cfg); err != nil {
		return err
	}
	if _, err := mapDelivery(cfg); err != nil {
		return err
	}
	if _, _, err := mapStorage(cfg); err != nil {
		return err
	}
	if cfg.Delivery.RatePerSec < 0 {
		return &config.ConfigError{Field: "delivery.rate_per_sec", Err: fmt.Errorf("must be >= 0")}
	}
	return nil
}
