// Package app wires dripbot together: configuration, logging, the Telegram
// adapter, the delivery pipeline, and the schedule tick loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"dripbot/internal/config"
	"dripbot/internal/notify"
	"dripbot/internal/runtime/supervisor"
	"dripbot/internal/schedule"
	"dripbot/internal/storage"
	"dripbot/internal/telegram"
	"dripbot/pkg/logx"
)

const probeText = "🧪 Water reminder bot is up and running!"

type App struct {
	cfgm *config.Manager

	logs *logx.Service
	log  logx.Logger

	store    storage.Store
	delivery *notify.Service

	sched *schedule.Service
	loc   *time.Location

	sup *supervisor.Supervisor
}

// New loads configuration and constructs every component. Any error here is
// fatal: a misconfigured process must not start scheduling.
func New(cfgPath string) (*App, error) {
	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO")
	cfgm := config.NewManager(cfgPath, bootLog.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateConfig)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogging(cfg))
	log = log.With(logx.String("comp", "app"))
	log.Info("configuration loaded", logx.String("path", cfgPath), logx.Int("reminders", len(cfg.Reminders)))

	// Storage (optional).
	var store storage.Store
	if sc, enabled, err := mapStorage(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	// Telegram adapter. An invalid token already fails here (getMe).
	adapter, err := telegram.New(telegram.Config{
		Token:  secrets.Token,
		ChatID: secrets.ChatID,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		closeQuietly(store)
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram setup: %w", err)
	}

	dcfg, err := mapDelivery(cfg)
	if err != nil {
		closeQuietly(store)
		_ = logSvc.Close()
		return nil, err
	}
	delivery := notify.New(dcfg, adapter, store, log.With(logx.String("comp", "delivery")))

	sched, err := buildSchedule(cfg)
	if err != nil {
		closeQuietly(store)
		_ = logSvc.Close()
		return nil, err
	}
	loc := loadLocation(cfg, log)

	state := schedule.NewState()
	if store != nil {
		seedCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		fired, err := store.LastFired(seedCtx)
		cancel()
		if err != nil {
			log.Warn("last-fired seed failed; starting empty", logx.Err(err))
		} else {
			state.Seed(fired)
		}
	}

	a := &App{
		cfgm:     cfgm,
		logs:     logSvc,
		log:      log,
		store:    store,
		delivery: delivery,
		loc:      loc,
	}
	a.sched = schedule.New(sched, state, delivery.Deliver, log.With(logx.String("comp", "schedule")),
		schedule.WithLocation(loc),
		schedule.WithFiredHook(a.persistFired),
	)
	return a, nil
}

// Start probes connectivity and launches the tick loop and config watcher.
// A permanent probe failure (bad credential or destination) is fatal;
// transient failures only warn, since connectivity may return before the
// next reminder.
func (a *App) Start(ctx context.Context) error {
	a.log.Info("testing telegram connectivity")
	if err := a.delivery.Probe(ctx, probeText); err != nil {
		if notify.IsPermanent(err) {
			return fmt.Errorf("connectivity test: %w", err)
		}
		a.log.Warn("connectivity test failed; continuing", logx.Err(err))
	} else {
		a.log.Info("connectivity test ok")
	}

	if e, at, ok := a.sched.Next(time.Now()); ok {
		a.log.Info("next reminder", logx.String("slot", e.Slot()), logx.Time("at", at))
	}

	a.sup = supervisor.New(ctx, a.log)
	a.sup.Go("tick-loop", a.runTicks)
	a.sup.GoRestart("config-watch", a.cfgm.Watch)
	a.sup.Go("config-apply", a.applyReloads)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("water reminder bot is running")
	return nil
}

// Stop shuts the loops down, waiting up to ctx's deadline, then closes
// storage and log sinks.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("shutting down")

	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	closeQuietly(a.store)
	a.log.Info("water reminder bot stopped")
	_ = a.logs.Close()
	return err
}

// runTicks drives the scheduler: one tick immediately (so starting inside a
// reminder's minute still fires it), then one per minute boundary.
func (a *App) runTicks(ctx context.Context) error {
	a.sched.Tick(ctx, time.Now())

	for {
		now := time.Now().In(a.loc)
		boundary := now.Truncate(time.Minute).Add(time.Minute)
		t := time.NewTimer(boundary.Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		a.sched.Tick(ctx, time.Now())
	}
}

// applyReloads applies hot-reloaded configs to the running services.
// Timezone changes require a restart and are only logged.
func (a *App) applyReloads(ctx context.Context) error {
	ch := a.cfgm.Subscribe(1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-ch:
			if cfg == nil {
				continue
			}
			a.logs.Apply(mapLogging(cfg))
			if dcfg, err := mapDelivery(cfg); err == nil {
				a.delivery.Apply(dcfg)
			}
			if sched, err := buildSchedule(cfg); err == nil {
				a.sched.Apply(sched)
				if e, at, ok := a.sched.Next(time.Now()); ok {
					a.log.Info("next reminder", logx.String("slot", e.Slot()), logx.Time("at", at))
				}
			}
			if loadLocation(cfg, logx.Nop()).String() != a.loc.String() {
				a.log.Warn("timezone change requires restart")
			}
		}
	}
}

func (a *App) persistFired(slot, day string) {
	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.store.PutLastFired(ctx, slot, day); err != nil {
		a.log.Warn("last-fired persist failed", logx.String("slot", slot), logx.Err(err))
	}
}

func closeQuietly(store storage.Store) {
	if store != nil {
		_ = store.Close()
	}
}
