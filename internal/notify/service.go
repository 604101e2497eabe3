package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"dripbot/internal/storage"
	"dripbot/pkg/logx"
)

const previewRunes = 50

// Service pushes reminder texts through rate limiting, the retry policy, and
// the delivery journal. It is safe for concurrent use, though the scheduler
// drives it from a single loop.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	sender Sender
	store  storage.Store
	log    logx.Logger

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender Sender, store storage.Store, log logx.Logger) *Service {
	s := &Service{sender: sender, store: store, log: log}
	s.applyLocked(cfg)
	return s
}

// Apply swaps delivery knobs at runtime (config hot reload).
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	cfg = cfg.withDefaults()
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Deliver sends one reminder. It blocks until success or exhausted retries
// and returns the final classified error. Every outcome is logged and
// journaled; a failed delivery is the final word for that slot and day.
func (s *Service) Deliver(ctx context.Context, slot, message string) error {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	start := time.Now()
	preview := truncate(message, previewRunes)
	log := s.log.With(logx.String("slot", slot))

	attempts := 0
	err := cfg.Retry.Do(ctx, func(ctx context.Context) error {
		attempts++
		if err := lim.Wait(ctx); err != nil {
			return &Error{Kind: KindNetwork, Err: err}
		}
		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		defer cancel()

		sendErr := s.sender.SendText(callCtx, message)
		if sendErr != nil {
			log.Warn("delivery attempt failed",
				logx.Int("attempt", attempts),
				logx.Int("max_attempts", cfg.Retry.MaxAttempts),
				logx.String("kind", string(KindOf(sendErr))),
				logx.Err(sendErr))
		}
		return sendErr
	})

	item := HistoryItem{At: start, Slot: slot, Preview: preview, OK: err == nil, Attempts: attempts}
	if err != nil {
		item.Error = err.Error()
		log.Error("delivery failed",
			logx.Int("attempts", attempts),
			logx.String("kind", string(KindOf(err))),
			logx.Duration("took", time.Since(start)),
			logx.Err(err))
	} else {
		log.Info("reminder sent",
			logx.Int("attempts", attempts),
			logx.String("preview", preview),
			logx.Duration("took", time.Since(start)))
	}
	s.appendHistory(item)
	s.journal(item)

	return err
}

// Probe sends the startup connectivity test message, single attempt.
func (s *Service) Probe(ctx context.Context, text string) error {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()
	return s.sender.SendText(callCtx, text)
}

// History returns a copy of the recent delivery history.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(item HistoryItem) {
	s.mu.Lock()
	max := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
	s.hmu.Unlock()
}

func (s *Service) journal(item HistoryItem) {
	if s.store == nil {
		return
	}
	rec := storage.DeliveryRecord{
		At:       item.At,
		Slot:     item.Slot,
		Preview:  item.Preview,
		OK:       item.OK,
		Attempts: item.Attempts,
		Error:    item.Error,
	}
	// Journal writes are best-effort; a full disk must not stop reminders.
	wctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.AppendDelivery(wctx, rec); err != nil {
		s.log.Warn("delivery journal write failed", logx.Err(err))
	}
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
