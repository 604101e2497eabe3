package notify

import (
	"context"
	"time"
)

// Sender delivers one text to the fixed destination. One call is one
// outbound request; retries belong to the caller.
type Sender interface {
	SendText(ctx context.Context, text string) error
}

// Config controls the delivery pipeline.
type Config struct {
	// RatePerSec caps outbound sends (Telegram flood safety). Default 1.
	RatePerSec int

	Retry Policy

	// SendTimeout bounds each individual attempt. Default 10s.
	SendTimeout time.Duration

	// HistorySize caps the in-memory delivery history. Default 100.
	HistorySize int
}

func (c Config) withDefaults() Config {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 1
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 100
	}
	c.Retry = c.Retry.withDefaults()
	return c
}

// HistoryItem is one logical delivery kept for the in-memory history.
type HistoryItem struct {
	At       time.Time
	Slot     string
	Preview  string
	OK       bool
	Attempts int
	Error    string
}
