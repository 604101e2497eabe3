package notify

import (
	"context"
	"time"
)

// Policy bounds retries of a single delivery.
//
// Only transient failures are retried; permanent misconfigurations return
// after the first attempt so the operator sees them immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the delivery defaults: three attempts, 2s base.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 2 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

// Do runs op up to MaxAttempts times, sleeping between attempts with
// exponential backoff: BaseDelay before the second attempt, doubling after,
// capped at MaxDelay. A flood Retry-After hint from the provider overrides
// the computed delay when larger. Returns nil on the first success, the last
// error otherwise.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	p = p.withDefaults()

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.backoff(attempt)
			if hint := RetryAfterHint(last); hint > delay {
				delay = hint
			}
			if err := p.sleep(ctx, delay); err != nil {
				return last
			}
		}

		last = op(ctx)
		if last == nil {
			return nil
		}
		if IsPermanent(last) {
			return last
		}
	}
	return last
}

// backoff returns the delay before attempt n (n >= 2): BaseDelay * 2^(n-2),
// capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
