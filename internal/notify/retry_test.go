package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSleep records requested delays without actually sleeping.
func fakeSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	p := Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second, sleep: fakeSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 1 || len(delays) != 0 {
		t.Fatalf("calls=%d delays=%v, want one call and no sleeps", calls, delays)
	}
}

func TestDoBackoffDelays(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	p := Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second, sleep: fakeSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &Error{Kind: KindNetwork, Err: errors.New("timeout")}
	})
	if err == nil {
		t.Fatal("expected final error after exhausted retries")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoBackoffCappedAtMaxDelay(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	p := Policy{MaxAttempts: 6, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second, sleep: fakeSleep(&delays)}

	_ = p.Do(context.Background(), func(ctx context.Context) error {
		return &Error{Kind: KindProvider}
	})
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoPermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindInvalidCredential, KindInvalidDestination} {
		kind := kind
		t.Run(string(kind), func(t *testing.T) {
			var delays []time.Duration
			p := Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second, sleep: fakeSleep(&delays)}

			calls := 0
			err := p.Do(context.Background(), func(ctx context.Context) error {
				calls++
				return &Error{Kind: kind, Code: 401}
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if calls != 1 || len(delays) != 0 {
				t.Fatalf("calls=%d delays=%v, want one call and no sleeps", calls, delays)
			}
			if !IsPermanent(err) {
				t.Fatalf("IsPermanent(%v) = false, want true", err)
			}
		})
	}
}

func TestDoFloodHintOverridesBackoff(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	p := Policy{MaxAttempts: 2, BaseDelay: 2 * time.Second, MaxDelay: 60 * time.Second, sleep: fakeSleep(&delays)}

	calls := 0
	_ = p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &Error{Kind: KindProvider, Code: 429, RetryAfter: 7 * time.Second}
	})
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	// 7s hint beats the computed 2s base delay.
	if len(delays) != 1 || delays[0] != 7*time.Second {
		t.Fatalf("delays = %v, want [7s]", delays)
	}
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second}

	calls := 0
	first := errors.New("first failure")
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return first
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, first) {
		t.Fatalf("err = %v, want the last attempt error", err)
	}
}

func TestKindOfDefaultsToProvider(t *testing.T) {
	t.Parallel()

	if k := KindOf(errors.New("opaque")); k != KindProvider {
		t.Fatalf("KindOf = %v, want provider", k)
	}
	if IsPermanent(errors.New("opaque")) {
		t.Fatal("opaque errors must be retried")
	}
	wrapped := &Error{Kind: KindInvalidCredential, Code: 401}
	if k := KindOf(wrapped); k != KindInvalidCredential {
		t.Fatalf("KindOf = %v, want invalid_credential", k)
	}
}
