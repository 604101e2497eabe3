package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dripbot/internal/storage"
	"dripbot/pkg/logx"
)

type fakeSender struct {
	mu    sync.Mutex
	calls int
	errs  []error // per-call answers; nil past the end
}

func (f *fakeSender) SendText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) {
		return f.errs[i]
	}
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	records []storage.DeliveryRecord
	fired   map[string]string
}

func (f *fakeStore) AppendDelivery(ctx context.Context, r storage.DeliveryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

func (f *fakeStore) PutLastFired(ctx context.Context, slot, day string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fired == nil {
		f.fired = map[string]string{}
	}
	f.fired[slot] = day
	return nil
}

func (f *fakeStore) LastFired(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.fired))
	for k, v := range f.fired {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

func testConfig() Config {
	return Config{
		RatePerSec: 100,
		Retry: Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    10 * time.Millisecond,
			sleep:       func(ctx context.Context, d time.Duration) error { return ctx.Err() },
		},
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{
		&Error{Kind: KindNetwork},
		&Error{Kind: KindProvider, Code: 502},
		nil,
	}}
	store := &fakeStore{}
	svc := New(testConfig(), sender, store, logx.Nop())

	if err := svc.Deliver(context.Background(), "09:00", "drink up"); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	if sender.calls != 3 {
		t.Fatalf("sender called %d times, want 3", sender.calls)
	}

	hist := svc.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if !hist[0].OK || hist[0].Attempts != 3 || hist[0].Slot != "09:00" {
		t.Fatalf("unexpected history item: %+v", hist[0])
	}
	if len(store.records) != 1 || !store.records[0].OK {
		t.Fatalf("unexpected journal: %+v", store.records)
	}
}

func TestDeliverPermanentFailsOnce(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{
		&Error{Kind: KindInvalidDestination, Code: 403, Description: "bot was blocked by the user"},
	}}
	svc := New(testConfig(), sender, nil, logx.Nop())

	err := svc.Deliver(context.Background(), "12:00", "hydrate")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsPermanent(err) {
		t.Fatalf("err %v not permanent", err)
	}
	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}

	hist := svc.History()
	if len(hist) != 1 || hist[0].OK || hist[0].Error == "" {
		t.Fatalf("unexpected history item: %+v", hist)
	}
}

func TestDeliverExhaustedRetries(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{
		&Error{Kind: KindNetwork},
		&Error{Kind: KindNetwork},
		&Error{Kind: KindNetwork},
	}}
	store := &fakeStore{}
	svc := New(testConfig(), sender, store, logx.Nop())

	err := svc.Deliver(context.Background(), "15:00", "water break")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if sender.calls != 3 {
		t.Fatalf("sender called %d times, want 3", sender.calls)
	}
	if len(store.records) != 1 || store.records[0].OK || store.records[0].Attempts != 3 {
		t.Fatalf("unexpected journal: %+v", store.records)
	}
}

func TestDeliverTruncatesPreview(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("w", 80)
	svc := New(testConfig(), &fakeSender{}, nil, logx.Nop())

	if err := svc.Deliver(context.Background(), "18:00", long); err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	hist := svc.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if want := strings.Repeat("w", 50) + "..."; hist[0].Preview != want {
		t.Fatalf("preview = %q, want %q", hist[0].Preview, want)
	}
}

func TestHistoryCapped(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.HistorySize = 3
	svc := New(cfg, &fakeSender{}, nil, logx.Nop())

	for i := 0; i < 5; i++ {
		if err := svc.Deliver(context.Background(), "09:00", "x"); err != nil {
			t.Fatalf("Deliver error: %v", err)
		}
	}
	if got := len(svc.History()); got != 3 {
		t.Fatalf("history len = %d, want 3", got)
	}
}

func TestProbeSingleAttempt(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{&Error{Kind: KindNetwork}}}
	svc := New(testConfig(), sender, nil, logx.Nop())

	if err := svc.Probe(context.Background(), "ping"); err == nil {
		t.Fatal("expected probe error")
	}
	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}

	if err := svc.Probe(context.Background(), "ping"); err != nil {
		t.Fatalf("Probe error: %v", err)
	}
}
