package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"dripbot/internal/notify"
	"dripbot/pkg/logx"
)

func apiError(code int, description string) *tele.Error {
	return &tele.Error{Code: code, Description: description}
}

func TestNewRejectsEmptySettings(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Token: "", ChatID: 1}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := New(Config{Token: "123:abc", ChatID: 0}, logx.Nop()); err == nil {
		t.Fatal("expected error for zero chat id")
	}
}

func TestClassifyAPIErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		kind notify.Kind
	}{
		{name: "unauthorized", err: apiError(401, "Unauthorized"), kind: notify.KindInvalidCredential},
		{name: "not found token", err: apiError(404, "Not Found"), kind: notify.KindInvalidCredential},
		{name: "blocked", err: apiError(403, "Forbidden: bot was blocked by the user"), kind: notify.KindInvalidDestination},
		{name: "chat not found", err: apiError(400, "Bad Request: chat not found"), kind: notify.KindInvalidDestination},
		{name: "other bad request", err: apiError(400, "Bad Request: message is too long"), kind: notify.KindProvider},
		{name: "server error", err: apiError(502, "Bad Gateway"), kind: notify.KindProvider},
		{name: "wrapped", err: fmt.Errorf("send: %w", apiError(401, "Unauthorized")), kind: notify.KindInvalidCredential},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if k := notify.KindOf(got); k != tt.kind {
				t.Fatalf("Classify(%v) kind = %v, want %v", tt.err, k, tt.kind)
			}
			var ne *notify.Error
			if !errors.As(got, &ne) {
				t.Fatalf("Classify(%v) = %T, want *notify.Error", tt.err, got)
			}
			if ne.Unwrap() == nil {
				t.Fatal("classified error must keep the cause")
			}
		})
	}
}

func TestClassifyFloodCarriesRetryAfter(t *testing.T) {
	t.Parallel()

	flood := tele.FloodError{
		Error:      apiError(429, "Too Many Requests: retry after 23"),
		RetryAfter: 23,
	}
	got := Classify(flood)
	if notify.IsPermanent(got) {
		t.Fatal("flood control must stay retryable")
	}
	if hint := notify.RetryAfterHint(got); hint != 23*time.Second {
		t.Fatalf("RetryAfterHint = %v, want 23s", hint)
	}
}

func TestClassifyNetworkErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
	}{
		{name: "deadline", err: context.DeadlineExceeded},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "api.telegram.org"}},
		{name: "url", err: &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if k := notify.KindOf(got); k != notify.KindNetwork {
				t.Fatalf("Classify(%v) kind = %v, want network", tt.err, k)
			}
		})
	}
}

func TestClassifyOpaqueDefaultsToProvider(t *testing.T) {
	t.Parallel()

	got := Classify(errors.New("mystery"))
	if k := notify.KindOf(got); k != notify.KindProvider {
		t.Fatalf("kind = %v, want provider", k)
	}
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}
}
