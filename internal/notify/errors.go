package notify

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a delivery failure.
type Kind string

const (
	// KindInvalidCredential: the provider rejected the bot token (401).
	KindInvalidCredential Kind = "invalid_credential"
	// KindInvalidDestination: the provider does not know the chat, or the
	// bot was blocked/kicked from it.
	KindInvalidDestination Kind = "invalid_destination"
	// KindNetwork: timeout, DNS failure, connection refused.
	KindNetwork Kind = "network"
	// KindProvider: any other non-ok provider response (incl. flood limits).
	KindProvider Kind = "provider"
)

// Error is a classified delivery failure. Code and Description carry the raw
// provider response where available.
type Error struct {
	Kind        Kind
	Code        int
	Description string

	// RetryAfter is the provider's flood-control hint (429), zero otherwise.
	RetryAfter time.Duration

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Description != "" && e.Code != 0:
		return fmt.Sprintf("%s: %s (code=%d)", e.Kind, e.Description, e.Code)
	case e.Description != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Description)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether a retry may fix the failure.
func (e *Error) Transient() bool {
	return e.Kind == KindNetwork || e.Kind == KindProvider
}

// KindOf extracts the Kind from err, defaulting to KindProvider for
// unclassified errors so the retry path stays conservative.
func KindOf(err error) Kind {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return KindProvider
}

// IsPermanent reports whether err is a misconfiguration that retrying
// cannot fix.
func IsPermanent(err error) bool {
	k := KindOf(err)
	return k == KindInvalidCredential || k == KindInvalidDestination
}

// RetryAfterHint returns the provider's flood backoff hint, if any.
func RetryAfterHint(err error) time.Duration {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.RetryAfter
	}
	return 0
}
