// Package errkind classifies pipeline errors so retry/backoff policy can be a
// plain decision over the kind instead of string matching.
package errkind

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Unknown is anything unclassified; callers treat it like Retryable.
	Unknown Kind = iota
	// Fatal aborts the process (bad credentials, unrecoverable auth).
	Fatal
	// Retryable is a transient transport problem (timeouts, 5xx, rate limits).
	Retryable
	// Malformed is a single bad item: skip it, log, continue.
	Malformed
	// Delivery is a notification-channel failure; log and drop, never re-queue.
	Delivery
)

func (k Kind) String() string {
	switch k {
	case Fatal:
		return "fatal"
	case Retryable:
		return "retryable"
	case Malformed:
		return "malformed"
	case Delivery:
		return "delivery"
	default:
		return "unknown"
	}
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// Wrap tags err with a kind. Wrapping nil returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Errorf is Wrap over fmt.Errorf.
func Errorf(kind Kind, format string, args ...any) error {
	return Wrap(kind, fmt.Errorf(format, args...))
}

// KindOf walks the wrap chain for the innermost-applied tag. Untagged errors
// come back Unknown.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return Unknown
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool { return KindOf(err) == k }
