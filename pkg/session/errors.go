package session

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinels classifying a session failure. Errors returned in an Outcome
// match exactly one of them under both errors.Is implementations.
var (
	ErrUnavailable = errors.New("session: model service unavailable")
	ErrTimeout     = errors.New("session: agent invocation timed out")
	ErrFailed      = errors.New("session: agent invocation failed")
)

// Fixed user-facing messages.
const (
	MsgUnavailable = "Model service is not running."
	MsgTimeout     = "Agent invocation timed out."
	MsgFailed      = "Encountered an error."
)

// kindError attaches a failure kind to a cause. The cause stays on the unwrap
// chain and the kind is matched through Is.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }
func (e *kindError) Unwrap() error { return e.cause }
func (e *kindError) Is(target error) bool { return target == e.kind }

// Format prints the cause, so %+v keeps its stack trace.
func (e *kindError) Format(s fmt.State, verb rune) { errors.FormatError(e.cause, s, verb) }

func classify(cause, kind error) error {
	if cause == nil {
		cause = kind
	}
	return &kindError{kind: kind, cause: cause}
}

// Message returns the fixed text for a session failure.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrUnavailable):
		return MsgUnavailable
	case errors.Is(err, ErrTimeout):
		return MsgTimeout
	default:
		return MsgFailed
	}
}

func stateFor(err error) State {
	switch {
	case err == nil:
		return StateCompleted
	case errors.Is(err, ErrUnavailable):
		return StateUnavailable
	case errors.Is(err, ErrTimeout):
		return StateTimedOut
	default:
		return StateFailed
	}
}
