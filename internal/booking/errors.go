package booking

import (
	"errors"
	"fmt"
)

// Kind classifies reconciliation failures so transport layers can map them to
// user-facing responses without parsing messages.
type Kind int

const (
	// KindUnknown covers errors that did not originate in this package.
	KindUnknown Kind = iota
	// KindInvalidInput marks malformed requests: bad attendee addresses,
	// nonsensical duration changes.
	KindInvalidInput
	// KindNotFound marks room or event identifiers that do not resolve.
	KindNotFound
	// KindConflict marks a failed availability check for the requested or
	// delta window.
	KindConflict
	// KindUpstream marks a failed external provider call, surfaced as-is.
	KindUpstream
)

// String returns the kind's wire-stable name.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_failure"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the booking service.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind recorded on err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConflict reports whether err is an availability conflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNotFound reports whether err is a failed room or event lookup.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}
