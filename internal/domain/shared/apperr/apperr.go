// Package apperr defines the typed failures returned across the booking engine boundary.
//
// Every rejection carries a Kind that callers branch on and a Reason that is safe to show to
// an end user. Sentinels such as ErrConflict match any *Error of the same kind through errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindPastDate            Kind = "past_date"
	KindConflict            Kind = "conflict"
	KindForbiddenTransition Kind = "forbidden_transition"
	KindForbidden           Kind = "forbidden"
	KindNotAuthenticated    Kind = "not_authenticated"
	KindNotFound            Kind = "not_found"
	KindTransient           Kind = "transient"
)

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrPastDate            = &Error{Kind: KindPastDate}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrForbiddenTransition = &Error{Kind: KindForbiddenTransition}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrNotAuthenticated    = &Error{Kind: KindNotAuthenticated}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrTransient           = &Error{Kind: KindTransient}
)

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap attaches a kind and reason to an underlying cause.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, ErrConflict) matches any conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(reason string) *Error          { return New(KindValidation, reason) }
func PastDate(reason string) *Error            { return New(KindPastDate, reason) }
func Conflict(reason string) *Error            { return New(KindConflict, reason) }
func ForbiddenTransition(reason string) *Error { return New(KindForbiddenTransition, reason) }
func Forbidden(reason string) *Error           { return New(KindForbidden, reason) }
func NotAuthenticated(reason string) *Error    { return New(KindNotAuthenticated, reason) }
func NotFound(reason string) *Error            { return New(KindNotFound, reason) }

func Transient(err error) *Error {
	return Wrap(KindTransient, "temporarily unavailable, please retry", err)
}

// KindOf extracts the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the user-facing reason of err, falling back to a generic message.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return "something went wrong"
}

// Classify returns err unchanged when it is already typed and wraps anything else as transient.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Transient(err)
}

// Retryable reports whether the caller may retry the operation as is.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return KindOf(err) == KindTransient
}
