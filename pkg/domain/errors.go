package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// Engine errors returned to the host. None of them are backend failures.
var (
	// ErrWrongStep is returned when an operation does not apply to the current step.
	ErrWrongStep = errors.New("operation not allowed at current step")
	// ErrUnknownBusiness is returned when the selected tax id is not a candidate.
	ErrUnknownBusiness = errors.New("business is not among the retrieved candidates")
	// ErrStale is returned when a backend response arrived after the step was abandoned.
	ErrStale = errors.New("response discarded: step is no longer current")
	// ErrCallInFlight is returned when the session already waits on a backend call.
	ErrCallInFlight = errors.New("a backend call is already in flight for this session")
	// ErrContactRequired is returned when a business is selected before a contact email was drafted.
	ErrContactRequired = errors.New("contact email is required")
	// ErrNoHistory is returned when navigating past either end of the history.
	ErrNoHistory = errors.New("no history entry in that direction")
)

// Sentinels for errors.Is checks against the backend failure taxonomy.
var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrAlreadyOnboarded = &Error{Kind: KindAlreadyOnboarded}
	ErrGenericFailure   = &Error{Kind: KindGenericFailure}
	ErrNotYetAvailable  = &Error{Kind: KindNotYetAvailable}
)

// Error is a backend failure normalized at the gateway boundary.
type Error struct {
	Kind        ErrorKind // Taxonomy kind, the only field callers branch on
	Op          string    // Backend operation name
	Status      int       // Originating HTTP status, 0 for transport errors
	Description string    // Backend problem description, for logs
	Cause       error     // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Op == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf extracts the taxonomy kind of err.
// Errors that did not cross the gateway boundary are generic failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGenericFailure
}
