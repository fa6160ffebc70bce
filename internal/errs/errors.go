// Package errs implements the error taxonomy shared by the harvester
// and the search service. Network, Io, and Database are fatal to the
// enclosing job but never corrupt state. AlreadyExists and NotFound
// are locally recovered markers used by the store gateway's idempotent
// inserts without string-matching driver error messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a SearXiv error.
type Kind string

const (
	Network       Kind = "network"
	Io            Kind = "io"
	Database      Kind = "database"
	AlreadyExists Kind = "already_exists"
	NotFound      Kind = "not_found"
)

// Error is SearXiv's structured error value.
type Error struct {
	Kind      Kind
	Op        string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error of the given kind wrapping cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Op:        op,
		Err:       cause,
		Retryable: kind == Network,
	}
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsAlreadyExists reports whether err marks a unique-constraint race
// that the store gateway's idempotent inserts must absorb silently.
func IsAlreadyExists(err error) bool {
	k, ok := KindOf(err)
	return ok && k == AlreadyExists
}

// IsNotFound reports whether err marks a missing-row lookup.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == NotFound
}
