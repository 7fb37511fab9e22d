// Package apperr defines the error taxonomy shared across storagesql,
// importer, nql, and resolution: a small set of sentinel Kinds plus a
// typed Error that carries the failing operation and the underlying
// cause, in the wrap-with-fmt.Errorf style used throughout this module.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the categories spec §7 requires
// callers to be able to distinguish.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidNQL           Kind = "invalid_nql"
	KindInvalidFilter        Kind = "invalid_filter"
	KindInvalidResolution    Kind = "invalid_resolution"
	KindEmptyAnnotations     Kind = "empty_annotations"
	KindUniqueViolation      Kind = "unique_violation"
	KindConnection           Kind = "connection"
	KindOperational          Kind = "operational"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindInsufficientPermission Kind = "insufficient_permission"
)

// Sentinel errors usable directly with errors.Is, mirroring the
// Kind values above.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidNQL             = errors.New("invalid nql")
	ErrInvalidFilter          = errors.New("invalid filter")
	ErrInvalidResolution      = errors.New("invalid resolution")
	ErrEmptyAnnotations       = errors.New("no annotations to resolve")
	ErrUniqueViolation        = errors.New("unique constraint violation")
	ErrConnection             = errors.New("database connection error")
	ErrOperational            = errors.New("operational error")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInsufficientPermission = errors.New("insufficient permission")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidNQL:
		return ErrInvalidNQL
	case KindInvalidFilter:
		return ErrInvalidFilter
	case KindInvalidResolution:
		return ErrInvalidResolution
	case KindEmptyAnnotations:
		return ErrEmptyAnnotations
	case KindUniqueViolation:
		return ErrUniqueViolation
	case KindConnection:
		return ErrConnection
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindInsufficientPermission:
		return ErrInsufficientPermission
	default:
		return ErrOperational
	}
}

// Error is the concrete error type returned by this module's packages. Op
// names the failing operation (e.g. "importer.CreateRevision"); Err is the
// underlying cause, often a sentinel from this package or a driver error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.ErrNotFound) succeed against an *Error
// whose Kind corresponds to that sentinel, even when Err itself is some
// unrelated driver error.
func (e *Error) Is(target error) bool {
	return errors.Is(sentinelFor(e.Kind), target)
}

// New builds an *Error for kind k in operation op, wrapping cause.
func New(op string, k Kind, cause error) *Error {
	if cause == nil {
		cause = sentinelFor(k)
	}
	return &Error{Kind: k, Op: op, Err: cause}
}

// Wrap converts a raw database error into a kind-classified *Error,
// translating sql.ErrNoRows to KindNotFound the way the sqlite storage
// layer this is grounded on does. An err that's already a typed *Error
// (a lower layer already classified it) passes through unchanged rather
// than being reclassified as KindOperational.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return New(op, KindNotFound, err)
	}
	return New(op, KindOperational, err)
}

// Is reports whether err is, or wraps, an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return errors.Is(err, sentinelFor(k))
}
