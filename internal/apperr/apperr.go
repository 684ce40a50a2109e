// Package apperr provides structured error handling for shiplog.
// Every failure in the pipeline carries a Kind from a fixed taxonomy plus
// enough context (repo, branch, mode) to reconstruct what was attempted.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// Validation errors are caused by malformed or incomplete input.
	// No I/O is attempted once one is raised.
	Validation Kind = iota
	// NotFound means an upstream repo, tag, commit, or date window yielded no data.
	NotFound
	// Upstream means the commit-history provider failed at the transport level.
	Upstream
	// Generation means the text-generation provider was unavailable or failed outright.
	Generation
	// OverlapConflict means the candidate range intersects a published range in the same scope.
	OverlapConflict
	// Storage means the persistence layer failed.
	Storage
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "Validation Error"
	case NotFound:
		return "Not Found"
	case Upstream:
		return "Upstream Error"
	case Generation:
		return "Generation Error"
	case OverlapConflict:
		return "Overlap Conflict"
	case Storage:
		return "Storage Error"
	default:
		return "Error"
	}
}

// Code returns the wire identifier used in JSON error responses.
func (k Kind) Code() string {
	switch k {
	case Validation:
		return "validation_error"
	case NotFound:
		return "not_found"
	case Upstream:
		return "upstream_error"
	case Generation:
		return "generation_error"
	case OverlapConflict:
		return "overlap_conflict"
	case Storage:
		return "storage_error"
	default:
		return "error"
	}
}

// HTTPStatus maps the kind to the status code the API surfaces.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Upstream:
		return http.StatusBadGateway
	case Generation:
		return http.StatusServiceUnavailable
	case OverlapConflict:
		return http.StatusConflict
	case Storage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is a structured error with a kind and request context.
type Error struct {
	// Kind is the taxonomy entry for this failure.
	Kind Kind
	// Message is a human-readable description of what went wrong.
	Message string
	// Repo is the "owner/name" scope the request was operating on, if known.
	Repo string
	// Branch is the branch scope, if known.
	Branch string
	// Mode is the range input mode ("date", "sha", "tag"), if known.
	Mode string
	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps a cause with a kind and message. Returns nil for a nil cause.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithScope attaches the (repo, branch) scope and returns the error for chaining.
func (e *Error) WithScope(repo, branch string) *Error {
	e.Repo = repo
	e.Branch = branch
	return e
}

// WithMode attaches the range input mode and returns the error for chaining.
func (e *Error) WithMode(mode string) *Error {
	e.Mode = mode
	return e
}

// As attempts to convert an error to an *Error. Returns nil when the chain
// contains no *Error.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	appErr := As(err)
	return appErr != nil && appErr.Kind == kind
}

// KindOf returns the kind carried by err, or Storage when err is not an *Error.
// Unclassified failures are treated as internal by the API layer.
func KindOf(err error) Kind {
	if appErr := As(err); appErr != nil {
		return appErr.Kind
	}
	return Storage
}
