// Package apperr defines the typed errors returned by the dispatch coordinator
// and translated to HTTP responses by the features.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for callers deciding whether to retry.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindStoreFailure    Kind = "store_failure"
	KindPublishFailure  Kind = "publish_failure"
	KindPartialFailure  Kind = "partial_failure"
)

// ErrVersionConflict is returned by stores when a conditional replace finds
// the document was written by someone else since it was read.
var ErrVersionConflict = errors.New("document version conflict")

// Error is the structured error surfaced to callers.
type Error struct {
	Kind    Kind
	Message string // human readable, safe to show
	Field   string // offending input field, if any
	ID      string // offending id, if any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.NotFound)
// works against the sentinels below.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind && t.Message == ""
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	InvalidArgument = &Error{Kind: KindInvalidArgument}
	NotFound        = &Error{Kind: KindNotFound}
	StoreFailure    = &Error{Kind: KindStoreFailure}
	PublishFailure  = &Error{Kind: KindPublishFailure}
	PartialFailure  = &Error{Kind: KindPartialFailure}
)

// Invalid reports a missing or malformed input field.
func Invalid(field, message string) *Error {
	return &Error{Kind: KindInvalidArgument, Field: field, Message: message}
}

// Missing reports an id that does not resolve. entity is "officer" or "incident".
func Missing(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Field: entity, ID: id, Message: entity + " not found"}
}

// Store wraps a persistence failure.
func Store(message, id string, cause error) *Error {
	return &Error{Kind: KindStoreFailure, Message: message, ID: id, Cause: cause}
}

// Publish wraps an event bus failure.
func Publish(event string, cause error) *Error {
	return &Error{Kind: KindPublishFailure, Field: event, Message: "publish " + event + " failed", Cause: cause}
}

// Partial reports a multi-step mutation that committed some writes before
// failing.
func Partial(message string, cause error) *Error {
	return &Error{Kind: KindPartialFailure, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindStoreFailure for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// HTTPStatus maps an error to the response status the API returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}
