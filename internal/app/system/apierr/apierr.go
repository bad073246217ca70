// Package apierr defines the error kinds surfaced by the JSON API and maps
// them to HTTP responses. Errors are built on waffle's pantry/errors, which
// carries the code, message and status; apierr adds the kind used for
// errors.Is matching and the offending input field.
//
//	Validation      → 400
//	Unauthorized    → 401
//	Forbidden       → 403
//	NotFound        → 404
//	Conflict        → 400 (with the offending field)
//	TooManyRequests → 429
//	Unavailable     → 503
//
// Anything else is treated as an internal error (500) and logged.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	wafflerrors "github.com/dalemusser/waffle/pantry/errors"
	"go.uber.org/zap"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error is a classified API error. Field names the offending input field
// when there is one.
type Error struct {
	Kind    Kind
	Field   string
	Message string

	base *wafflerrors.Error
}

func newError(kind Kind, field string, base *wafflerrors.Error) *Error {
	// Conflicts report the duplicate field as a 400, not pantry's 409.
	base.Status = kind.Status()
	if field != "" {
		base.WithDetail("field", field)
	}
	return &Error{Kind: kind, Field: field, Message: base.Message, base: base}
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying pantry error so callers can inspect its
// code and details.
func (e *Error) Unwrap() error {
	if e.base == nil {
		return nil
	}
	return e.base
}

// Status returns the HTTP status for e.
func (e *Error) Status() int {
	if e.base == nil {
		return e.Kind.Status()
	}
	return e.base.HTTPStatus()
}

// Code returns the machine-readable pantry error code.
func (e *Error) Code() string {
	if e.base == nil {
		return wafflerrors.CodeInternalError
	}
	return e.base.Code
}

// Is matches another *Error of the same kind, so errors.Is(err, ErrForbidden)
// works for any forbidden error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Field == "" && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrTooManyRequests = &Error{Kind: KindTooManyRequests}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
)

// Validation returns a 400 error for a malformed or missing field.
func Validation(field, msg string) *Error {
	return newError(KindValidation, field, wafflerrors.Validation(msg))
}

// Unauthorized returns a 401 error.
func Unauthorized(msg string) *Error {
	return newError(KindUnauthorized, "", wafflerrors.Unauthorized(msg))
}

// Forbidden returns a 403 error.
func Forbidden(msg string) *Error {
	return newError(KindForbidden, "", wafflerrors.Forbidden(msg))
}

// NotFound returns a 404 error.
func NotFound(msg string) *Error {
	return newError(KindNotFound, "", wafflerrors.NotFound(msg))
}

// Conflict returns a duplicate-value error for field.
func Conflict(field, msg string) *Error {
	return newError(KindConflict, field, wafflerrors.AlreadyExists(msg))
}

// TooManyRequests returns a 429 error.
func TooManyRequests(msg string) *Error {
	return newError(KindTooManyRequests, "", wafflerrors.TooManyRequests(msg))
}

// Unavailable returns a 503 error for a backend that is not configured or
// not reachable.
func Unavailable(msg string) *Error {
	return newError(KindUnavailable, "", wafflerrors.ServiceUnavailable(msg))
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

type body struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Write renders err as JSON with the matching status code. Errors that are
// neither an *Error nor a pantry error become a generic 500, which is logged.
func Write(w http.ResponseWriter, logger *zap.Logger, err error) {
	var e *Error
	if errors.As(err, &e) {
		WriteJSON(w, e.Status(), body{Error: e.Message, Field: e.Field})
		return
	}

	pe := wafflerrors.From(err)
	if pe.HTTPStatus() >= http.StatusInternalServerError && logger != nil {
		logger.Error("internal error", zap.String("code", pe.Code), zap.Error(err))
	}
	WriteJSON(w, pe.HTTPStatus(), body{Error: pe.Message})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
