package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Typed errors shared by all services. Handlers translate these to HTTP via
// Status(); everything unrecognized is treated as an upstream failure.

// ValidationError marks malformed, missing or out-of-range input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError marks a referenced entity that does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ForbiddenError marks an authenticated caller that is not entitled to the
// specific target.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return e.Msg }

// ConflictError marks an entity that exists but is not in a state compatible
// with the requested transition.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// UpstreamError wraps a document-store or third-party provider failure.
type UpstreamError struct {
	Msg string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// GeocodingError is an address-resolution failure (a specialization of
// UpstreamError).
type GeocodingError struct {
	Msg string
	Err error
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GeocodingError) Unwrap() error { return e.Err }

func Validation(format string, v ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, v...)}
}

func NotFound(format string, v ...interface{}) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, v...)}
}

func Forbidden(format string, v ...interface{}) error {
	return &ForbiddenError{Msg: fmt.Sprintf(format, v...)}
}

func Conflict(format string, v ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, v...)}
}

func Upstream(err error, format string, v ...interface{}) error {
	return &UpstreamError{Msg: fmt.Sprintf(format, v...), Err: err}
}

func Geocoding(err error, format string, v ...interface{}) error {
	return &GeocodingError{Msg: fmt.Sprintf(format, v...), Err: err}
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		fe *ForbiddenError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &fe):
		return http.StatusForbidden
	case errors.As(err, &ce):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
