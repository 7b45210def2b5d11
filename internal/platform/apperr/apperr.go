// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package apperr defines the centralized error handling framework for Folio.

It provides a rich error type that bridges the gap between low-level
document/storage errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: LOAD_FAILED, RENDER_ERROR, INVALID_FORMAT, STORAGE_ERROR and
    NETWORK_ERROR cover the reader failure modes; NOT_FOUND and
    VALIDATION_ERROR cover the request surface.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError]
to ensure consistent API responses.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the Folio API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., filesystem paths).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "LOAD_FAILED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Reader Errors

// LoadFailed creates a 422 [AppError] for a document that could not be
// fetched or parsed. Fatal to the reading session being opened.
func LoadFailed(msg string, cause error) *AppError {
	return &AppError{
		Code:       "LOAD_FAILED",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// RenderError creates a 500 [AppError] for a page or location that failed to
// render. Recoverable: the session stays open and other pages remain reachable.
func RenderError(msg string, cause error) *AppError {
	return &AppError{
		Code:       "RENDER_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// InvalidFormat creates a 415 [AppError] for an unsupported or undetectable
// document type. Raised before any adapter is constructed.
func InvalidFormat(msg string) *AppError {
	return &AppError{
		Code:       "INVALID_FORMAT",
		Message:    msg,
		HTTPStatus: http.StatusUnsupportedMediaType,
	}
}

// StorageError creates a 500 [AppError] for a persistence write failure.
//
// # Failure Semantics
//
// Storage errors are always non-fatal: callers log them and keep the
// in-memory state authoritative for the rest of the session. The constructor
// exists so logs and internal signals stay on the shared taxonomy.
func StorageError(cause error) *AppError {
	return &AppError{
		Code:       "STORAGE_ERROR",
		Message:    "Failed to persist reader state",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NetworkError creates a 502 [AppError] for a feed or document fetch
// transport failure. Retryable by user-initiated reload only.
func NetworkError(msg string, cause error) *AppError {
	return &AppError{
		Code:       "NETWORK_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Bookmark") // Returns "Bookmark not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsNotFound reports whether err carries the NOT_FOUND code. Stores use it to
// distinguish a first read (no document yet) from a real storage failure.
func IsNotFound(err error) bool {
	ae := As(err)
	return ae != nil && ae.Code == "NOT_FOUND"
}

// CodeOf returns the machine-readable code of err, or "INTERNAL_ERROR" for
// errors outside the taxonomy.
func CodeOf(err error) string {
	if ae := As(err); ae != nil {
		return ae.Code
	}
	return "INTERNAL_ERROR"
}
