package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an operational failure.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindBadRequest
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindUnavailable
)

var kindNames = map[ErrorKind]string{
	KindInternal:        "internal",
	KindBadRequest:      "bad_request",
	KindValidation:      "validation",
	KindUnauthorized:    "unauthorized",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
	KindTooManyRequests: "too_many_requests",
	KindUnavailable:     "unavailable",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// InternalErrorMessage is the only message clients see for unclassified failures.
const InternalErrorMessage = "internal error"

// AppError is the single error type carried from the point of detection
// up to the response boundary. Errors is only set for validation failures
// and maps a field name to its ordered list of violation messages.
type AppError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Errors     map[string][]string
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Status returns "fail" for client errors and "error" for everything else.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode <= 499 {
		return "fail"
	}
	return "error"
}

// IsOperational reports whether the error was anticipated and is safe to report.
func (e *AppError) IsOperational() bool {
	return e.Kind != KindInternal
}

func newAppError(kind ErrorKind, code int, message string) *AppError {
	return &AppError{Kind: kind, StatusCode: code, Message: message}
}

// BadRequest reports malformed or missing input that needs no per-field detail.
func BadRequest(message string) *AppError {
	return newAppError(KindBadRequest, http.StatusBadRequest, message)
}

// Validation reports one or more field level violations.
func Validation(message string, fields map[string][]string) *AppError {
	e := newAppError(KindValidation, http.StatusBadRequest, message)
	e.Errors = fields
	return e
}

// ValidationFromList wraps a flat list of messages under the "general" field.
func ValidationFromList(message string, messages []string) *AppError {
	return Validation(message, map[string][]string{"general": messages})
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Not authorized to access this resource"
	}
	return newAppError(KindUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	return newAppError(KindForbidden, http.StatusForbidden, message)
}

// NotFound builds a 404 error for the named resource, e.g. "Author not found".
func NotFound(resource string) *AppError {
	return newAppError(KindNotFound, http.StatusNotFound, resource+" not found")
}

// Conflict builds a 409 error for the named resource, e.g. "Author already exists".
func Conflict(resource string) *AppError {
	return newAppError(KindConflict, http.StatusConflict, resource+" already exists")
}

// TooManyRequests reports a client over its requests budget.
func TooManyRequests(message string) *AppError {
	return newAppError(KindTooManyRequests, http.StatusTooManyRequests, message)
}

// Unavailable reports the service as temporarily closed, e.g. during maintenance.
func Unavailable(message string) *AppError {
	return newAppError(KindUnavailable, http.StatusServiceUnavailable, message)
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(cause error) *AppError {
	e := newAppError(KindInternal, http.StatusInternalServerError, InternalErrorMessage)
	e.Cause = cause
	return e
}

// AsAppError classifies any error into the taxonomy. Unknown errors become Internal.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
