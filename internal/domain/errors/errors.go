// Package errors defines application-level error values carrying HTTP status
// and business codes for the delivery layer.
package errors

import (
	"net/http"

	"signage/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// ErrDeviceNotFound signals the device must re-register from scratch;
	// clients must not retry the failed heartbeat.
	ErrDeviceNotFound = NewBaseError(
		http.StatusNotFound,
		"DEVICE_NOT_FOUND",
		"Device is not registered",
		"",
	)

	ErrScheduleNotFound = NewBaseError(
		http.StatusNotFound,
		"SCHEDULE_NOT_FOUND",
		"Schedule does not exist",
		"",
	)

	ErrPlaylistNotFound = NewBaseError(
		http.StatusNotFound,
		"PLAYLIST_NOT_FOUND",
		"Playlist does not exist",
		"",
	)

	ErrInvalidScheduleWindow = NewBaseError(
		http.StatusBadRequest,
		"INVALID_SCHEDULE_WINDOW",
		"Schedule time window is invalid",
		"",
	)

	// ErrCacheBackendUnavailable is recovered locally by forcing a cache
	// miss; it never fails a request.
	ErrCacheBackendUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"CACHE_BACKEND_UNAVAILABLE",
		"Reconciliation cache backend is unavailable",
		"",
	)

	ErrDatabaseFailure = NewBaseError(
		http.StatusInternalServerError,
		"DATABASE_FAILURE",
		"Database operation failed",
		"",
	)
)

// NewDatabaseExecuteError wraps a low-level database error with the generic
// database failure code while preserving the cause for logs.
func NewDatabaseExecuteError(cause error, message string) error {
	return errors.Wrap(ErrDatabaseFailure.WithDetails(cause.Error()), message)
}
