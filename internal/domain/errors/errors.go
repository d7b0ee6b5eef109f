// Package errors defines the application error taxonomy.
// Every failure this core can surface maps to one of the errors below; each
// carries the HTTP status and business code the delivery layer responds with.
package errors

import (
	"net/http"

	"passport/internal/errors"
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
	// Registration errors
	ErrDuplicateEmail = NewBaseError(
		http.StatusBadRequest,
		"DUPLICATE_EMAIL",
		"A user with that email already exists",
		"",
	)

	ErrMissingPassword = NewBaseError(
		http.StatusBadRequest,
		"MISSING_PASSWORD",
		"A password is required",
		"",
	)

	// Credential errors
	ErrInvalidCredentials = NewBaseError(
		http.StatusBadRequest,
		"INVALID_CREDENTIALS",
		"Email or password is incorrect",
		"",
	)

	ErrMissingUser = NewBaseError(
		http.StatusBadRequest,
		"MISSING_USER",
		"No user exists for that identifier",
		"",
	)

	// Session errors
	ErrTokenNotFound = NewBaseError(
		http.StatusUnauthorized,
		"TOKEN_NOT_FOUND",
		"Unknown session token",
		"",
	)

	ErrTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
		"Session token has expired",
		"",
	)

	ErrMissingOrMalformedHeader = NewBaseError(
		http.StatusUnauthorized,
		"MISSING_OR_MALFORMED_HEADER",
		"Authorization header is missing or not a Bearer token",
		"",
	)

	// Collaborator errors
	ErrHashingUnavailable = NewBaseError(
		http.StatusInternalServerError,
		"HASHING_UNAVAILABLE",
		"Password hashing is unavailable",
		"",
	)

	ErrStoreUnavailable = NewBaseError(
		http.StatusInternalServerError,
		"STORE_UNAVAILABLE",
		"The session store is unavailable",
		"",
	)

	// Validation errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request input failed validation",
		"",
	)
)

// StoreExecuteError represents a store execution failure, implementing the AppError interface.
// It wraps the driver error so logs keep the cause while clients only see the generic message.
type StoreExecuteError struct {
	err     error
	details string
}

// NewStoreExecuteError creates a store-related error
func NewStoreExecuteError(err error, details string) AppError {
	return &StoreExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StoreExecuteError) Error() string {
	return errors.Wrap(e.err, "store execution failed").Error()
}

// Unwrap exposes the driver error for errors.Is/As.
func (e *StoreExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *StoreExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *StoreExecuteError) ErrorCode() string {
	return "STORE_UNAVAILABLE"
}

// Message returns the user-friendly error message
func (e *StoreExecuteError) Message() string {
	return "The session store is unavailable"
}

// Details returns detailed error information
func (e *StoreExecuteError) Details() string {
	return e.details
}
