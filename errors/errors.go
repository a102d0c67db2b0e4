package errors

import (
	"fmt"
	"net/http"
)

// AppError is the error type rendered by the HTTP layer.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is logged server-side only.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError, deriving Retryable from code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Validation reports a malformed or incomplete request body.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// InvalidInput reports a single invalid field.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// MissingField reports a required field that was absent or blank.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field), http.StatusBadRequest).
		WithDetail("field", field)
}

// NotFound reports a resource that does not exist for the caller.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// AlreadyExists reports a uniqueness conflict. The message never names the
// conflicting value.
func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("A %s with these details already exists.", resource), http.StatusConflict)
}

// InvalidCredentials is the single outcome of a failed login, whatever the reason.
func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid email or password.", http.StatusUnauthorized)
}

// Unauthorized reports a request rejected by the auth gate.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// RateLimited reports a client that exceeded its request budget.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.", http.StatusTooManyRequests)
}

// ServiceUnavailable reports a dependency that cannot serve right now.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// Timeout reports an operation that did not finish in time.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The request took too long. Please try again.", http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again.", http.StatusInternalServerError).
		WithCause(cause)
}

// DatabaseError wraps a storage failure.
func DatabaseError(cause error) *AppError {
	return New(ErrCodeDatabaseError, "A database error occurred. Please try again.", http.StatusInternalServerError).
		WithCause(cause)
}
