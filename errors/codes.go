package errors

// ErrorCode is a machine-readable error code returned to clients.
type ErrorCode string

// Request errors.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
)

// Account errors.
const (
	// ErrCodeAlreadyExists is returned when a unique resource is created twice.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeInvalidCredentials is returned by login for an unknown email or a wrong password.
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	// ErrCodeUnauthorized is returned by the auth gate for absent or rejected tokens.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Server errors.
const (
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimited:        true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeDatabaseError:      true,
}

// IsRetryableCode reports whether a client may retry a request that failed with code.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
