package database

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/todoapi/errors"
)

var connectionErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"driver: bad connection",
	"database is closed",
}

// IsConnectionError reports whether err looks like a lost or refused
// connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range connectionErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsNotFoundError reports whether err is GORM's record-not-found.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation.
// It relies on TranslateError, which Open enables.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// FromDatabase converts a database error to an AppError. Details of the
// underlying error stay in Cause.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "").WithCause(err)
	case IsDuplicateError(err):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsConnectionError(err):
		return apperrors.New(apperrors.ErrCodeDatabaseError,
			fmt.Sprintf("Database is temporarily unavailable while accessing %s.", resource),
			http.StatusServiceUnavailable).WithCause(err)
	default:
		return apperrors.DatabaseError(err)
	}
}
