package account

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned by SelectByEmail when no user has the
	// email.
	ErrUserNotFound = errors.New("account: user not found")
	// ErrUniquenessViolation is returned by Insert when a user with the
	// email already exists.
	ErrUniquenessViolation = errors.New("account: uniqueness violation")
)

// User is a stored account. Hash is the password hasher's output, never
// the plaintext.
type User struct {
	ID    string
	Email string
	Hash  string
}

// UserDirectory is the storage the service depends on.
type UserDirectory interface {
	SelectByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, email, hash string) (*User, error)
}
