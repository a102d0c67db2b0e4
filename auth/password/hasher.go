// Package password hashes and verifies user passwords.
//
// Hashes are self-describing strings that embed their salt and cost, so a
// Compare needs nothing but the stored value:
//
//	h := password.NewHasher(cfg)
//	hash, err := h.Hash("pw123")
//	ok, err := h.Compare("pw123", hash) // true, nil
//
// Compare distinguishes a wrong password (false, nil) from an unusable
// stored hash (false, ErrMalformedHash).
package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the bcrypt work factor used when none is configured.
const DefaultBcryptCost = 12

// bcryptMaxBytes is the input length bcrypt can consume.
const bcryptMaxBytes = 72

var (
	ErrInvalidEncoding  = errors.New("password: not valid UTF-8")
	ErrPasswordTooShort = errors.New("password: too short")
	ErrPasswordTooLong  = errors.New("password: longer than 72 bytes")
	ErrMalformedHash    = errors.New("password: malformed hash")
)

// Hasher produces and checks salted password hashes.
type Hasher interface {
	// Hash returns a new salted hash of plaintext.
	Hash(plaintext string) (string, error)
	// Compare reports whether plaintext matches hash in constant time.
	Compare(plaintext, hash string) (bool, error)
}

// IsInputError reports whether err was caused by the plaintext rather than
// by the hasher itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidEncoding) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordTooLong)
}

func checkInput(plaintext string, minLength int) error {
	if !utf8.ValidString(plaintext) {
		return ErrInvalidEncoding
	}
	if utf8.RuneCountInString(plaintext) < minLength {
		return fmt.Errorf("%w: minimum is %d characters", ErrPasswordTooShort, minLength)
	}
	return nil
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost      int
	minLength int
}

// BcryptOption configures a BcryptHasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the work factor. Values outside bcrypt's range are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithMinLength sets the minimum accepted password length.
func WithMinLength(n int) BcryptOption {
	return func(h *BcryptHasher) {
		if n > 0 {
			h.minLength = n
		}
	}
}

// NewBcryptHasher creates a bcrypt Hasher.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultBcryptCost, minLength: 1}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if err := checkInput(plaintext, h.minLength); err != nil {
		return "", err
	}
	if len(plaintext) > bcryptMaxBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: bcrypt: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(plaintext, hash string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
	// Inputs Hash would have refused can never match.
	if !utf8.ValidString(plaintext) || len(plaintext) > bcryptMaxBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}
