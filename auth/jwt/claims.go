package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserClaims identifies the user a token was issued to.
type UserClaims struct {
	gojwt.RegisteredClaims
	UserID string `json:"uid"`
}

// NewUserClaims returns claims for userID. Time claims are set on Issue.
func NewUserClaims(userID string) *UserClaims {
	return &UserClaims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: userID},
		UserID:           userID,
	}
}

// GetUserID returns the id of the authenticated user.
func (c *UserClaims) GetUserID() string { return c.UserID }

// SetDefaults stamps issue time, expiry, a unique id and the configured
// issuer and audience.
func (c *UserClaims) SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string) {
	c.IssuedAt = gojwt.NewNumericDate(now)
	c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if issuer != "" {
		c.Issuer = issuer
	}
	if len(audience) > 0 {
		c.Audience = audience
	}
}

// Validate is called by the parser after the registered claims pass.
func (c *UserClaims) Validate() error {
	if c.UserID == "" {
		return errors.New("missing user id")
	}
	if c.Subject != "" && c.Subject != c.UserID {
		return errors.New("subject does not match user id")
	}
	return nil
}
