// Package jwt issues and verifies signed, expiring bearer tokens.
//
// The service is generic over the claims type so callers decide what a
// token carries; UserClaims covers the common "token names a user" case:
//
//	svc, err := jwt.NewUserTokenService(cfg)
//	token, err := svc.IssueToken(user.ID)
//	claims, err := svc.Verify(token)
//
// Verify checks the signature before any claim. Every failure wraps one of
// ErrMalformedToken, ErrBadSignature, ErrExpired or ErrInvalidClaims.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Verification failures.
var (
	ErrMalformedToken = errors.New("jwt: malformed token")
	ErrBadSignature   = errors.New("jwt: signature mismatch")
	ErrExpired        = errors.New("jwt: token expired")
	ErrInvalidClaims  = errors.New("jwt: invalid claims")
)

// Defaulter is implemented by claims that accept issue-time defaults.
type Defaulter interface {
	SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string)
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Service signs and verifies tokens carrying claims of type T.
type Service[T gojwt.Claims] struct {
	cfg      Config
	method   gojwt.SigningMethod
	key      []byte
	now      func() time.Time
	parser   *gojwt.Parser
	newEmpty func() T
}

// NewService creates a Service. newEmpty returns a fresh T to decode into.
func NewService[T gojwt.Claims](cfg Config, newEmpty func() T, opts ...Option) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	method := cfg.signingMethod()
	parserOpts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{method.Alg()}),
		gojwt.WithTimeFunc(o.now),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, gojwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audience) > 0 {
		parserOpts = append(parserOpts, gojwt.WithAudience(cfg.Audience[0]))
	}

	return &Service[T]{
		cfg:      cfg,
		method:   method,
		key:      []byte(cfg.Secret),
		now:      o.now,
		parser:   gojwt.NewParser(parserOpts...),
		newEmpty: newEmpty,
	}, nil
}

// Issue stamps claims with the current time and lifetime when T implements
// Defaulter, then signs them.
func (s *Service[T]) Issue(claims T) (string, error) {
	if d, ok := any(claims).(Defaulter); ok {
		d.SetDefaults(s.now(), s.cfg.AccessTokenTTL, s.cfg.Issuer, s.cfg.Audience)
	}
	signed, err := gojwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token, checks its signature and then its claims. A token
// is valid strictly before its expiry.
func (s *Service[T]) Verify(token string) (T, error) {
	var zero T
	parsed, err := s.parser.ParseWithClaims(token, s.newEmpty(), s.keyFunc)
	if err != nil {
		return zero, classify(err)
	}
	claims, ok := parsed.Claims.(T)
	if !ok || !parsed.Valid {
		return zero, ErrInvalidClaims
	}
	return claims, nil
}

// ValidatorFunc adapts Verify to an untyped validator for middleware.
func (s *Service[T]) ValidatorFunc() func(string) (any, error) {
	return func(token string) (any, error) {
		return s.Verify(token)
	}
}

func (s *Service[T]) keyFunc(*gojwt.Token) (interface{}, error) {
	return s.key, nil
}

func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, gojwt.ErrTokenMalformed):
		kind = ErrMalformedToken
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid), errors.Is(err, gojwt.ErrTokenUnverifiable):
		kind = ErrBadSignature
	case errors.Is(err, gojwt.ErrTokenExpired):
		kind = ErrExpired
	default:
		kind = ErrInvalidClaims
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// UserTokenService issues tokens that name a user.
type UserTokenService struct {
	*Service[*UserClaims]
}

// NewUserTokenService creates a UserTokenService.
func NewUserTokenService(cfg Config, opts ...Option) (*UserTokenService, error) {
	svc, err := NewService(cfg, func() *UserClaims { return &UserClaims{} }, opts...)
	if err != nil {
		return nil, err
	}
	return &UserTokenService{Service: svc}, nil
}

// IssueToken returns a signed token for userID.
func (s *UserTokenService) IssueToken(userID string) (string, error) {
	return s.Issue(NewUserClaims(userID))
}
