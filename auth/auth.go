package auth

// TokenValidator verifies a bearer token and returns its claims.
// Middleware depends on this rather than on a concrete token format.
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(token string) (any, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// NewValidator wraps fn, typically jwt.Service.ValidatorFunc().
func NewValidator(fn func(string) (any, error)) TokenValidator {
	return TokenValidatorFunc(fn)
}
