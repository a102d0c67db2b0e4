package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names an HMAC signing algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// DefaultAccessTokenTTL is the token lifetime used when none is configured.
const DefaultAccessTokenTTL = 24 * time.Hour

// Config configures the token service.
type Config struct {
	// Secret is the HMAC key. Required, and at least as long as the
	// method's hash output (32 bytes for HS256).
	Secret string `mapstructure:"secret"`

	// Method defaults to HS256.
	Method SigningMethod `mapstructure:"method"`

	// Issuer and Audience are stamped on issued tokens and, when set,
	// required on verified ones.
	Issuer   string   `mapstructure:"issuer"`
	Audience []string `mapstructure:"audience"`

	// AccessTokenTTL is the lifetime of issued tokens (default 24h).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("secret is required")
	}
	method := c.signingMethod()
	if method == nil {
		return fmt.Errorf("unsupported signing method: %s (use HS256, HS384 or HS512)", c.Method)
	}
	if minLen := method.Hash.Size(); len(c.Secret) < minLen {
		return fmt.Errorf("secret must be at least %d bytes for %s (got: %d)", minLen, c.Method, len(c.Secret))
	}
	if c.AccessTokenTTL < time.Second {
		return fmt.Errorf("access_token_ttl must be at least 1s (got: %s)", c.AccessTokenTTL)
	}
	return nil
}

// Describe summarizes the configuration for the startup banner.
func (c *Config) Describe() string {
	return fmt.Sprintf("JWT(%s) TTL=%s", c.Method, c.AccessTokenTTL)
}

func (c *Config) signingMethod() *gojwt.SigningMethodHMAC {
	switch c.Method {
	case HS256:
		return gojwt.SigningMethodHS256
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return nil
	}
}
