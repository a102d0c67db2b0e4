package auth

import (
	"fmt"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/password"
)

// Config groups token and password settings.
type Config struct {
	JWT      jwt.Config      `mapstructure:"jwt"`
	Password password.Config `mapstructure:"password"`

	// RateLimitPerMinute caps register and login attempts per client IP.
	// Zero disables the limit.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 30
	}
}

// Validate checks both sub-configurations.
func (c *Config) Validate() error {
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("auth.rate_limit_per_minute must be >= 0 (got: %d)", c.RateLimitPerMinute)
	}
	return nil
}

// Describe returns a one-line summary for the startup banner.
func (c *Config) Describe() string {
	return fmt.Sprintf("%s password=%s", c.JWT.Describe(), c.Password.Describe())
}
