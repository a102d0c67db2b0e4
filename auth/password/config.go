package password

import (
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a password hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config configures password hashing.
type Config struct {
	// Algorithm defaults to bcrypt.
	Algorithm Algorithm `mapstructure:"algorithm"`

	// BcryptCost is the bcrypt work factor (default 12).
	BcryptCost int `mapstructure:"bcrypt_cost"`

	Argon2Time    uint32 `mapstructure:"argon2_time"`
	Argon2Memory  uint32 `mapstructure:"argon2_memory"` // KiB
	Argon2Threads uint8  `mapstructure:"argon2_threads"`

	// MinLength is the minimum password length in characters (default 1).
	MinLength int `mapstructure:"min_length"`

	// MaxConcurrent bounds simultaneous hash computations (default GOMAXPROCS).
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// MaxWait is how long a request may queue for a hashing slot (default 5s).
	MaxWait time.Duration `mapstructure:"max_wait"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	if c.MinLength == 0 {
		c.MinLength = 1
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = runtime.GOMAXPROCS(0)
	}
	if c.MaxWait == 0 {
		c.MaxWait = 5 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported algorithm: %s (use bcrypt or argon2id)", c.Algorithm)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d (got: %d)", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.MinLength < 1 {
		return fmt.Errorf("min_length must be >= 1 (got: %d)", c.MinLength)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be >= 1 (got: %d)", c.MaxConcurrent)
	}
	return nil
}

// Describe summarizes the configuration for the startup banner.
func (c *Config) Describe() string {
	if c.Algorithm == AlgorithmArgon2id {
		return fmt.Sprintf("argon2id(t=%d,m=%dKiB,p=%d)", c.Argon2Time, c.Argon2Memory, c.Argon2Threads)
	}
	return fmt.Sprintf("bcrypt(cost=%d)", c.BcryptCost)
}

// NewHasher creates the Hasher selected by cfg.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		return NewArgon2Hasher(
			WithArgon2Time(cfg.Argon2Time),
			WithArgon2Memory(cfg.Argon2Memory),
			WithArgon2Threads(cfg.Argon2Threads),
			WithArgon2MinLength(cfg.MinLength),
		)
	default:
		return NewBcryptHasher(WithCost(cfg.BcryptCost), WithMinLength(cfg.MinLength))
	}
}
