package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/todoapi/auth/jwt"
)

func TestNewValidator(t *testing.T) {
	var v TokenValidator = NewValidator(func(tok string) (any, error) {
		if tok == "bad" {
			return nil, errors.New("deny")
		}
		return tok, nil
	})

	if got, err := v.ValidateToken("x"); err != nil || got != "x" {
		t.Errorf("unexpected %v, %v", got, err)
	}
	if _, err := v.ValidateToken("bad"); err == nil {
		t.Error("expected the wrapped function's error")
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{JWT: jwt.Config{Secret: "auth-config-test-secret-0123456789"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Errorf("expected default rate limit, got %d", cfg.RateLimitPerMinute)
	}
	if d := cfg.Describe(); !strings.Contains(d, "HS256") || !strings.Contains(d, "bcrypt(cost=12)") {
		t.Errorf("unexpected description %q", d)
	}

	cfg.JWT.Secret = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "auth.jwt") {
		t.Errorf("expected auth.jwt error, got %v", err)
	}
}
