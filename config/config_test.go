package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type testAuth struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Auth          testAuth `mapstructure:"auth"`
	Port          int      `mapstructure:"port"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" || !cfg.Debug {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults, got %+v", cfg.Logging)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if !cfg.IsProduction() {
			t.Error("expected IsProduction")
		}
	})
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: todoapi
environment: staging
port: 8080
auth:
  secret: from-yaml
  access_token_ttl: 2h
`)

	var cfg testConfig
	if err := LoadConfig("todoapi", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "todoapi" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Auth.Secret != "from-yaml" || cfg.Auth.TTL != 2*time.Hour {
		t.Errorf("unexpected auth config %+v", cfg.Auth)
	}
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: todoapi\nauth:\n  secret: from-yaml\n")
	t.Setenv("AUTH_SECRET", "from-env")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "30m")

	var cfg testConfig
	if err := LoadConfig("todoapi", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Auth.Secret)
	}
	if cfg.Auth.TTL != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.Auth.TTL)
	}
}

func TestLoadConfig_EnvPrefix(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TODOAPI_PORT", "9090")

	var cfg testConfig
	err := LoadConfig("todoapi", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(filepath.Join(dir, "none")),
		WithEnvPrefix("TODOAPI"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Port)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("todoapi", &cfg, WithConfigFile("/nonexistent/config.yml"), WithEnvFile("/nonexistent/.env")); err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys(&testConfig{})
	for _, want := range []string{"name", "logging.level", "auth.secret", "auth.access_token_ttl", "port"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected key %q in %v", want, keys)
		}
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error    { return nil }

func TestResolver_FindsServiceFiles(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/todoapi/config.yml": true,
		"./.env":                   true,
	}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("todoapi", LoaderConfig{})
	if files.ConfigFile != "./cmd/todoapi/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}
}

func TestResolver_ExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./config.yml": true}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("todoapi", LoaderConfig{ConfigFile: "/etc/todo.yml"})
	if files.ConfigFile != "/etc/todo.yml" {
		t.Errorf("expected explicit path, got %q", files.ConfigFile)
	}
}
