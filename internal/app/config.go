package app

import (
	"fmt"

	"github.com/kbukum/todoapi/auth"
	"github.com/kbukum/todoapi/config"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/server"
)

// ServiceName names the binary, its config file lookup and its telemetry.
const ServiceName = "todoapi"

// Config is the application configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// Load reads the configuration from cmd/todoapi/config.yml, .env files and
// the environment, e.g. AUTH_JWT_SECRET for auth.jwt.secret.
func Load(opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = ServiceName
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}
