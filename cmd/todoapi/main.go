// Command todoapi serves the todo API.
//
//	todoapi                  start the HTTP server
//	todoapi migrate up       apply pending schema migrations
//	todoapi migrate down     roll back all migrations
//	todoapi migrate version  print the schema version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/todoapi/config"
	"github.com/kbukum/todoapi/internal/app"
)

var (
	configFile string
	envFile    string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          app.ServiceName,
		Short:        "Personal todo-list HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: cmd/todoapi/config.yml or ./config.yml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file (default: .env.todoapi or .env)")
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Run schema migrations and exit",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{app.MigrateUp, app.MigrateDown, app.MigrateVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg, args[0])
		},
	}
}

func loadConfig() (*app.Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg, err := app.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
