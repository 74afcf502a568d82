// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventra/inventra/internal/config"
	"github.com/inventra/inventra/internal/xdg"
)

// NewRootCmd creates the root command for the Inventra CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventra",
		Short: "Inventra - inventory management backend",
		Long: `Inventra serves the authentication and session API of the
inventory management platform and provides tools to manage its database.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path (default: $XDG_CONFIG_HOME/inventra/config.yaml if present)")
	flags.String("environment", config.EnvDevelopment, "runtime environment (development, production, test)")
	flags.String("database-url", "", "PostgreSQL connection URL (or set "+config.EnvDatabaseURL+")")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json or text)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateSeedsCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// loadConfig merges the config file named by --config (or config.yaml in
// the XDG config directory), the command's flags and the environment read
// through getenv.
func loadConfig(cmd *cobra.Command, getenv func(string) string, skipValidation bool) (*config.Config, error) {
	// Persistent flags join Flags() when cobra parses the command line;
	// merge them for commands invoked directly.
	flags := cmd.Flags()
	flags.AddFlagSet(cmd.InheritedFlags())
	flags.AddFlagSet(cmd.PersistentFlags())

	var path string
	if f := flags.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	if path == "" && getenv != nil {
		found, err := xdg.ConfigFile(getenv)
		if err != nil {
			return nil, err
		}
		path = found
	}
	return config.Load(config.LoadOptions{
		File:           path,
		Flags:          flags,
		Getenv:         getenv,
		SkipValidation: skipValidation,
	})
}

// loadDatabaseConfig loads the config without full validation and checks
// only the database URL, so maintenance commands run without the server's
// secrets.
func loadDatabaseConfig(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	cfg, err := loadConfig(cmd, getenv, true)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, oops.Code("CONFIG_INVALID").
			With("field", "database.url").
			Errorf("database URL is required (set %s or --database-url)", config.EnvDatabaseURL)
	}
	return cfg, nil
}
