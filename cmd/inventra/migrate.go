// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventra/inventra/internal/store"
)

// migrationRunner is the subset of store.Migrator used by the migrate commands.
type migrationRunner interface {
	Up() error
	Down() error
	Rollback(n int) error
	Force(version uint) error
	Version() (version uint, dirty bool, err error)
	PendingMigrations() ([]store.Migration, error)
	Close() error
}

var _ migrationRunner = (*store.Migrator)(nil)

type migratorFactory func(url string) (migrationRunner, error)

func defaultMigratorFactory(url string) (migrationRunner, error) {
	m, err := store.NewMigrator(url, store.WithMigrationLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(defaultMigratorFactory, os.Getenv)
}

func newMigrateCmd(factory migratorFactory, getenv func(string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the PostgreSQL schema migrations.`,
	}

	withMigrator := func(run func(*cobra.Command, migrationRunner) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadDatabaseConfig(cmd, getenv)
			if err != nil {
				return err
			}
			m, err := factory(cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := m.Close(); closeErr != nil {
					slog.Warn("failed to close migrator", "error", closeErr)
				}
			}()
			return run(cmd, m)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  withMigrator(runMigrateUp),
	}

	var (
		yes   bool
		steps int
	)
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("refusing to roll back the schema without --yes")
			}
			return runMigrateDown(cmd, m, steps)
		}),
	}
	down.Flags().BoolVar(&yes, "yes", false, "confirm the rollback; without --steps every table is dropped")
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back (0 = all)")

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied and clear the dirty flag",
		Long: `Record <version> as the current schema version without running any SQL.
Use it after fixing the database by hand following a failed migration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 0)
			if err != nil {
				return oops.Code("MIGRATION_VERSION_INVALID").With("version", args[0]).Wrap(err)
			}
			return withMigrator(func(cmd *cobra.Command, m migrationRunner) error {
				if err := m.Force(uint(v)); err != nil {
					return err
				}
				cmd.Printf("Schema version forced to %d\n", v)
				return nil
			})(cmd, args)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version and pending migrations",
		RunE:  withMigrator(runMigrateVersion),
	}

	cmd.AddCommand(up, down, force, version)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, m migrationRunner) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("Database is up to date")
		return nil
	}

	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, m migrationRunner, steps int) error {
	if steps > 0 {
		cmd.Printf("Rolling back %d migration(s)...\n", steps)
		if err := m.Rollback(steps); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
		}
	} else {
		cmd.Println("Rolling back all migrations...")
		if err := m.Down(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
		}
	}
	cmd.Println("Rollback completed")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, m migrationRunner) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	line := fmt.Sprintf("Current version: %d", version)
	if mig, ok, err := store.LookupMigration(version); err != nil {
		return err
	} else if ok {
		line += " (" + mig.String() + ")"
	}
	if dirty {
		line += " [dirty]"
	}
	cmd.Println(line)

	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	cmd.Printf("Pending migrations: %d\n", len(pending))
	for _, mig := range pending {
		cmd.Println("  " + mig.String())
	}
	return nil
}
