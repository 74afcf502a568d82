// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"context"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/internal/auth/postgres"
	"github.com/inventra/inventra/internal/seed"
	"github.com/inventra/inventra/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// SeedDeps contains injectable dependencies for the seed command.
// All fields with nil values will use their default implementations.
type SeedDeps struct {
	// Getenv reads environment variables.
	// Default: os.Getenv
	Getenv func(string) string

	// DatabaseFactory opens the connection pool.
	// Default: store.OpenPool
	DatabaseFactory func(ctx context.Context, url string) (Database, error)
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed <manifest.yaml>",
		Short: "Load branches, roles and accounts from a seed manifest",
		Long: `Creates the branches, roles and accounts described in a YAML manifest.
Branches and roles are matched by name and existing accounts are skipped,
so the command can be run repeatedly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedWithDeps(cmd, args[0], cfg, nil)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeedWithDeps(cmd *cobra.Command, path string, cfg *seedConfig, deps *SeedDeps) error {
	if deps == nil {
		deps = &SeedDeps{}
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = func(ctx context.Context, url string) (Database, error) {
			pool, err := store.OpenPool(ctx, url)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}

	manifest, err := loadManifest(path)
	if err != nil {
		return err
	}

	appCfg, err := loadDatabaseConfig(cmd, deps.Getenv)
	if err != nil {
		return err
	}
	hasher, err := auth.NewScryptHasher(appCfg.HasherParams())
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := deps.DatabaseFactory(ctx, appCfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	seeder, err := seed.NewSeeder(
		postgres.NewOrgRepository(db),
		postgres.NewAccountRepository(db),
		hasher,
	)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "create seeder").Wrap(err)
	}

	report, err := seeder.Apply(ctx, manifest)
	if err != nil {
		return err
	}

	cmd.Printf("Branches: %d, roles: %d\n", report.Branches, report.Roles)
	cmd.Printf("Accounts created: %d, already present: %d\n", report.AccountsCreated, report.AccountsSkipped)
	cmd.Println("Seeding complete!")
	return nil
}

// loadManifest reads, schema-checks and parses a manifest file.
func loadManifest(path string) (*seed.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code("SEED_MANIFEST_READ_FAILED").With("file", path).Wrap(err)
	}
	if err := seed.ValidateSchema(data); err != nil {
		return nil, oops.With("file", path).With("detail", seed.FormatSchemaError(err)).Wrap(err)
	}
	m, err := seed.ParseManifest(data)
	if err != nil {
		return nil, oops.With("file", path).Wrap(err)
	}
	return m, nil
}
