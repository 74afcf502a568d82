// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewValidateSeedsCmd creates the validate-seeds subcommand.
func NewValidateSeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-seeds <manifest.yaml>...",
		Short: "Validate seed manifests without touching the database",
		Long: `Checks seed manifests against the manifest schema and verifies
that every account references a branch and role defined in the same file.
Does NOT require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed errors early:
  inventra validate-seeds seeds/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidateSeeds,
	}
}

func runValidateSeeds(cmd *cobra.Command, paths []string) error {
	var firstErr error
	for _, path := range paths {
		m, err := loadManifest(path)
		if err != nil {
			slog.Error("seed validation failed", "file", path, "error", err)
			cmd.Printf("%s: INVALID\n", path)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		cmd.Printf("%s: OK (%d branches, %d roles, %d accounts)\n",
			path, len(m.Branches), len(m.Roles), len(m.Accounts))
	}
	return firstErr
}
