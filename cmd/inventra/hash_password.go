// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventra/inventra/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from standard input",
		Long: `Reads one password line from standard input and prints its scrypt
hash in the stored credential format, using the configured cost factors.

  echo -n 's3cret' | inventra hash-password`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHashPassword(cmd, os.Getenv)
		},
	}
}

func runHashPassword(cmd *cobra.Command, getenv func(string) string) error {
	cfg, err := loadConfig(cmd, getenv, true)
	if err != nil {
		return err
	}
	hasher, err := auth.NewScryptHasher(cfg.HasherParams())
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if scanErr := scanner.Err(); scanErr != nil {
			return oops.Code("INPUT_READ_FAILED").Wrap(scanErr)
		}
		return oops.Code("PASSWORD_REQUIRED").Errorf("no password on standard input")
	}
	password := strings.TrimRight(scanner.Text(), "\r")
	if password == "" {
		return oops.Code("PASSWORD_REQUIRED").Errorf("password must not be empty")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	cmd.Println(hash)
	return nil
}
