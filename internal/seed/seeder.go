// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
)

// Report summarizes what Apply changed.
type Report struct {
	Branches        int
	Roles           int
	AccountsCreated int
	AccountsSkipped int
}

// Seeder applies manifests. Applying the same manifest twice is safe:
// branches and roles are matched by name and existing accounts are skipped.
type Seeder struct {
	orgs     auth.OrgRepository
	accounts auth.AccountRepository
	hasher   auth.PasswordHasher
	logger   *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Seeder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSeeder creates a Seeder.
func NewSeeder(orgs auth.OrgRepository, accounts auth.AccountRepository, hasher auth.PasswordHasher, opts ...Option) (*Seeder, error) {
	if orgs == nil {
		return nil, oops.Errorf("org repository is required")
	}
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}

	s := &Seeder{
		orgs:     orgs,
		accounts: accounts,
		hasher:   hasher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Apply creates whatever the manifest describes that is not stored yet.
func (s *Seeder) Apply(ctx context.Context, m *Manifest) (*Report, error) {
	if m == nil {
		return nil, oops.Code(CodeInvalidManifest).Errorf("manifest is required")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}

	branchIDs := make(map[string]ulid.ULID, len(m.Branches))
	for _, b := range m.Branches {
		branch, err := auth.NewBranch(b.Name, b.Address, b.Phone)
		if err != nil {
			return report, err
		}
		stored, err := s.orgs.EnsureBranch(ctx, branch)
		if err != nil {
			return report, oops.Code("SEED_FAILED").With("branch", branch.Name).Wrap(err)
		}
		branchIDs[stored.Name] = stored.ID
		report.Branches++
	}

	roleIDs := make(map[string]ulid.ULID, len(m.Roles))
	for _, r := range m.Roles {
		role, err := auth.NewRole(r.Name, r.Description, r.Supervisor)
		if err != nil {
			return report, err
		}
		stored, err := s.orgs.EnsureRole(ctx, role)
		if err != nil {
			return report, oops.Code("SEED_FAILED").With("role", role.Name).Wrap(err)
		}
		roleIDs[stored.Name] = stored.ID
		report.Roles++
	}

	for _, a := range m.Accounts {
		created, err := s.createAccount(ctx, a, branchIDs, roleIDs)
		if err != nil {
			return report, err
		}
		if created {
			report.AccountsCreated++
		} else {
			report.AccountsSkipped++
		}
	}

	s.logger.InfoContext(ctx, "seed applied",
		"branches", report.Branches,
		"roles", report.Roles,
		"accounts_created", report.AccountsCreated,
		"accounts_skipped", report.AccountsSkipped)
	return report, nil
}

func (s *Seeder) createAccount(ctx context.Context, a AccountSeed, branchIDs, roleIDs map[string]ulid.ULID) (bool, error) {
	email := auth.NormalizeEmail(a.Email)

	hash, err := s.hasher.Hash(a.Password)
	if err != nil {
		return false, oops.Code("SEED_FAILED").With("email", email).Wrap(err)
	}

	account, err := auth.NewAccount(email, hash, a.FirstName, a.LastName,
		lookup(branchIDs, a.Branch), lookup(roleIDs, a.Role))
	if err != nil {
		return false, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			s.logger.InfoContext(ctx, "account already exists, skipping", "email", email)
			return false, nil
		}
		return false, oops.Code("SEED_FAILED").With("email", email).Wrap(err)
	}

	s.logger.InfoContext(ctx, "account created", "email", email, "account_id", account.ID.String())
	return true, nil
}

func lookup(ids map[string]ulid.ULID, name string) *ulid.ULID {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	id, ok := ids[name]
	if !ok {
		return nil
	}
	return &id
}
