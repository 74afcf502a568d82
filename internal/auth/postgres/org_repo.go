// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
)

// OrgRepository implements auth.OrgRepository using PostgreSQL.
type OrgRepository struct {
	db DB
}

// NewOrgRepository creates a new OrgRepository.
func NewOrgRepository(db DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// EnsureBranch inserts branch unless its name is taken and returns the
// stored row. An existing row is returned unchanged.
func (r *OrgRepository) EnsureBranch(ctx context.Context, branch *auth.Branch) (*auth.Branch, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO branches (id, name, address, phone, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, address, phone, active
	`, branch.ID.String(), branch.Name, branch.Address, branch.Phone, branch.Active)

	var (
		stored auth.Branch
		idStr  string
	)
	if err := row.Scan(&idStr, &stored.Name, &stored.Address, &stored.Phone, &stored.Active); err != nil {
		return nil, oops.Code("BRANCH_ENSURE_FAILED").
			With("operation", "upsert branch").
			With("name", branch.Name).
			Wrap(err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("BRANCH_ENSURE_FAILED").With("operation", "parse branch id").With("id", idStr).Wrap(err)
	}
	stored.ID = id
	return &stored, nil
}

// EnsureRole inserts role unless its name is taken and returns the stored
// row. An existing row is returned unchanged.
func (r *OrgRepository) EnsureRole(ctx context.Context, role *auth.Role) (*auth.Role, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO roles (id, name, description, is_supervisor, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, description, is_supervisor, active
	`, role.ID.String(), role.Name, role.Description, role.IsSupervisor, role.Active)

	var (
		stored auth.Role
		idStr  string
	)
	if err := row.Scan(&idStr, &stored.Name, &stored.Description, &stored.IsSupervisor, &stored.Active); err != nil {
		return nil, oops.Code("ROLE_ENSURE_FAILED").
			With("operation", "upsert role").
			With("name", role.Name).
			Wrap(err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ROLE_ENSURE_FAILED").With("operation", "parse role id").With("id", idStr).Wrap(err)
	}
	stored.ID = id
	return &stored, nil
}

var _ auth.OrgRepository = (*OrgRepository)(nil)
