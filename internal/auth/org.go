// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Branch is a store location that accounts belong to.
type Branch struct {
	ID      ulid.ULID
	Name    string
	Address string
	Phone   string
	Active  bool
}

// Role is a named account role. No permissions are attached to it.
type Role struct {
	ID           ulid.ULID
	Name         string
	Description  string
	IsSupervisor bool
	Active       bool
}

// NewBranch creates a validated, active Branch.
func NewBranch(name, address, phone string) (*Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("BRANCH_INVALID").Errorf("branch name cannot be empty")
	}
	return &Branch{
		ID:      ulid.Make(),
		Name:    name,
		Address: strings.TrimSpace(address),
		Phone:   strings.TrimSpace(phone),
		Active:  true,
	}, nil
}

// NewRole creates a validated, active Role.
func NewRole(name, description string, isSupervisor bool) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("ROLE_INVALID").Errorf("role name cannot be empty")
	}
	return &Role{
		ID:           ulid.Make(),
		Name:         name,
		Description:  strings.TrimSpace(description),
		IsSupervisor: isSupervisor,
		Active:       true,
	}, nil
}

// OrgRepository manages branches and roles.
type OrgRepository interface {
	// EnsureBranch inserts the branch unless one with the same name exists,
	// and returns the stored branch.
	EnsureBranch(ctx context.Context, branch *Branch) (*Branch, error)

	// EnsureRole inserts the role unless one with the same name exists,
	// and returns the stored role.
	EnsureRole(ctx context.Context, role *Role) (*Role, error)
}
