// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/pkg/errutil"
)

func TestNewAccount(t *testing.T) {
	branchID := ulid.Make()
	roleID := ulid.Make()

	t.Run("creates active account with normalized email", func(t *testing.T) {
		account, err := auth.NewAccount("  Test@Example.COM ", "scrypt$salt$key", " Ada ", "Lovelace", &branchID, &roleID)
		require.NoError(t, err)

		assert.Equal(t, "test@example.com", account.Email)
		assert.Equal(t, "Ada", account.FirstName)
		assert.Equal(t, "Lovelace", account.LastName)
		assert.Equal(t, &branchID, account.BranchID)
		assert.Equal(t, &roleID, account.RoleID)
		assert.True(t, account.Active)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("branch and role are optional", func(t *testing.T) {
		account, err := auth.NewAccount("a@example.com", "scrypt$salt$key", "", "", nil, nil)
		require.NoError(t, err)
		assert.Nil(t, account.BranchID)
		assert.Nil(t, account.RoleID)
	})

	zero := ulid.ULID{}
	tests := []struct {
		name     string
		email    string
		hash     string
		branchID *ulid.ULID
		roleID   *ulid.ULID
	}{
		{"empty email", "", "scrypt$salt$key", nil, nil},
		{"email without at sign", "example.com", "scrypt$salt$key", nil, nil},
		{"email without domain dot", "a@localhost", "scrypt$salt$key", nil, nil},
		{"email too long", strings.Repeat("a", auth.MaxEmailLength) + "@example.com", "scrypt$salt$key", nil, nil},
		{"empty hash", "a@example.com", "", nil, nil},
		{"zero branch", "a@example.com", "scrypt$salt$key", &zero, nil},
		{"zero role", "a@example.com", "scrypt$salt$key", nil, &zero},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := auth.NewAccount(tt.email, tt.hash, "", "", tt.branchID, tt.roleID)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, auth.CodeInvalidAccount)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", auth.NormalizeEmail("  USER@example.com\t"))
}

func TestNewBranch(t *testing.T) {
	branch, err := auth.NewBranch(" Centro ", "Av. 1", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Centro", branch.Name)
	assert.True(t, branch.Active)

	_, err = auth.NewBranch("  ", "", "")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "BRANCH_INVALID")
}

func TestNewRole(t *testing.T) {
	role, err := auth.NewRole("Supervisor", "Store supervisor", true)
	require.NoError(t, err)
	assert.Equal(t, "Supervisor", role.Name)
	assert.True(t, role.IsSupervisor)
	assert.True(t, role.Active)

	_, err = auth.NewRole("", "", false)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "ROLE_INVALID")
}
