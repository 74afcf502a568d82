// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
)

const accountColumns = `id, first_name, last_name, email, password_hash, branch_id, role_id, active, created_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account. A taken email yields ACCOUNT_EXISTS wrapping
// auth.ErrAlreadyExists.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		account.ID.String(),
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		ulidToStringPtr(account.BranchID),
		ulidToStringPtr(account.RoleID),
		account.Active,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_EXISTS").
				With("email", account.Email).
				Wrap(auth.ErrAlreadyExists)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	return nil
}

// FindActiveByEmail retrieves an active account by email (case-insensitive).
func (r *AccountRepository) FindActiveByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(email) = LOWER($1) AND active
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "find active account by email").
			Wrap(err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		a           auth.Account
		idStr       string
		branchIDStr *string
		roleIDStr   *string
	)
	if err := row.Scan(&idStr, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash,
		&branchIDStr, &roleIDStr, &a.Active, &a.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if a.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse account id").With("id", idStr).Wrap(err)
	}
	if a.BranchID, err = parseOptionalULID(branchIDStr, "branch_id"); err != nil {
		return nil, err
	}
	if a.RoleID, err = parseOptionalULID(roleIDStr, "role_id"); err != nil {
		return nil, err
	}
	return &a, nil
}

var _ auth.AccountRepository = (*AccountRepository)(nil)
