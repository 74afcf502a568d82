// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxEmailLength matches the width of accounts.email.
const MaxEmailLength = 100

// emailRegex is a pragmatic shape check, not RFC 5322.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account is a principal capable of authenticating.
type Account struct {
	ID           ulid.ULID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	BranchID     *ulid.ULID
	RoleID       *ulid.ULID
	Active       bool
	CreatedAt    time.Time
}

// NewAccount creates a validated, active Account.
// The email is normalized to lower case. passwordHash must already be a
// credential hash produced by a PasswordHasher.
func NewAccount(email, passwordHash, firstName, lastName string, branchID, roleID *ulid.ULID) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidAccount).Errorf("password hash cannot be empty")
	}
	if branchID != nil && branchID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code(CodeInvalidAccount).Errorf("branch ID cannot be zero when provided")
	}
	if roleID != nil && roleID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code(CodeInvalidAccount).Errorf("role ID cannot be zero when provided")
	}

	return &Account{
		ID:           ulid.Make(),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        email,
		PasswordHash: passwordHash,
		BranchID:     branchID,
		RoleID:       roleID,
		Active:       true,
		CreatedAt:    time.Now(),
	}, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email looks like an address and fits storage.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeInvalidAccount).Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code(CodeInvalidAccount).
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return oops.Code(CodeInvalidAccount).Errorf("email is not a valid address")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	Create(ctx context.Context, account *Account) error

	// FindActiveByEmail retrieves an active account by email (case-insensitive).
	// Returns ErrNotFound if no active account has the given email.
	FindActiveByEmail(ctx context.Context, email string) (*Account, error)
}
