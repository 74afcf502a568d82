// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultSessionLifetime is how long a session stays valid after login.
const DefaultSessionLifetime = 24 * time.Hour

// Session is a persisted login session. Sessions are deactivated, never
// deleted, so the table doubles as a login audit trail.
type Session struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Active    bool
}

// NewSession creates a validated, active Session starting at now.
func NewSession(accountID ulid.ULID, token string, now, expiresAt time.Time) (*Session, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code(CodeInvalidSessionRecord).Errorf("account ID cannot be zero")
	}
	if token == "" {
		return nil, oops.Code(CodeInvalidSessionRecord).Errorf("token cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code(CodeInvalidSessionRecord).
			With("expires_at", expiresAt).
			Errorf("expiry must be after creation time")
	}

	return &Session{
		ID:        ulid.Make(),
		AccountID: accountID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Active:    true,
	}, nil
}

// IsValidAt reports whether the session is active and unexpired at t.
// A session whose expiry equals t is already expired.
func (s *Session) IsValidAt(t time.Time) bool {
	return s.Active && t.Before(s.ExpiresAt)
}

// SessionStore manages session persistence.
//
// Implementations join the transaction carried by ctx when one was started
// through a Transactor.
type SessionStore interface {
	// Insert stores a new active session started at startedAt and returns it.
	Insert(ctx context.Context, accountID ulid.ULID, token string, startedAt, expiresAt time.Time) (*Session, error)

	// FindActiveByToken retrieves the active session with the given token.
	// Expiry is not checked. Returns ErrNotFound if none exists.
	FindActiveByToken(ctx context.Context, token string) (*Session, error)

	// DeactivateAllActiveForAccount deactivates every active session of an
	// account and returns the number of rows changed.
	DeactivateAllActiveForAccount(ctx context.Context, accountID ulid.ULID) (int64, error)

	// DeactivateByToken deactivates the active session with the given token
	// and returns the number of rows changed (0 or 1).
	DeactivateByToken(ctx context.Context, token string) (int64, error)
}

// Transactor runs a function inside a database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
