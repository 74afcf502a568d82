// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
)

// SessionRepository implements auth.SessionStore using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a new active session. created_at is startedAt, so both
// timestamps come from the caller's clock.
func (r *SessionRepository) Insert(ctx context.Context, accountID ulid.ULID, token string, startedAt, expiresAt time.Time) (*auth.Session, error) {
	session, err := auth.NewSession(accountID, token, startedAt, expiresAt)
	if err != nil {
		return nil, err
	}

	_, err = conn(ctx, r.db).Exec(ctx, `
		INSERT INTO sessions (id, account_id, token, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID.String(),
		session.AccountID.String(),
		session.Token,
		session.CreatedAt,
		session.ExpiresAt,
		session.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("SESSION_TOKEN_CONFLICT").
				With("account_id", accountID.String()).
				Wrap(auth.ErrAlreadyExists)
		}
		return nil, oops.Code("SESSION_INSERT_FAILED").
			With("operation", "insert session").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return session, nil
}

// FindActiveByToken retrieves the active session with the given token.
func (r *SessionRepository) FindActiveByToken(ctx context.Context, token string) (*auth.Session, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, account_id, token, created_at, expires_at, active
		FROM sessions
		WHERE token = $1 AND active
	`, token)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get active session by token").
			Wrap(err)
	}
	return session, nil
}

// DeactivateAllActiveForAccount deactivates every active session of an account.
func (r *SessionRepository) DeactivateAllActiveForAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE sessions SET active = FALSE
		WHERE account_id = $1 AND active
	`, accountID.String())
	if err != nil {
		return 0, oops.Code("SESSION_DEACTIVATE_FAILED").
			With("operation", "deactivate sessions for account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeactivateByToken deactivates the active session with the given token.
func (r *SessionRepository) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE sessions SET active = FALSE
		WHERE token = $1 AND active
	`, token)
	if err != nil {
		return 0, oops.Code("SESSION_DEACTIVATE_FAILED").
			With("operation", "deactivate session by token").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		s            auth.Session
		idStr        string
		accountIDStr string
	)
	if err := row.Scan(&idStr, &accountIDStr, &s.Token, &s.CreatedAt, &s.ExpiresAt, &s.Active); err != nil {
		return nil, err
	}

	var err error
	if s.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse session id").With("id", idStr).Wrap(err)
	}
	if s.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.With("operation", "parse account id").With("account_id", accountIDStr).Wrap(err)
	}
	return &s, nil
}

var _ auth.SessionStore = (*SessionRepository)(nil)
