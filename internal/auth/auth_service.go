// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inventra/inventra/pkg/errutil"
)

var tracer = otel.Tracer("inventra/auth")

// dummyPasswordHash is verified when no account matches so that unknown and
// known emails cost the same scrypt derivation. It never matches a password.
//
//nolint:gosec // G101: intentionally fake hash for timing uniformity, not a credential.
const dummyPasswordHash = "scrypt$AAAAAAAAAAAAAAAAAAAAAA==$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

// TokenSigner issues signed bearer tokens.
type TokenSigner interface {
	Issue(claims map[string]any, ttl time.Duration) (string, error)
}

var _ TokenSigner = (*TokenIssuer)(nil)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Session *Session
	Account *Account
}

// Service provides authentication operations and owns the
// single-active-session rule.
type Service struct {
	accounts AccountRepository
	sessions SessionStore
	tx       Transactor
	hasher   PasswordHasher
	tokens   TokenSigner

	logger   *slog.Logger
	now      func() time.Time
	lifetime time.Duration
	metrics  Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionLifetime sets how long new sessions stay valid.
// Non-positive values are ignored.
func WithSessionLifetime(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewAuthService creates a new Service.
func NewAuthService(
	accounts AccountRepository,
	sessions SessionStore,
	tx Transactor,
	hasher PasswordHasher,
	tokens TokenSigner,
	opts ...ServiceOption,
) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if tx == nil {
		return nil, oops.Errorf("transactor is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token signer is required")
	}

	s := &Service{
		accounts: accounts,
		sessions: sessions,
		tx:       tx,
		hasher:   hasher,
		tokens:   tokens,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		lifetime: DefaultSessionLifetime,
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SessionLifetime returns the configured session lifetime.
func (s *Service) SessionLifetime() time.Duration {
	return s.lifetime
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

func errInvalidSession() error {
	return oops.Code(CodeInvalidSession).Errorf("session is invalid or expired")
}

// Authenticate checks credentials against the active account with the
// given email. Unknown email, inactive account and wrong password all
// produce the same AUTH_INVALID_CREDENTIALS error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.accounts.FindActiveByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeLoginFailed).
				With("operation", "find account by email").
				Wrap(err)
		}
		s.hasher.Verify(password, dummyPasswordHash)
		return nil, errInvalidCredentials()
	}

	if !s.hasher.Verify(password, account.PasswordHash) || !account.Active {
		return nil, errInvalidCredentials()
	}
	return account, nil
}

// CreateSession deactivates every active session of the account and
// inserts a fresh one, atomically.
func (s *Service) CreateSession(ctx context.Context, account *Account) (*Session, error) {
	if account == nil {
		return nil, oops.Code(CodeSessionCreateFailed).Errorf("account is required")
	}

	var session *Session
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		deactivated, err := s.sessions.DeactivateAllActiveForAccount(ctx, account.ID)
		if err != nil {
			return oops.With("operation", "deactivate previous sessions").Wrap(err)
		}
		if deactivated > 0 {
			s.logger.DebugContext(ctx, "previous sessions deactivated",
				"account_id", account.ID.String(),
				"count", deactivated)
		}

		token, err := s.tokens.Issue(map[string]any{
			ClaimSubject: account.ID.String(),
			ClaimEmail:   account.Email,
		}, s.lifetime)
		if err != nil {
			return oops.With("operation", "issue token").Wrap(err)
		}

		now := s.now()
		session, err = s.sessions.Insert(ctx, account.ID, token, now, now.Add(s.lifetime))
		if err != nil {
			return oops.With("operation", "insert session").Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code(CodeSessionCreateFailed).
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	return session, nil
}

// Login authenticates the account and opens a new session for it,
// closing any session it already had.
func (s *Service) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer func() {
		s.metrics.RecordLogin(loginResult(err))
		endSpan(span, err)
	}()

	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if !errutil.HasCode(err, CodeInvalidCredentials) {
			errutil.LogErrorContext(ctx, s.logger, "login failed", err)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("account.id", account.ID.String()))

	session, err := s.CreateSession(ctx, account)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "session creation failed", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"account_id", account.ID.String(),
		"session_id", session.ID.String())
	return &LoginResult{Session: session, Account: account}, nil
}

// Logout deactivates the active session holding token.
// Returns AUTH_LOGOUT_FAILED when no active session matches.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.logout")
	defer func() {
		s.metrics.RecordLogout(logoutResult(err))
		endSpan(span, err)
	}()

	if token == "" {
		return oops.Code(CodeLogoutFailed).Wrap(ErrNoActiveSession)
	}

	n, err := s.sessions.DeactivateByToken(ctx, token)
	if err != nil {
		err = oops.Code(CodeInternal).
			With("operation", "deactivate session by token").
			Wrap(err)
		errutil.LogErrorContext(ctx, s.logger, "logout failed", err)
		return err
	}
	if n == 0 {
		return oops.Code(CodeLogoutFailed).Wrap(ErrNoActiveSession)
	}
	return nil
}

// GetCurrentSession returns the session holding token if it is active and
// unexpired. It never changes the session.
func (s *Service) GetCurrentSession(ctx context.Context, token string) (session *Session, err error) {
	ctx, span := tracer.Start(ctx, "auth.get_current_session")
	defer func() {
		s.metrics.RecordSessionCheck(sessionCheckResult(err))
		endSpan(span, err)
	}()

	if token == "" {
		return nil, errInvalidSession()
	}

	session, err = s.sessions.FindActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errInvalidSession()
		}
		err = oops.Code(CodeInternal).
			With("operation", "find active session by token").
			Wrap(err)
		errutil.LogErrorContext(ctx, s.logger, "session lookup failed", err)
		return nil, err
	}

	if !session.IsValidAt(s.now()) {
		return nil, errInvalidSession()
	}
	return session, nil
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errutil.HasCode(err, CodeInvalidCredentials):
		return ResultInvalidCredentials
	default:
		return ResultError
	}
}

func logoutResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errutil.HasCode(err, CodeLogoutFailed):
		return ResultNoActiveSession
	default:
		return ResultError
	}
}

func sessionCheckResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errutil.HasCode(err, CodeInvalidSession):
		return ResultInvalidSession
	default:
		return ResultError
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errutil.Code(err))
	}
	span.End()
}
