// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package auth provides credential verification and session management
// for Inventra.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewAccount - creates an Account with a validated email and credential hash
//   - NewSession - creates a Session with a validated account, token and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
//
// # Sessions
//
// A session row is the sole authority for a bearer token: a request is
// authorized when its token string equals the token of an active, unexpired
// session. Tokens are signed JWTs but are never parsed on the request path.
// Each account holds at most one active session; Service.CreateSession
// deactivates the previous ones in the same transaction that inserts the new
// row. Expired rows are not swept; they simply stop validating.
//
// # Services
//
// Service coordinates login, logout and session lookup. It is created with
// NewAuthService, which validates its dependencies.
package auth
