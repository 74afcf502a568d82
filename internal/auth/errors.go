// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoActiveSession is wrapped by Logout when the token matches no active session.
var ErrNoActiveSession = errors.New("no active session for token")

// Error codes attached to errors returned by this package.
const (
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidSession       = "SESSION_INVALID_OR_EXPIRED"
	CodeLogoutFailed         = "AUTH_LOGOUT_FAILED"
	CodeEmptyPassword        = "AUTH_EMPTY_PASSWORD"
	CodeLoginFailed          = "AUTH_LOGIN_FAILED"
	CodeSessionCreateFailed  = "AUTH_SESSION_CREATE_FAILED"
	CodeInternal             = "AUTH_INTERNAL"
	CodeTokenSigningFailed   = "TOKEN_SIGNING_FAILED"
	CodeTokenInvalid         = "TOKEN_INVALID"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeInvalidAccount       = "ACCOUNT_INVALID"
	CodeInvalidSessionRecord = "SESSION_RECORD_INVALID"
	CodeHasherMisconfigured  = "AUTH_HASHER_MISCONFIGURED"
)

// ErrAlreadyExists is returned when a unique key is already taken.
var ErrAlreadyExists = errors.New("already exists")
