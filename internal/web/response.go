// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/pkg/errutil"
)

// Client-facing messages. Internal error details never appear in responses.
const (
	MsgInvalidCredentials = "Credenciales incorrectas"
	MsgInvalidSession     = "Sesión inválida o expirada"
	MsgLogoutFailed       = "Error al cerrar sesión"
	MsgLogoutSucceeded    = "Sesión cerrada exitosamente"
	MsgNotAuthenticated   = "Not authenticated"
	MsgInternal           = "Error interno del servidor"
	MsgMissingCredentials = "Usuario y contraseña son obligatorios"
	MsgTooManyAttempts    = "Demasiados intentos de inicio de sesión"
)

// TokenTypeBearer is the token_type reported on login.
const TokenTypeBearer = "bearer"

type detailResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID        ulid.ULID  `json:"id_usuario"`
	FirstName string     `json:"nombre"`
	LastName  string     `json:"apellido"`
	Email     string     `json:"email"`
	BranchID  *ulid.ULID `json:"id_sucursal"`
	RoleID    *ulid.ULID `json:"id_rol"`
	Active    bool       `json:"activo"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type sessionResponse struct {
	ID        ulid.ULID `json:"id_sesion"`
	StartedAt time.Time `json:"fecha_inicio"`
	ExpiresAt time.Time `json:"fecha_expiracion"`
	Active    bool      `json:"activa"`
}

func newUserResponse(a *auth.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		BranchID:  a.BranchID,
		RoleID:    a.RoleID,
		Active:    a.Active,
	}
}

func newSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		StartedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
		Active:    s.Active,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeRetryAfter(w http.ResponseWriter, wait time.Duration) {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeDetail(w, http.StatusTooManyRequests, MsgTooManyAttempts)
}

// statusFor maps a service error to its HTTP status and client message.
// Unknown codes are server faults.
func statusFor(err error) (int, string) {
	switch errutil.Code(err) {
	case auth.CodeInvalidCredentials:
		return http.StatusUnauthorized, MsgInvalidCredentials
	case auth.CodeInvalidSession:
		return http.StatusUnauthorized, MsgInvalidSession
	case auth.CodeLogoutFailed:
		return http.StatusBadRequest, MsgLogoutFailed
	case auth.CodeEmptyPassword:
		return http.StatusBadRequest, MsgMissingCredentials
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// writeError translates err into a response. Server faults are logged;
// client faults are not.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), a.logger, "request failed", oops.
			With("method", r.Method).
			With("path", r.URL.Path).
			Wrap(err))
	}
	writeDetail(w, status, detail)
}
