// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package web exposes the authentication API over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
)

// AuthPrefix is the path prefix of the authentication routes.
const AuthPrefix = "/api/auth"

// maxFormBytes bounds the login request body.
const maxFormBytes = 64 << 10

// AuthService is the subset of auth.Service used by the API.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	GetCurrentSession(ctx context.Context, token string) (*auth.Session, error)
}

var _ AuthService = (*auth.Service)(nil)

// RequestRecorder records finished requests.
type RequestRecorder interface {
	RecordRequest(route, method string, status int, elapsed time.Duration)
}

// API holds the HTTP handlers and their middleware.
type API struct {
	auth     AuthService
	logger   *slog.Logger
	limiter  *LoginLimiter
	recorder RequestRecorder
	cors     *corsPolicy
	router   *mux.Router
}

// Option configures an API.
type Option func(*API) error

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// WithLoginLimiter throttles POST /api/auth/login per client IP.
func WithLoginLimiter(l *LoginLimiter) Option {
	return func(a *API) error {
		a.limiter = l
		return nil
	}
}

// WithRequestRecorder records every routed request.
func WithRequestRecorder(r RequestRecorder) Option {
	return func(a *API) error {
		a.recorder = r
		return nil
	}
}

// WithCORS enables cross-origin access for the given policy.
func WithCORS(opts CORSOptions) Option {
	return func(a *API) error {
		policy, err := newCORSPolicy(opts)
		if err != nil {
			return err
		}
		a.cors = policy
		return nil
	}
}

// NewAPI builds the router for the authentication API.
func NewAPI(svc AuthService, opts ...Option) (*API, error) {
	if svc == nil {
		return nil, oops.Errorf("auth service is required")
	}

	a := &API{
		auth:   svc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	r := mux.NewRouter()
	r.Use(a.recoverPanics, a.observe)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	api := r.PathPrefix(AuthPrefix).Subrouter()
	api.Handle("/login", a.limitLogin(http.HandlerFunc(a.handleLogin))).Methods(http.MethodPost)
	api.HandleFunc("/logout", a.handleLogout).Methods(http.MethodPost)
	api.Handle("/session", a.RequireSession(http.HandlerFunc(a.handleSession))).Methods(http.MethodGet)

	a.router = r
	return a, nil
}

// Router returns the underlying router so further protected routes can be
// mounted behind RequireSession.
func (a *API) Router() *mux.Router {
	return a.router
}

// Handler returns the complete HTTP handler, CORS included.
func (a *API) Handler() http.Handler {
	if a.cors == nil {
		return a.router
	}
	return a.cors.wrap(a.router)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// readCredentials reads username and password from a JSON body or from a
// urlencoded or multipart form.
func readCredentials(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return loginRequest{}, false
		}
		return req, true
	}

	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return loginRequest{}, false
	}
	return loginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, true
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok || creds.Username == "" || creds.Password == "" {
		writeDetail(w, http.StatusBadRequest, MsgMissingCredentials)
		return
	}
	username, password := creds.Username, creds.Password

	result, err := a.auth.Login(r.Context(), username, password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Session.Token,
		TokenType:   TokenTypeBearer,
		User:        newUserResponse(result.Account),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, MsgNotAuthenticated)
		return
	}

	if err := a.auth.Logout(r.Context(), token); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MsgLogoutSucceeded})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, MsgInvalidSession)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}
