// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/inventra/inventra/internal/auth"
)

type sessionKey struct{}

// WithSession returns a context carrying the authenticated session.
func WithSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*auth.Session)
	return s, ok && s != nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireSession admits only requests whose bearer token names a live
// session, and stores that session in the request context.
func (a *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, MsgNotAuthenticated)
			return
		}

		session, err := a.auth.GetCurrentSession(r.Context(), token)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// limitLogin applies the login limiter keyed by client IP.
func (a *API) limitLogin(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, wait := a.limiter.Allow(clientIP(r))
		if !allowed {
			a.logger.WarnContext(r.Context(), "login rate limited", "client_ip", clientIP(r))
			writeRetryAfter(w, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr. Forwarding headers are
// not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// observe logs each routed request and feeds the request recorder.
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		a.logger.DebugContext(r.Context(), "request served",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", elapsed)
		if a.recorder != nil {
			a.recorder.RecordRequest(route, r.Method, rec.status, elapsed)
		}
	})
}

// recoverPanics turns a handler panic into a 500 response.
func (a *API) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}
				a.writeError(w, r, oops.Code("HTTP_HANDLER_PANIC").Errorf("handler panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
