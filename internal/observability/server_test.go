// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package observability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/pkg/errutil"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) healthResponse {
	t.Helper()
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func okCheck(context.Context) error { return nil }

func TestServer_Liveness(t *testing.T) {
	rec := get(t, NewServer("127.0.0.1:0").Handler(), "/healthz/liveness")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeHealth(t, rec).Status)
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantStatus int
		wantBody   healthResponse
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   healthResponse{Status: "ready"},
		},
		{
			name:       "all checks pass",
			opts:       []Option{WithCheck("database", okCheck)},
			wantStatus: http.StatusOK,
			wantBody:   healthResponse{Status: "ready", Checks: map[string]string{"database": "ok"}},
		},
		{
			name: "one check fails",
			opts: []Option{
				WithCheck("database", func(context.Context) error { return errors.New("password authentication failed") }),
				WithCheck("cache", okCheck),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: healthResponse{Status: "not ready", Checks: map[string]string{
				"database": "unavailable",
				"cache":    "ok",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, NewServer("127.0.0.1:0", tt.opts...).Handler(), "/healthz/readiness")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.NotContains(t, rec.Body.String(), "password authentication")
			body := decodeHealth(t, rec)
			assert.Equal(t, tt.wantBody.Status, body.Status)
			if len(tt.wantBody.Checks) > 0 {
				assert.Equal(t, tt.wantBody.Checks, body.Checks)
			}
		})
	}
}

func TestServer_ReadinessCheckDeadline(t *testing.T) {
	var deadline time.Time
	server := NewServer("127.0.0.1:0",
		WithCheckTimeout(50*time.Millisecond),
		WithCheck("database", func(ctx context.Context) error {
			deadline, _ = ctx.Deadline()
			<-ctx.Done()
			return ctx.Err()
		}))

	start := time.Now()
	rec := get(t, server.Handler(), "/healthz/readiness")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, time.Second)
}

func TestServer_HealthRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer("127.0.0.1:0").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz/liveness", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_CheckNames(t *testing.T) {
	server := NewServer("127.0.0.1:0",
		WithCheck("database", okCheck),
		WithCheck("cache", okCheck),
		WithCheck("ignored", nil))
	assert.Equal(t, []string{"cache", "database"}, server.CheckNames())
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := NewServer("127.0.0.1:0", WithVersion("1.2.3"))

	metrics := server.Metrics()
	metrics.RecordRequest("/api/auth/login", "POST", http.StatusUnauthorized, time.Millisecond)
	metrics.RecordRequest("/api/auth/login", "POST", http.StatusUnauthorized, time.Millisecond)
	metrics.RecordRequest("/api/auth/session", "GET", http.StatusOK, time.Millisecond)

	rec := get(t, server.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	for _, want := range []string{
		"# HELP",
		"go_goroutines",
		"process_",
		`inventra_build_info{version="1.2.3"} 1`,
		`inventra_http_requests_total{method="POST",route="/api/auth/login",status="401"} 2`,
		`inventra_http_requests_total{method="GET",route="/api/auth/session",status="200"} 1`,
		`inventra_http_request_duration_seconds_count{route="/api/auth/login"} 2`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestServer_MetricsWithoutVersion(t *testing.T) {
	body := get(t, NewServer("127.0.0.1:0").Handler(), "/metrics").Body.String()
	assert.NotContains(t, body, "inventra_build_info")
}

func TestServer_RegistryExposesAuthMetrics(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	authMetrics := auth.NewPrometheusMetrics(server.Registry())

	authMetrics.RecordLogin(auth.ResultSuccess)
	authMetrics.RecordLogout(auth.ResultNoActiveSession)
	authMetrics.RecordSessionCheck(auth.ResultInvalidSession)

	body := get(t, server.Handler(), "/metrics").Body.String()
	for _, want := range []string{
		`inventra_auth_logins_total{result="success"} 1`,
		`inventra_auth_logouts_total{result="no_active_session"} 1`,
		`inventra_auth_session_checks_total{result="invalid_session"} 1`,
	} {
		assert.Contains(t, body, want)
	}
}

func stopWithin(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestServer_StartServesOverTCP(t *testing.T) {
	server := NewServer("127.0.0.1:0", WithCheck("database", okCheck))
	_, err := server.Start()
	require.NoError(t, err)
	defer stopWithin(t, server)

	require.NotEmpty(t, server.Addr())
	resp, err := http.Get("http://" + server.Addr() + "/healthz/readiness")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"database":"ok"`)
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	_, err := server.Start()
	require.NoError(t, err)
	defer stopWithin(t, server)

	_, err = server.Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_RUNNING")
}

func TestServer_ListenFailure(t *testing.T) {
	server := NewServer("256.0.0.1:1")
	_, err := server.Start()
	errutil.AssertErrorCode(t, err, "METRICS_LISTEN_FAILED")
	errutil.AssertErrorContext(t, err, "addr", "256.0.0.1:1")
	assert.Empty(t, server.Addr())
}

func TestServer_StopWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer("127.0.0.1:0").Stop(context.Background()))
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	errCh, err := server.Start()
	require.NoError(t, err)
	defer func() { _ = server.Stop(context.Background()) }()

	// Closing the listener underneath Serve makes it fail.
	require.NoError(t, server.listener.Close())

	select {
	case serveErr := <-errCh:
		assert.Error(t, serveErr)
	case <-time.After(2 * time.Second):
		t.Fatal("serve error was not reported")
	}
}

func TestServer_ErrorChannelClosesOnShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	errCh, err := server.Start()
	require.NoError(t, err)

	stopWithin(t, server)

	select {
	case err, ok := <-errCh:
		assert.False(t, ok && err != nil, "unexpected error on shutdown: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed after shutdown")
	}
}
