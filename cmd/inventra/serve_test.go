// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra/inventra/pkg/errutil"
)

type fakeMigrator struct {
	upErr  error
	ups    int
	closed bool
}

func (m *fakeMigrator) Up() error {
	m.ups++
	return m.upErr
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

func newTestServeCmd(t *testing.T) (*syncBuffer, *ServeDeps, *fakeDatabase) {
	t.Helper()
	db := &fakeDatabase{}
	deps := &ServeDeps{
		Getenv: testEnv,
		DatabaseFactory: func(context.Context, string, *slog.Logger) (Database, error) {
			return db, nil
		},
		LogWriter: io.Discard,
	}
	return &syncBuffer{}, deps, db
}

func TestServeCommand_Flags(t *testing.T) {
	cmd := NewServeCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())

	for _, flag := range []string{"--http-addr", "--metrics-addr", "--migrate", "--shutdown-timeout"} {
		assert.Contains(t, buf.String(), flag)
	}

	addr, err := cmd.Flags().GetString("http-addr")
	require.NoError(t, err)
	assert.Equal(t, ":8000", addr)
}

func TestServe_StartsAndShutsDown(t *testing.T) {
	out, deps, db := newTestServeCmd(t)
	cmd := NewServeCmd()
	cmd.SetOut(out)
	require.NoError(t, cmd.Flags().Set("http-addr", "127.0.0.1:0"))
	require.NoError(t, cmd.Flags().Set("metrics-addr", "127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, cmd, &serveConfig{}, deps) }()

	var addr string
	require.Eventually(t, func() bool {
		addr = listenAddr(out.String())
		return addr != ""
	}, 5*time.Second, 10*time.Millisecond, "server never reported its address")

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}

	resp, err := client.Get("http://" + addr + "/api/auth/session")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, string(body))

	resp, err = client.PostForm("http://"+addr+"/api/auth/login", url.Values{"username": {"test@example.com"}})
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The database is unreachable, so a complete login is an internal error.
	resp, err = client.PostForm("http://"+addr+"/api/auth/login",
		url.Values{"username": {"test@example.com"}, "password": {"password123"}})
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), errFakeDB.Error())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.True(t, db.closed.Load(), "database pool must be closed on shutdown")
}

func TestServe_InvalidConfig(t *testing.T) {
	out, deps, _ := newTestServeCmd(t)
	deps.Getenv = noEnv
	deps.DatabaseFactory = func(context.Context, string, *slog.Logger) (Database, error) {
		t.Fatal("database must not be opened with an invalid config")
		return nil, nil
	}
	cmd := NewServeCmd()
	cmd.SetOut(out)

	err := runServeWithDeps(context.Background(), cmd, &serveConfig{}, deps)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServe_DatabaseFailure(t *testing.T) {
	out, deps, _ := newTestServeCmd(t)
	deps.DatabaseFactory = func(context.Context, string, *slog.Logger) (Database, error) {
		return nil, errors.New("connection refused")
	}
	cmd := NewServeCmd()
	cmd.SetOut(out)

	err := runServeWithDeps(context.Background(), cmd, &serveConfig{}, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, listenAddr(out.String()))
}

func TestServe_MigrateFirst(t *testing.T) {
	t.Run("failure stops startup", func(t *testing.T) {
		out, deps, _ := newTestServeCmd(t)
		migrator := &fakeMigrator{upErr: errors.New("dirty database")}
		var gotURL string
		deps.MigratorFactory = func(u string) (Migrator, error) {
			gotURL = u
			return migrator, nil
		}
		deps.DatabaseFactory = func(context.Context, string, *slog.Logger) (Database, error) {
			t.Fatal("database must not be opened after a failed migration")
			return nil, nil
		}
		cmd := NewServeCmd()
		cmd.SetOut(out)

		err := runServeWithDeps(context.Background(), cmd, &serveConfig{migrate: true}, deps)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
		assert.Equal(t, testDatabaseURL, gotURL)
		assert.Equal(t, 1, migrator.ups)
		assert.True(t, migrator.closed)
	})

	t.Run("success continues to the database", func(t *testing.T) {
		out, deps, _ := newTestServeCmd(t)
		migrator := &fakeMigrator{}
		deps.MigratorFactory = func(string) (Migrator, error) { return migrator, nil }
		deps.DatabaseFactory = func(context.Context, string, *slog.Logger) (Database, error) {
			return nil, errors.New("stop here")
		}
		cmd := NewServeCmd()
		cmd.SetOut(out)

		err := runServeWithDeps(context.Background(), cmd, &serveConfig{migrate: true}, deps)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "stop here"))
		assert.Equal(t, 1, migrator.ups)
	})
}

func TestServe_ListenFailure(t *testing.T) {
	out, deps, db := newTestServeCmd(t)
	cmd := NewServeCmd()
	cmd.SetOut(out)
	require.NoError(t, cmd.Flags().Set("http-addr", "256.0.0.1:1"))
	require.NoError(t, cmd.Flags().Set("metrics-addr", ""))

	err := runServeWithDeps(context.Background(), cmd, &serveConfig{}, deps)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "HTTP_LISTEN_FAILED")
	assert.True(t, db.closed.Load())
}

func TestMonitorServerErrors(t *testing.T) {
	t.Run("error cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error, 1)
		errCh <- errors.New("boom")

		monitorServerErrors(ctx, cancel, errCh, "test")
		assert.Error(t, ctx.Err())
	})

	t.Run("closed channel does not cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error)
		close(errCh)

		monitorServerErrors(ctx, cancel, errCh, "test")
		assert.NoError(t, ctx.Err())
	})

	t.Run("returns when context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		monitorServerErrors(ctx, cancel, make(chan error), "test")
	})
}
