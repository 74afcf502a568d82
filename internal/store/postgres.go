// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package store owns the database schema and connection pool.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry defaults.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 500 * time.Millisecond
)

// PoolOption configures OpenPool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	attempts uint64
	backoff  time.Duration
	logger   *slog.Logger
	maxConns int32
}

// WithConnectRetry sets how many times the initial ping is attempted and the
// base of the exponential backoff between attempts.
func WithConnectRetry(attempts uint64, backoff time.Duration) PoolOption {
	return func(o *poolOptions) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if backoff > 0 {
			o.backoff = backoff
		}
	}
}

// WithPoolLogger sets the logger used to report retries.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(o *poolOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxConns caps the pool size. Zero keeps the pgxpool default.
func WithMaxConns(n int32) PoolOption {
	return func(o *poolOptions) {
		o.maxConns = n
	}
}

// OpenPool creates a pgx connection pool and waits until the database
// answers a ping, retrying with exponential backoff.
func OpenPool(ctx context.Context, dsn string, opts ...PoolOption) (*pgxpool.Pool, error) {
	o := poolOptions{
		attempts: DefaultConnectAttempts,
		backoff:  DefaultConnectBackoff,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(o.attempts-1, retry.NewExponential(o.backoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			o.logger.WarnContext(ctx, "database not reachable, retrying",
				"attempt", attempt,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	return pool, nil
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a readiness check that fails while the database does
// not answer a ping. The caller's context bounds the ping.
func PingCheck(p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return oops.Code("DB_UNAVAILABLE").With("operation", "ping database").Wrap(err)
		}
		return nil
	}
}
