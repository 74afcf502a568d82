// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/internal/auth/postgres"
	"github.com/inventra/inventra/internal/logging"
	"github.com/inventra/inventra/internal/observability"
	"github.com/inventra/inventra/internal/store"
	"github.com/inventra/inventra/internal/web"
)

// Default values for serve command flags.
const (
	defaultHTTPAddr        = ":8000"
	defaultMetricsAddr     = "127.0.0.1:9100"
	defaultShutdownTimeout = 10 * time.Second
	readinessTimeout       = 2 * time.Second
)

// serveConfig holds options that only apply to the serve command.
type serveConfig struct {
	migrate         bool
	shutdownTimeout time.Duration
}

// Database is the connection pool used by the server.
type Database interface {
	postgres.DB
	store.Pinger
	Close()
}

// Migrator applies pending schema migrations.
type Migrator interface {
	Up() error
	Close() error
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// Getenv reads environment variables.
	// Default: os.Getenv
	Getenv func(string) string

	// DatabaseFactory opens the connection pool.
	// Default: store.OpenPool with connection retry
	DatabaseFactory func(ctx context.Context, url string, logger *slog.Logger) (Database, error)

	// MigratorFactory creates a migrator for --migrate.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// LogWriter receives structured logs.
	// Default: os.Stderr
	LogWriter io.Writer
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server exposing login, logout and session
endpoints under /api/auth, plus the metrics and health server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, cfg, nil)
		},
	}

	cmd.Flags().String("http-addr", defaultHTTPAddr, "API listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().BoolVar(&cfg.migrate, "migrate", false, "apply pending migrations before serving")
	cmd.Flags().DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", defaultShutdownTimeout, "time allowed for in-flight requests on shutdown")

	return cmd
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	if out.DatabaseFactory == nil {
		out.DatabaseFactory = func(ctx context.Context, url string, logger *slog.Logger) (Database, error) {
			pool, err := store.OpenPool(ctx, url,
				store.WithConnectRetry(store.DefaultConnectAttempts, store.DefaultConnectBackoff),
				store.WithPoolLogger(logger))
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url, store.WithMigrationLogger(slog.Default()))
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.LogWriter == nil {
		out.LogWriter = os.Stderr
	}
	return &out
}

// runServeWithDeps starts the API server with injectable dependencies and
// blocks until ctx is cancelled or a server fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, opts *serveConfig, deps *ServeDeps) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd, deps.Getenv, false)
	if err != nil {
		return err
	}

	logger := logging.SetDefault(logging.Options{
		Service: "inventra",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.LogLevel(),
		Writer:  deps.LogWriter,
	})
	logger.Info("starting server",
		"environment", cfg.Environment,
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr)

	if opts.migrate {
		if err := applyMigrations(deps, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	hasher, err := auth.NewScryptHasher(cfg.HasherParams())
	if err != nil {
		return err
	}
	issuer, err := auth.NewTokenIssuer(cfg.TokenIssuerConfig())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer *observability.Server
		registry  prometheus.Registerer
	)
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr,
			observability.WithLogger(logger),
			observability.WithVersion(version),
			observability.WithCheckTimeout(readinessTimeout),
			observability.WithCheck("database", store.PingCheck(db)))
		registry = obsServer.Registry()
	}

	svcOpts := []auth.ServiceOption{
		auth.WithLogger(logger),
		auth.WithSessionLifetime(cfg.Session.Lifetime),
	}
	apiOpts := []web.Option{
		web.WithLogger(logger),
		web.WithCORS(web.CORSOptions{
			Origins:          cfg.CORS.Origins,
			AllowCredentials: cfg.CORS.AllowCredentials,
			Methods:          cfg.CORS.Methods,
			Headers:          cfg.CORS.Headers,
		}),
	}
	if obsServer != nil {
		svcOpts = append(svcOpts, auth.WithMetrics(auth.NewPrometheusMetrics(registry)))
		apiOpts = append(apiOpts, web.WithRequestRecorder(obsServer.Metrics()))
	}

	if cfg.RateLimit.LoginRPS > 0 {
		limiter := web.NewLoginLimiter(web.LoginLimiterConfig{
			Rate:  cfg.RateLimit.LoginRPS,
			Burst: cfg.RateLimit.LoginBurst,
		}, registry)
		defer limiter.Close()
		apiOpts = append(apiOpts, web.WithLoginLimiter(limiter))
	}

	svc, err := auth.NewAuthService(
		postgres.NewAccountRepository(db),
		postgres.NewSessionRepository(db),
		postgres.NewTransactor(db),
		hasher,
		issuer,
		svcOpts...,
	)
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").With("component", "auth service").Wrap(err)
	}

	api, err := web.NewAPI(svc, apiOpts...)
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").With("component", "api").Wrap(err)
	}

	apiServer := web.NewServer(cfg.HTTP.Addr, api.Handler())
	apiErrCh, err := apiServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			stopServer(apiServer, opts.shutdownTimeout, "api")
			return oops.Code("SERVER_INIT_FAILED").With("component", "observability").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr(), "checks", obsServer.CheckNames())
	}

	cmd.Println("API listening on " + apiServer.Addr())
	logger.Info("server ready", "http_addr", apiServer.Addr())

	<-ctx.Done()
	logger.Info("shutting down...")

	stopServer(apiServer, opts.shutdownTimeout, "api")
	if obsServer != nil {
		stopServer(obsServer, opts.shutdownTimeout, "observability")
	}

	logger.Info("shutdown complete")
	return nil
}

type stopper interface {
	Stop(ctx context.Context) error
}

func stopServer(s stopper, timeout time.Duration, name string) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

func applyMigrations(deps *ServeDeps, url string) error {
	migrator, err := deps.MigratorFactory(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

// monitorServerErrors cancels the context when a server reports an error.
// It exits when an error is received, the channel is closed, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

var _ Database = (*pgxpool.Pool)(nil)
