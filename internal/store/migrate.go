// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var upFile = regexp.MustCompile(`^(\d{6})_(\w+)\.up\.sql$`)

// Migration identifies one embedded schema migration.
type Migration struct {
	Version uint
	Name    string
}

// String renders the migration as its file stem, e.g. 000002_sessions.
func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Migrations lists the embedded migrations in ascending version order.
func Migrations() ([]Migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("operation", "read migrations dir").Wrap(err)
	}

	var out []Migration
	for _, entry := range entries {
		match := upFile.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.ParseUint(match[1], 10, 0)
		if err != nil {
			return nil, oops.Code("MIGRATION_LIST_FAILED").With("file", entry.Name()).Wrap(err)
		}
		out = append(out, Migration{Version: uint(version), Name: match[2]})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// LookupMigration returns the embedded migration with the given version.
func LookupMigration(version uint) (Migration, bool, error) {
	all, err := Migrations()
	if err != nil {
		return Migration{}, false, err
	}
	for _, m := range all {
		if m.Version == version {
			return m, true, nil
		}
	}
	return Migration{}, false, nil
}

// migrateIface is the subset of *migrate.Migrate used by Migrator.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// migrateLogger forwards golang-migrate progress lines to slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}

// MigratorOption configures NewMigrator.
type MigratorOption func(*migratorOptions)

type migratorOptions struct {
	logger *slog.Logger
}

// WithMigrationLogger reports each applied migration on logger.
func WithMigrationLogger(logger *slog.Logger) MigratorOption {
	return func(o *migratorOptions) { o.logger = logger }
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m migrateIface
}

// NewMigrator creates a Migrator for the database at databaseURL.
// postgres:// and postgresql:// URLs are rewritten to the pgx5:// scheme
// the golang-migrate pgx/v5 driver registers.
func NewMigrator(databaseURL string, opts ...MigratorOption) (*Migrator, error) {
	o := migratorOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}
	m.Log = migrateLogger{logger: o.logger}

	return &Migrator{m: m}, nil
}

func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(databaseURL, scheme); found {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Up applies all pending migrations. Being at the latest version is not an error.
func (m *Migrator) Up() error {
	if err := ignoreNoChange(m.m.Up()); err != nil {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down rolls back every migration, dropping all tables and data.
func (m *Migrator) Down() error {
	if err := ignoreNoChange(m.m.Down()); err != nil {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Rollback reverts the newest n applied migrations.
func (m *Migrator) Rollback(n int) error {
	if n <= 0 {
		return oops.Code("MIGRATION_STEPS_INVALID").With("steps", n).Errorf("steps must be positive")
	}
	err := m.m.Steps(-n)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	var short migrate.ErrShortLimit
	if errors.As(err, &short) {
		// Fewer migrations were applied than requested; all were reverted.
		return nil
	}
	if err != nil {
		return oops.Code("MIGRATION_DOWN_FAILED").With("steps", n).Wrap(err)
	}
	return nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL. It is the recovery path after a failed migration.
func (m *Migrator) Force(version uint) error {
	if version > 0 {
		if _, ok, err := LookupMigration(version); err != nil {
			return err
		} else if !ok {
			return oops.Code("MIGRATION_UNKNOWN").With("version", version).Errorf("no migration with version %d", version)
		}
	}
	if err := m.m.Force(int(version)); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Version returns the current migration version and dirty state.
// An empty database reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// PendingMigrations returns the migrations Up would apply, ascending.
func (m *Migrator) PendingMigrations() ([]Migration, error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, oops.With("operation", "get pending migrations").Wrap(err)
	}

	all, err := Migrations()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range all {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Close releases the migration source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr == nil && dbErr == nil {
		return nil
	}
	component := "both"
	switch {
	case dbErr == nil:
		component = "source"
	case srcErr == nil:
		component = "database"
	}
	return oops.Code("MIGRATION_CLOSE_FAILED").With("component", component).Wrap(errors.Join(srcErr, dbErr))
}
