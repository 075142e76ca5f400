package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateIface is the subset of *migrate.Migrate used by Migrator, broken
// out so it can be stubbed in tests without a real database.
type migrateIface interface {
	Up() error
	Down() error
	Close() (error, error)
}

// Migrator owns schema evolution for a PostgresStore's database, via
// golang-migrate driven off the embedded migrations directory.
type Migrator struct {
	m migrateIface
}

// NewMigrator opens a migrate.Migrate instance against databaseURL,
// rewriting a postgres:// scheme to the pgx5:// scheme golang-migrate's
// pgx driver expects.
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	dsn := databaseURL
	if strings.HasPrefix(dsn, "postgres://") {
		dsn = "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	} else if strings.HasPrefix(dsn, "postgresql://") {
		dsn = "pgx5://" + strings.TrimPrefix(dsn, "postgresql://")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. ErrNoChange is swallowed: an
// up-to-date schema is success, not failure.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_FAILED").Wrap(err)
	}
	return nil
}

// Close releases the underlying source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	return dbErr
}
