// Package migrations bootstraps the relational schema. Migration is an
// explicit, awaited lifecycle step: main runs it to completion before the
// HTTP server starts serving traffic.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/uptrace/bun"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// Runner handles database migrations
type Runner struct {
	bunDB    *bun.DB
	migrator *migrate.Migrate
}

// NewRunner creates a new migration runner
func NewRunner(bunDB *bun.DB) *Runner {
	return &Runner{bunDB: bunDB}
}

// Initialize prepares the migration system
func (r *Runner) Initialize() error {
	src, err := iofs.New(migrationFS, "sql")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.bunDB.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

// RunMigrations runs all pending migrations. Safe to run multiple times.
func (r *Runner) RunMigrations() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (r *Runner) Version() (uint, error) {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return 0, err
		}
	}

	version, _, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, nil
}
