package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewMigrator returns a migrator bound to the store at path. Closing it
// closes its own database handle.
func NewMigrator(path string) (*migrate.Migrate, error) {
	const op = "storage.NewMigrator"

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// Migrate brings the store at path up to the latest schema.
func Migrate(path string) error {
	const op = "storage.Migrate"

	m, err := NewMigrator(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn(path))
}
