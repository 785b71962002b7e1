package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag = "storage-path"
	configFlag      = "config"
	downFlag        = "down"
)

func main() {
	storagePath, down := getFlagsValues()
	makeMigrations(storagePath, down)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

// getFlagsValues falls back to the configured storage path when
// --storage-path is not given.
func getFlagsValues() (storagePath string, down bool) {
	path := pflag.StringP(storagePathFlag, "s", "", "local store file")
	cfgPath := pflag.StringP(configFlag, "c", "", "config file")
	rollback := pflag.Bool(downFlag, false, "roll back every migration")
	pflag.Parse()

	if *path != "" {
		return *path, *rollback
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		fallDown()
	}
	return cfg.Storage.Path, *rollback
}

func makeMigrations(storagePath string, down bool) {
	m, err := storage.NewMigrator(storagePath)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer m.Close()

	m.Log = NewMigrationLogger()

	apply, done := m.Up, "migration applied"
	if down {
		apply, done = m.Down, "migration rolled back"
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err, "storage", storagePath)
		m.Close()
		fallDown()
	}
	m.Log.Printf("%s: %s", done, storagePath)
	reportVersion(m)
}

func reportVersion(m *migrate.Migrate) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		m.Log.Printf("schema is empty")
	case err != nil:
		slog.Warn("failed to read schema version", "err", err)
	case dirty:
		slog.Warn("schema is dirty", "version", v)
	default:
		m.Log.Printf("schema version %d", v)
	}
}

func fallDown() {
	os.Exit(2)
}
