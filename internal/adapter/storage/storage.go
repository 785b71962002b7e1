package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/niksmo/storefront/internal/core/port"
	_ "modernc.org/sqlite"
)

var _ port.KeyValueStore = (*KV)(nil)

const busyTimeoutMs = 5000

// KV is the persistent client-side key-value store. It plays the part of
// browser local storage: auth tokens and the remembered login email live
// here and survive between runs.
//
// The pool is capped at one connection, so DataVersion only moves when
// another process commits.
type KV struct {
	db *sql.DB
}

// Open migrates the store at path and opens it.
func Open(ctx context.Context, path string) (KV, error) {
	const op = "storage.Open"
	log := slog.With("op", op)

	if err := Migrate(path); err != nil {
		return KV{}, fmt.Errorf("%s: %w", op, err)
	}

	db, err := openDB(path)
	if err != nil {
		return KV{}, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return KV{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	log.Debug("storage is available", "path", path)
	return KV{db}, nil
}

func (s KV) Close() {
	const op = "KV.Close"
	log := slog.With("op", op)

	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Debug("storage is closed")
}

func (s KV) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "KV.Get"

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

func (s KV) Set(ctx context.Context, key, value string) error {
	const op = "KV.Set"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s KV) Delete(ctx context.Context, key string) error {
	const op = "KV.Delete"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s KV) Clear(ctx context.Context) error {
	const op = "KV.Clear"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DataVersion changes whenever another connection commits to the file.
func (s KV) DataVersion(ctx context.Context) (int64, error) {
	const op = "KV.DataVersion"

	var v int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func dsn(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeoutMs)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}
