package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
)

//go:embed migrations/*.sql
var embedded embed.FS

// migrationLockID serializes schema changes when several game servers boot
// against one database.
const migrationLockID = 7_316_004

// MigrationSource returns the shipped migrations, or dir when an operator
// points DB_MIGRATIONS_PATH at an override.
func MigrationSource(dir string) fs.FS {
	if dir == "" {
		sub, _ := fs.Sub(embedded, "migrations")
		return sub
	}
	return os.DirFS(dir)
}

// RunMigrations applies every *.sql file in src that schema_migrations has
// not recorded yet, in name order, each in its own transaction.
func (db *DB) RunMigrations(ctx context.Context, src fs.FS) error {
	logger := slog.With("component", "migrations")

	names, err := migrationNames(src)
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			logger.Error("Failed to release migration lock", "error", err)
		}
	}()

	if _, err := conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, name := range names {
		ran, err := applyMigration(ctx, conn, src, name)
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if ran {
			applied++
			logger.Info("Migration applied", "migration", name)
		}
	}

	logger.Info("Schema up to date", "found", len(names), "applied", applied)
	return nil
}

func migrationNames(src fs.FS) ([]string, error) {
	names, err := fs.Glob(src, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func applyMigration(ctx context.Context, conn *sql.Conn, src fs.FS, name string) (bool, error) {
	version := path.Base(name)

	var exists bool
	if err := conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	content, err := fs.ReadFile(src, name)
	if err != nil {
		return false, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to roll back migration", "migration", version, "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return false, err
	}
	return true, tx.Commit()
}
