// Package archive keeps a local SQLite record of headless runs: one row per
// run, a digest per tick and compressed snapshots at checkpoints.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("archive: not found")

type Archive struct {
	db *sql.DB
}

type Run struct {
	ID            string
	Seed          string
	CatalogDigest string
	StartedAt     time.Time
}

type TickDigest struct {
	Tick   int64
	Digest string
}

// Open creates the database file and schema if needed. ":memory:" is
// accepted for throwaway archives.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("empty archive path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			catalog_digest TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tick_digests (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) RecordRun(ctx context.Context, r Run) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, catalog_digest, started_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET seed = excluded.seed, catalog_digest = excluded.catalog_digest`,
		r.ID, r.Seed, r.CatalogDigest, r.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordDigests stores a batch of tick digests in one transaction.
func (a *Archive) RecordDigests(ctx context.Context, runID string, digests []TickDigest) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO tick_digests (run_id, tick, digest) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range digests {
		if _, err := stmt.ExecContext(ctx, runID, d.Tick, d.Digest); err != nil {
			return fmt.Errorf("record digest at tick %d: %w", d.Tick, err)
		}
	}
	return tx.Commit()
}

func (a *Archive) Digests(ctx context.Context, runID string) ([]TickDigest, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT tick, digest FROM tick_digests WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TickDigest
	for rows.Next() {
		var d TickDigest
		if err := rows.Scan(&d.Tick, &d.Digest); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (a *Archive) SaveSnapshot(ctx context.Context, runID string, tick int64, data []byte) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (run_id, tick, data) VALUES (?, ?, ?)`, runID, tick, data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot of a run and its tick.
func (a *Archive) LatestSnapshot(ctx context.Context, runID string) ([]byte, int64, error) {
	var data []byte
	var tick int64
	err := a.db.QueryRowContext(ctx,
		`SELECT data, tick FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1`, runID).Scan(&data, &tick)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return data, tick, nil
}
