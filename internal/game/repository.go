package game

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"

	"planets-engine/internal/shared/database"
	"planets-engine/internal/shared/errors"
)

// Store persists session metadata together with its snapshot bytes.
type Store interface {
	SaveSession(ctx context.Context, meta GameSession, snapshot []byte) error
	LoadSession(ctx context.Context, id string) (*GameSession, []byte, error)
	ListSessions(ctx context.Context, ownerID int) ([]GameSession, error)
	CountSessions(ctx context.Context, ownerID int) (int, error)
	SessionOwner(ctx context.Context, id string) (int, error)
	DeleteSession(ctx context.Context, id string) error
}

const sessionColumns = `id, owner_id, label, seed, catalog_digest, tick, is_running, digest, created_at, updated_at`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing game repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, extra ...any) (*GameSession, error) {
	var g GameSession
	dest := append([]any{
		&g.ID,
		&g.OwnerID,
		&g.Label,
		&g.Seed,
		&g.CatalogDigest,
		&g.Tick,
		&g.IsRunning,
		&g.Digest,
		&g.CreatedAt,
		&g.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveSession inserts the session or overwrites its snapshot and progress.
func (r *Repository) SaveSession(ctx context.Context, meta GameSession, snapshot []byte) error {
	logger := r.logger.With(
		"component", "game_repository",
		"operation", "save_session",
		"session_id", meta.ID,
		"tick", meta.Tick,
	)

	query := `
		INSERT INTO game_sessions (id, owner_id, label, seed, catalog_digest, tick, is_running, digest, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			tick = EXCLUDED.tick,
			is_running = EXCLUDED.is_running,
			digest = EXCLUDED.digest,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		meta.ID,
		meta.OwnerID,
		meta.Label,
		meta.Seed,
		meta.CatalogDigest,
		meta.Tick,
		meta.IsRunning,
		meta.Digest,
		snapshot,
		meta.CreatedAt,
		meta.UpdatedAt,
	)
	if err != nil {
		return errors.WrapInternal("failed to save session", err)
	}

	logger.Debug("Session saved", "snapshot_bytes", len(snapshot))
	return nil
}

func (r *Repository) LoadSession(ctx context.Context, id string) (*GameSession, []byte, error) {
	var snapshot []byte
	g, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`, snapshot FROM game_sessions WHERE id = $1`, id), &snapshot)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil, errors.NotFoundf("session not found: %s", id)
	}
	if err != nil {
		return nil, nil, errors.WrapInternal("failed to load session", err)
	}
	return g, snapshot, nil
}

func (r *Repository) ListSessions(ctx context.Context, ownerID int) ([]GameSession, error) {
	logger := r.logger.With("component", "game_repository", "operation", "list_sessions", "owner_id", ownerID)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, errors.WrapInternal("failed to query sessions", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var sessions []GameSession
	for rows.Next() {
		g, err := scanSession(rows)
		if err != nil {
			return nil, errors.WrapInternal("failed to scan session", err)
		}
		sessions = append(sessions, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapInternal("error iterating sessions", err)
	}
	return sessions, nil
}

func (r *Repository) CountSessions(ctx context.Context, ownerID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_sessions WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, errors.WrapInternal("failed to count sessions", err)
	}
	return count, nil
}

func (r *Repository) SessionOwner(ctx context.Context, id string) (int, error) {
	var ownerID int
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM game_sessions WHERE id = $1`, id).Scan(&ownerID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, errors.NotFoundf("session not found: %s", id)
	}
	if err != nil {
		return 0, errors.WrapInternal("failed to look up session owner", err)
	}
	return ownerID, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = $1`, id)
	if err != nil {
		return errors.WrapInternal("failed to delete session", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFoundf("session not found: %s", id)
	}
	r.logger.Info("Session deleted", "component", "game_repository", "session_id", id)
	return nil
}
