package auth

import (
	"context"
	"database/sql"
	stderrors "errors"

	"planets-engine/internal/shared/database"
	"planets-engine/internal/shared/errors"
)

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// RecordLogin stamps the provider account's last login and returns the
// player it belongs to.
func (r *Repository) RecordLogin(ctx context.Context, provider, providerUserID string) (int, error) {
	query := `
		UPDATE player_auth_providers
		SET last_login_at = NOW()
		WHERE provider = $1 AND provider_user_id = $2
		RETURNING player_id
	`

	var playerID int
	err := r.db.QueryRowContext(ctx, query, provider, providerUserID).Scan(&playerID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, errors.NotFoundf("no player linked to %s account", provider)
	}
	if err != nil {
		return 0, errors.WrapInternal("failed to record provider login", err)
	}
	return playerID, nil
}

func (r *Repository) Link(ctx context.Context, playerID int, id Identity) error {
	query := `
		INSERT INTO player_auth_providers (player_id, provider, provider_user_id, provider_email, last_login_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (provider, provider_user_id)
		DO UPDATE SET provider_email = EXCLUDED.provider_email, last_login_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, playerID, id.Provider, id.ProviderUserID, id.Email); err != nil {
		return errors.WrapInternal("failed to link auth provider", err)
	}
	return nil
}

func (r *Repository) ProvidersForPlayer(ctx context.Context, playerID int) ([]LinkedProvider, error) {
	query := `
		SELECT provider, COALESCE(provider_email, ''), created_at, last_login_at
		FROM player_auth_providers
		WHERE player_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, errors.WrapInternal("failed to list auth providers", err)
	}
	defer rows.Close()

	var linked []LinkedProvider
	for rows.Next() {
		var (
			p         LinkedProvider
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&p.Provider, &p.Email, &p.LinkedAt, &lastLogin); err != nil {
			return nil, errors.WrapInternal("failed to scan auth provider", err)
		}
		if lastLogin.Valid {
			p.LastLoginAt = &lastLogin.Time
		}
		linked = append(linked, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapInternal("failed to iterate auth providers", err)
	}
	return linked, nil
}
