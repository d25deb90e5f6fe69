package auth

import (
	"context"
	"log/slog"

	"planets-engine/internal/shared/errors"
)

// IdentityStore links provider accounts to players.
type IdentityStore interface {
	RecordLogin(ctx context.Context, provider, providerUserID string) (int, error)
	Link(ctx context.Context, playerID int, id Identity) error
	ProvidersForPlayer(ctx context.Context, playerID int) ([]LinkedProvider, error)
}

type Service struct {
	store  IdentityStore
	logger *slog.Logger
}

func NewService(store IdentityStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// LinkedPlayer reports the player behind a provider account. ok is false
// when the account has never signed in.
func (s *Service) LinkedPlayer(ctx context.Context, provider, providerUserID string) (playerID int, ok bool, err error) {
	playerID, err = s.store.RecordLogin(ctx, provider, providerUserID)
	if errors.GetType(err) == errors.ErrorTypeNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return playerID, true, nil
}

func (s *Service) Link(ctx context.Context, playerID int, id Identity) error {
	if id.Provider == "" || id.ProviderUserID == "" {
		return errors.Validation("provider and provider user id are required")
	}
	if err := s.store.Link(ctx, playerID, id); err != nil {
		return err
	}
	s.logger.Info("Provider account linked",
		"player_id", playerID,
		"provider", id.Provider)
	return nil
}

func (s *Service) ProvidersForPlayer(ctx context.Context, playerID int) ([]LinkedProvider, error) {
	linked, err := s.store.ProvidersForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if linked == nil {
		linked = []LinkedProvider{}
	}
	return linked, nil
}
