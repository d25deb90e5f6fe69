package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"planets-engine/internal/auth"
	"planets-engine/internal/game"
	"planets-engine/internal/middleware"
	"planets-engine/internal/player"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
)

type PlayerLookup interface {
	GetPlayerByID(ctx context.Context, id int) (*player.Player, error)
}

type ProviderLister interface {
	ProvidersForPlayer(ctx context.Context, playerID int) ([]auth.LinkedProvider, error)
}

type SessionLister interface {
	ListSessions(ctx context.Context, ownerID int) ([]game.GameSession, error)
}

// MeResponse is the signed-in player's own profile.
type MeResponse struct {
	*player.Player
	Providers []auth.LinkedProvider `json:"providers"`
	Sessions  []game.GameSession    `json:"sessions"`
}

type MeHandler struct {
	players   PlayerLookup
	providers ProviderLister
	sessions  SessionLister
}

func NewMeHandler(players PlayerLookup, providers ProviderLister, sessions SessionLister) *MeHandler {
	return &MeHandler{players: players, providers: providers, sessions: sessions}
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "me")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}
	logger = logger.With("player_id", claims.PlayerID)

	p, err := h.players.GetPlayerByID(r.Context(), claims.PlayerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	providers, err := h.providers.ProvidersForPlayer(r.Context(), p.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	sessions, err := h.sessions.ListSessions(r.Context(), p.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if sessions == nil {
		sessions = []game.GameSession{}
	}

	response.Success(w, http.StatusOK, MeResponse{Player: p, Providers: providers, Sessions: sessions})
}
