package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"planets-engine/internal/player"
	"planets-engine/internal/shared/response"
)

// Roster lists every registered player.
type Roster interface {
	GetAllPlayers(ctx context.Context) ([]player.Player, error)
}

type PlayersHandler struct {
	roster Roster
}

func NewPlayersHandler(roster Roster) *PlayersHandler {
	return &PlayersHandler{roster: roster}
}

func (h *PlayersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players")

	players, err := h.roster.GetAllPlayers(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	public := make([]player.PublicPlayer, 0, len(players))
	for _, p := range players {
		public = append(public, p.Public())
	}
	response.Success(w, http.StatusOK, public)
}
