package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"planets-engine/internal/game"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
)

type PlayerCounter interface {
	GetPlayerCount(ctx context.Context) (int, error)
}

type GameStatusResponse struct {
	Game    string `json:"game"`
	Players int    `json:"players"`
	game.Status
}

type GameStatusHandler struct {
	service *game.Service
	players PlayerCounter
}

func NewGameStatusHandler(service *game.Service, players PlayerCounter) *GameStatusHandler {
	return &GameStatusHandler{service: service, players: players}
}

func (h *GameStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "game_status")

	playerCount, err := h.players.GetPlayerCount(r.Context())
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to get player count", err))
		return
	}

	response.Success(w, http.StatusOK, GameStatusResponse{
		Game:    "Planets!",
		Players: playerCount,
		Status:  h.service.Status(),
	})
}
