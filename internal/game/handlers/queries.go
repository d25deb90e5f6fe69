package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"planets-engine/internal/game"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/research"
	"planets-engine/internal/sim/tradition"
)

// QueriesHandler exposes the read-only views a client needs to pick its
// next command.
type QueriesHandler struct {
	service *game.Service
}

func NewQueriesHandler(service *game.Service) *QueriesHandler {
	return &QueriesHandler{service: service}
}

// ResearchOffers answers GET .../research/{branch}/offers?count=N.
func (h *QueriesHandler) ResearchOffers(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "research_offers", "session_id", r.PathValue("id"))

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, r, logger, errors.Validationf("invalid count: %s", raw))
			return
		}
		count = n
	}

	st, err := h.service.State(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	offers := h.service.Engine().ResearchOffers(st, r.PathValue("branch"), count)
	if offers == nil {
		offers = []research.Tech{}
	}
	response.Success(w, http.StatusOK, offers)
}

func (h *QueriesHandler) AvailableTechs(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "available_techs", "session_id", r.PathValue("id"))

	st, err := h.service.State(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	techs := h.service.Engine().AvailableTechs(st, r.PathValue("branch"))
	if techs == nil {
		techs = []research.Tech{}
	}
	response.Success(w, http.StatusOK, techs)
}

func (h *QueriesHandler) TraditionChoices(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "tradition_choices", "session_id", r.PathValue("id"))

	st, err := h.service.State(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	perks := h.service.Engine().TraditionChoices(st)
	if perks == nil {
		perks = []tradition.Perk{}
	}
	response.Success(w, http.StatusOK, perks)
}

func (h *QueriesHandler) Designs(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "ship_designs", "session_id", r.PathValue("id"))

	st, err := h.service.State(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	designs := h.service.Engine().UnlockedDesigns(st)
	if designs == nil {
		designs = []military.ShipDesign{}
	}
	response.Success(w, http.StatusOK, designs)
}
