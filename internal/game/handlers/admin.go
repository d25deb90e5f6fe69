package handlers

import (
	"log/slog"
	"net/http"

	"planets-engine/internal/game"
	"planets-engine/internal/shared/response"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/session"
)

// AdminHandler hosts operator endpoints: feeding rival empire events into a
// session and stepping it by hand.
type AdminHandler struct {
	service *game.Service
}

func NewAdminHandler(service *game.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

type AdvanceRequest struct {
	Ticks int `json:"ticks"`
}

type AdvanceResponse struct {
	Tick          int64           `json:"tick"`
	CombatReports int             `json:"combat_reports"`
	Summary       session.Summary `json:"summary"`
}

func (h *AdminHandler) EmpireEvent(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "admin_empire_event", "session_id", r.PathValue("id"))

	var ev military.EmpireEvent
	if err := decodeBody(r, &ev); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	st, err := h.service.Apply(r.Context(), r.PathValue("id"), func(e *session.Engine, s *session.Session) (*session.Session, error) {
		return e.ApplyEmpireEvent(s, ev)
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Empire event applied", "kind", ev.Kind, "empire_id", ev.EmpireID, "tick", st.Clock.Tick)
	response.Success(w, http.StatusOK, st.Empires)
}

func (h *AdminHandler) Advance(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "admin_advance", "session_id", r.PathValue("id"))

	var req AdvanceRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	st, results, err := h.service.ForceAdvance(r.Context(), r.PathValue("id"), req.Ticks)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	resp := AdvanceResponse{Tick: st.Clock.Tick, Summary: session.Summarize(st)}
	for _, res := range results {
		resp.CombatReports += len(res.NewReports)
	}
	response.Success(w, http.StatusOK, resp)
}

func (h *AdminHandler) Unload(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "admin_unload", "session_id", r.PathValue("id"))

	if err := h.service.Unload(r.Context(), r.PathValue("id")); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
