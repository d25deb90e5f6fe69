package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"planets-engine/internal/game"
	"planets-engine/internal/middleware"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/session"
)

// SessionsHandler serves the player-facing session endpoints. Routes that
// take {id} are expected behind the session access middleware.
type SessionsHandler struct {
	service *game.Service
}

func NewSessionsHandler(service *game.Service) *SessionsHandler {
	return &SessionsHandler{service: service}
}

type ClockRequest struct {
	Running *bool    `json:"running"`
	Speed   *float64 `json:"speed"`
}

func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_session")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("no user claims found in context"))
		return
	}

	var req game.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	g, err := h.service.CreateSession(r.Context(), claims.PlayerID, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusCreated, g)
}

func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_sessions")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("no user claims found in context"))
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), claims.PlayerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if sessions == nil {
		sessions = []game.GameSession{}
	}
	response.Success(w, http.StatusOK, sessions)
}

func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_session", "session_id", r.PathValue("id"))

	st, err := h.service.State(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, st)
}

func (h *SessionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "session_summary", "session_id", r.PathValue("id"))

	sum, err := h.service.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, sum)
}

func (h *SessionsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	logger := slog.With("handler", "session_snapshot", "session_id", id)

	data, err := h.service.Snapshot(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.snap"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Warn("Failed to write snapshot", "error", err)
	}
}

func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_session", "session_id", r.PathValue("id"))

	if err := h.service.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clock starts, pauses or re-speeds a session in one call.
func (h *SessionsHandler) Clock(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "session_clock", "session_id", r.PathValue("id"))

	var req ClockRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if req.Running == nil && req.Speed == nil {
		response.Error(w, r, logger, errors.Validation("running or speed is required"))
		return
	}

	st, err := h.service.Apply(r.Context(), r.PathValue("id"), func(e *session.Engine, s *session.Session) (*session.Session, error) {
		var err error
		if req.Speed != nil {
			if s, err = e.SetSpeed(s, *req.Speed); err != nil {
				return nil, err
			}
		}
		if req.Running != nil {
			if s, err = e.SetRunning(s, *req.Running); err != nil {
				return nil, err
			}
		}
		return s, nil
	})
	if stderrors.Is(err, clock.ErrInvalidSpeed) {
		err = errors.Validationf("speed must be greater than 0 and at most %d", clock.MaxSpeedMultiplier)
	}
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Session clock updated", "running", st.Clock.IsRunning, "speed", st.Clock.SpeedMultiplier)
	response.Success(w, http.StatusOK, st.Clock)
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || stderrors.Is(err, io.EOF) {
		return nil
	}
	return errors.Validationf("invalid request body: %v", err)
}
