package handlers

import (
	"log/slog"
	"net/http"

	"planets-engine/internal/game"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/rules"
	"planets-engine/internal/sim/session"
)

// CommandRequest carries the arguments of every player command. Each
// command reads only the fields it needs.
type CommandRequest struct {
	SystemID      string              `json:"system_id"`
	FleetID       string              `json:"fleet_id"`
	TargetFleetID string              `json:"target_fleet_id"`
	SourceFleetID string              `json:"source_fleet_id"`
	ShipIDs       []string            `json:"ship_ids"`
	ShipID        string              `json:"ship_id"`
	Name          string              `json:"name"`
	Branch        string              `json:"branch"`
	TechID        string              `json:"tech_id"`
	PerkID        string              `json:"perk_id"`
	Enabled       bool                `json:"enabled"`
	Build         military.BuildOrder `json:"build"`
	PlanetID      string              `json:"planet_id"`
	DistrictID    string              `json:"district_id"`
	BuildID       string              `json:"build_id"`
	JobID         string              `json:"job_id"`
	Delta         int                 `json:"delta"`
	EmpireID      string              `json:"empire_id"`
	Action        string              `json:"action"`
}

type CommandResponse struct {
	Success bool            `json:"success"`
	Tick    int64           `json:"tick"`
	Summary session.Summary `json:"summary"`
	FleetID string          `json:"fleet_id,omitempty"`
}

// commandFunc binds a request to an engine command. Commands that create an
// entity report its id through created.
type commandFunc func(req CommandRequest, created *string) game.Command

var commands = map[string]commandFunc{
	"start_colonization": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.StartColonization(s, req.SystemID)
		}
	},
	"move_fleet": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.OrderFleetMove(s, req.FleetID, req.SystemID)
		}
	},
	"merge_fleets": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.MergeFleets(s, req.TargetFleetID, req.SourceFleetID)
		}
	},
	"split_fleet": func(req CommandRequest, created *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			out, id, err := e.SplitFleet(s, req.FleetID, req.ShipIDs, req.Name)
			*created = id
			return out, err
		}
	},
	"begin_research": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.BeginResearch(s, req.Branch, req.TechID)
		}
	},
	"unlock_perk": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.UnlockTraditionPerk(s, req.PerkID)
		}
	},
	"queue_ship": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.QueueShipBuild(s, req.Build)
		}
	},
	"build_shipyard": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.BuildShipyard(s, req.SystemID)
		}
	},
	"order_science_ship": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.OrderScienceShip(s, req.ShipID, req.SystemID)
		}
	},
	"science_auto": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.SetScienceShipAuto(s, req.ShipID, req.Enabled)
		}
	},
	"queue_district": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.QueueDistrictBuild(s, req.PlanetID, req.DistrictID)
		}
	},
	"cancel_district": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.CancelDistrictBuild(s, req.BuildID)
		}
	},
	"prioritize_district": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.PrioritizeDistrictBuild(s, req.BuildID)
		}
	},
	"adjust_population": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.AdjustPopulation(s, req.PlanetID, req.JobID, req.Delta)
		}
	},
	"diplomacy": func(req CommandRequest, _ *string) game.Command {
		return func(e *session.Engine, s *session.Session) (*session.Session, error) {
			return e.DiplomaticAction(s, req.EmpireID, military.DiplomaticAction(req.Action))
		}
	},
}

type CommandsHandler struct {
	service *game.Service
}

func NewCommandsHandler(service *game.Service) *CommandsHandler {
	return &CommandsHandler{service: service}
}

func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, name := r.PathValue("id"), r.PathValue("command")
	logger := slog.With("handler", "session_command", "session_id", id, "command", name)

	bind, ok := commands[name]
	if !ok {
		response.Error(w, r, logger, errors.Validationf("unknown command: %s", name))
		return
	}

	var req CommandRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var created string
	st, err := h.service.Apply(r.Context(), id, bind(req, &created))
	if err != nil {
		if reason, ok := rules.ReasonOf(err); ok {
			logger.Debug("Command rejected", "reason", reason)
		}
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, CommandResponse{
		Success: true,
		Tick:    st.Clock.Tick,
		Summary: session.Summarize(st),
		FleetID: created,
	})
}
