package galaxy

import (
	"planets-engine/internal/sim/rules"
)

type ShipStatus string

const (
	ShipIdle      ShipStatus = "idle"
	ShipTraveling ShipStatus = "traveling"
	ShipSurveying ShipStatus = "surveying"
)

// ScienceShip explores the galaxy. TargetSystemID is set exactly while the
// ship is traveling or surveying.
type ScienceShip struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SystemID       string     `json:"system_id"`
	TargetSystemID string     `json:"target_system_id,omitempty"`
	Status         ShipStatus `json:"status"`
	TicksRemaining int        `json:"ticks_remaining"`
	AutoExplore    bool       `json:"auto_explore"`
}

type ExplorationConfig struct {
	TravelTicks         int  `yaml:"travel_ticks" json:"travel_ticks"`
	SurveyTicks         int  `yaml:"survey_ticks" json:"survey_ticks"`
	InitialScienceShips int  `yaml:"initial_science_ships" json:"initial_science_ships"`
	AutoExplore         bool `yaml:"auto_explore" json:"auto_explore"`
}

// InitialScienceShips docks the starting survey ships at the home system.
func InitialScienceShips(homeSystemID string, cfg ExplorationConfig, ids *rules.IDs) []ScienceShip {
	ships := make([]ScienceShip, 0, cfg.InitialScienceShips)
	for i := 0; i < cfg.InitialScienceShips; i++ {
		id := ids.Next("SCI")
		ships = append(ships, ScienceShip{
			ID:          id,
			Name:        "Survey " + id[len(id)-2:],
			SystemID:    homeSystemID,
			Status:      ShipIdle,
			AutoExplore: cfg.AutoExplore,
		})
	}
	return ships
}

// AdvanceExploration runs one exploration tick. Traveling ships arrive and
// begin surveying, surveying ships finish and go idle, and idle ships on
// auto-explore pick the nearest system that is not yet surveyed.
func AdvanceExploration(g Galaxy, ships []ScienceShip, cfg ExplorationConfig) (Galaxy, []ScienceShip) {
	g = g.Clone()
	out := make([]ScienceShip, len(ships))
	copy(out, ships)

	for i := range out {
		ship := &out[i]
		switch ship.Status {
		case ShipTraveling:
			ship.TicksRemaining--
			if ship.TicksRemaining > 0 {
				continue
			}
			if g.Index(ship.TargetSystemID) < 0 {
				idle(ship)
				continue
			}
			ship.SystemID = ship.TargetSystemID
			g.Reveal(ship.SystemID, Revealed)
			startSurvey(&g, ship, cfg)
		case ShipSurveying:
			ship.TicksRemaining--
			if ship.TicksRemaining > 0 {
				continue
			}
			g.Reveal(ship.TargetSystemID, Surveyed)
			idle(ship)
		}
	}

	for i := range out {
		ship := &out[i]
		if ship.Status != ShipIdle || !ship.AutoExplore {
			continue
		}
		target, ok := nearestUnsurveyed(g, ship.SystemID, claimedTargets(out))
		if !ok {
			continue
		}
		depart(ship, target, cfg)
	}

	return g, out
}

// OrderScienceShip sends an idle ship toward a system.
func OrderScienceShip(g Galaxy, ships []ScienceShip, shipID, systemID string, cfg ExplorationConfig) ([]ScienceShip, error) {
	const command = "order_science_ship"

	idx := -1
	for i, s := range ships {
		if s.ID == shipID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ships, rules.Reject(command, rules.ShipNotFound)
	}
	if g.Index(systemID) < 0 {
		return ships, rules.Reject(command, rules.SystemNotFound)
	}
	if ships[idx].Status != ShipIdle {
		return ships, rules.Reject(command, rules.ShipBusy)
	}
	if ships[idx].SystemID == systemID {
		return ships, rules.Reject(command, rules.AlreadyInSystem)
	}

	out := make([]ScienceShip, len(ships))
	copy(out, ships)
	depart(&out[idx], systemID, cfg)
	return out, nil
}

// SetAutoExplore toggles autonomous exploration for one ship.
func SetAutoExplore(ships []ScienceShip, shipID string, on bool) ([]ScienceShip, error) {
	out := make([]ScienceShip, len(ships))
	copy(out, ships)
	for i := range out {
		if out[i].ID == shipID {
			out[i].AutoExplore = on
			return out, nil
		}
	}
	return ships, rules.Reject("set_science_ship_auto", rules.ShipNotFound)
}

func depart(ship *ScienceShip, target string, cfg ExplorationConfig) {
	ship.TargetSystemID = target
	ship.Status = ShipTraveling
	ship.TicksRemaining = max(1, cfg.TravelTicks)
}

func startSurvey(g *Galaxy, ship *ScienceShip, cfg ExplorationConfig) {
	if cfg.SurveyTicks <= 0 {
		g.Reveal(ship.SystemID, Surveyed)
		idle(ship)
		return
	}
	ship.Status = ShipSurveying
	ship.TicksRemaining = cfg.SurveyTicks
}

func idle(ship *ScienceShip) {
	ship.Status = ShipIdle
	ship.TargetSystemID = ""
	ship.TicksRemaining = 0
}

func claimedTargets(ships []ScienceShip) map[string]bool {
	claimed := make(map[string]bool)
	for _, s := range ships {
		if s.TargetSystemID != "" {
			claimed[s.TargetSystemID] = true
		}
	}
	return claimed
}

// nearestUnsurveyed breaks distance ties by the lowest system id.
func nearestUnsurveyed(g Galaxy, fromID string, claimed map[string]bool) (string, bool) {
	from, ok := g.System(fromID)
	if !ok {
		return "", false
	}

	best := ""
	bestDist := 0.0
	for _, s := range g.Systems {
		if s.Visibility == Surveyed || s.ID == fromID || claimed[s.ID] {
			continue
		}
		d := from.Position.DistanceTo(s.Position)
		if best == "" || d < bestDist || (d == bestDist && s.ID < best) {
			best, bestDist = s.ID, d
		}
	}
	return best, best != ""
}
