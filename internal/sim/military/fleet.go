package military

import (
	"math"
	"slices"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/rules"
)

type FleetShip struct {
	ID           string  `json:"id"`
	DesignID     string  `json:"design_id"`
	Name         string  `json:"name,omitempty"`
	HullPoints   float64 `json:"hull_points"`
	AttackBonus  float64 `json:"attack_bonus,omitempty"`
	DefenseBonus float64 `json:"defense_bonus,omitempty"`
}

// Fleet is a group of ships. TargetSystemID is set exactly while
// TicksToArrival is positive. A fleet with no ships stays valid but never
// fights.
type Fleet struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	SystemID       string      `json:"system_id"`
	TargetSystemID string      `json:"target_system_id,omitempty"`
	TicksToArrival int         `json:"ticks_to_arrival"`
	Ships          []FleetShip `json:"ships"`
}

func (f Fleet) Clone() Fleet {
	f.Ships = slices.Clone(f.Ships)
	return f
}

func (f Fleet) InTransit() bool {
	return f.TicksToArrival > 0
}

func CloneFleets(fleets []Fleet) []Fleet {
	out := make([]Fleet, len(fleets))
	for i, f := range fleets {
		out[i] = f.Clone()
	}
	return out
}

func fleetIndex(fleets []Fleet, id string) int {
	return slices.IndexFunc(fleets, func(f Fleet) bool { return f.ID == id })
}

// NewShip builds a hull of design with the given bonuses applied.
func NewShip(id string, design ShipDesign, bonuses *Bonuses) FleetShip {
	ship := FleetShip{ID: id, DesignID: design.ID, HullPoints: design.HullPoints}
	if bonuses != nil {
		ship.Name = bonuses.Name
		ship.HullPoints += bonuses.HullBonus
		ship.AttackBonus = bonuses.AttackBonus
		ship.DefenseBonus = bonuses.DefenseBonus
	}
	return ship
}

// InitialFleet stations the starter ship at the home system.
func InitialFleet(homeSystemID string, cfg Config, ids *rules.IDs) Fleet {
	design := cfg.MustDesign(cfg.Shipyard.HomeSystemDesignID)
	name := cfg.StartingFleetName
	if name == "" {
		name = "First Fleet"
	}
	return Fleet{
		ID:       ids.Next("FLEET"),
		Name:     name,
		SystemID: homeSystemID,
		Ships:    []FleetShip{NewShip(ids.Next("SHIP"), design, nil)},
	}
}

// OrderMove sends a fleet toward destination. Travel time is the distance
// over fleet speed, rounded up, and never below one tick.
func OrderMove(g galaxy.Galaxy, fleets []Fleet, fleetID, destination string, cfg Config) ([]Fleet, error) {
	const command = "order_fleet_move"

	idx := fleetIndex(fleets, fleetID)
	if idx < 0 {
		return fleets, rules.Reject(command, rules.FleetNotFound)
	}
	if g.Index(destination) < 0 {
		return fleets, rules.Reject(command, rules.SystemNotFound)
	}
	fleet := fleets[idx]
	if fleet.SystemID == destination {
		return fleets, rules.Reject(command, rules.AlreadyInSystem)
	}
	if len(fleet.Ships) == 0 {
		return fleets, rules.Reject(command, rules.NoShips)
	}

	ticks := 1
	if dist := g.Distance(fleet.SystemID, destination); cfg.FleetSpeed > 0 && !math.IsInf(dist, 0) {
		ticks = max(1, int(math.Ceil(dist/cfg.FleetSpeed)))
	}

	out := CloneFleets(fleets)
	out[idx].TargetSystemID = destination
	out[idx].TicksToArrival = ticks
	return out, nil
}

// AdvanceMovement moves traveling fleets one tick. Arriving fleets reveal
// their destination.
func AdvanceMovement(g galaxy.Galaxy, fleets []Fleet) (galaxy.Galaxy, []Fleet) {
	out := CloneFleets(fleets)
	moved := false
	for i := range out {
		f := &out[i]
		if !f.InTransit() {
			continue
		}
		f.TicksToArrival--
		if f.TicksToArrival > 0 {
			continue
		}
		if !moved {
			g = g.Clone()
			moved = true
		}
		if g.Index(f.TargetSystemID) >= 0 {
			f.SystemID = f.TargetSystemID
			g.Reveal(f.SystemID, galaxy.Revealed)
		}
		f.TargetSystemID = ""
		f.TicksToArrival = 0
	}
	return g, out
}

// Merge moves every ship of source into target and removes source. Both
// fleets must be stationary in the same system.
func Merge(fleets []Fleet, targetID, sourceID string) ([]Fleet, error) {
	const command = "merge_fleets"

	ti, si := fleetIndex(fleets, targetID), fleetIndex(fleets, sourceID)
	if ti < 0 || si < 0 {
		return fleets, rules.Reject(command, rules.FleetNotFound)
	}
	if ti == si {
		return fleets, rules.Reject(command, rules.SameFleet)
	}
	target, source := fleets[ti], fleets[si]
	if target.InTransit() || source.InTransit() || target.SystemID != source.SystemID {
		return fleets, rules.Reject(command, rules.NotCoLocated)
	}

	out := CloneFleets(fleets)
	out[ti].Ships = append(out[ti].Ships, source.Ships...)
	return slices.Delete(out, si, si+1), nil
}

// Split detaches shipIDs into a new fleet in the same system.
func Split(fleets []Fleet, fleetID string, shipIDs []string, name string, ids *rules.IDs) ([]Fleet, Fleet, error) {
	const command = "split_fleet"

	idx := fleetIndex(fleets, fleetID)
	if idx < 0 {
		return fleets, Fleet{}, rules.Reject(command, rules.FleetNotFound)
	}
	src := fleets[idx]
	if src.InTransit() {
		return fleets, Fleet{}, rules.Reject(command, rules.FleetInTransit)
	}
	if len(shipIDs) == 0 {
		return fleets, Fleet{}, rules.Reject(command, rules.NoShips)
	}
	wanted := make(map[string]bool, len(shipIDs))
	for _, id := range shipIDs {
		if !slices.ContainsFunc(src.Ships, func(s FleetShip) bool { return s.ID == id }) {
			return fleets, Fleet{}, rules.Reject(command, rules.ShipNotFound)
		}
		wanted[id] = true
	}
	if len(wanted) == len(src.Ships) {
		return fleets, Fleet{}, rules.Reject(command, rules.InvalidSplit)
	}

	var kept, moved []FleetShip
	for _, s := range src.Ships {
		if wanted[s.ID] {
			moved = append(moved, s)
		} else {
			kept = append(kept, s)
		}
	}

	id := ids.Next("FLEET")
	if name == "" {
		name = src.Name + " (detached)"
	}
	created := Fleet{ID: id, Name: name, SystemID: src.SystemID, Ships: moved}

	out := CloneFleets(fleets)
	out[idx].Ships = kept
	out = append(out, created)
	return out, created, nil
}

// Upkeep totals the per-ship upkeep of every fleet.
func Upkeep(fleets []Fleet, cfg Config) economy.Amounts {
	total := economy.Amounts{}
	for _, f := range fleets {
		for _, s := range f.Ships {
			if d, ok := cfg.Design(s.DesignID); ok {
				total.Add(d.Upkeep)
			}
		}
	}
	return total
}

// ShipPower is attack plus defense, bonuses included. Ships of a design
// missing from the catalog count for nothing.
func ShipPower(s FleetShip, cfg Config) float64 {
	d, ok := cfg.Design(s.DesignID)
	if !ok {
		return 0
	}
	return d.Attack + d.Defense + s.AttackBonus + s.DefenseBonus
}

// HasRole reports whether any ship in the fleet has a design of role.
func HasRole(f Fleet, cfg Config, role Role) bool {
	for _, s := range f.Ships {
		if d, ok := cfg.Design(s.DesignID); ok && d.Role == role {
			return true
		}
	}
	return false
}
