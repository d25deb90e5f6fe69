package military

import (
	"fmt"
	"math"
	"sort"

	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/rules"
)

type Result string

const (
	PlayerVictory     Result = "playerVictory"
	PlayerDefeat      Result = "playerDefeat"
	MutualDestruction Result = "mutualDestruction"
)

type Loss struct {
	FleetID   string `json:"fleet_id"`
	ShipsLost int    `json:"ships_lost"`
}

// CombatReport is immutable once appended to the session history.
type CombatReport struct {
	ID           string   `json:"id"`
	Tick         int64    `json:"tick"`
	SystemID     string   `json:"system_id"`
	Result       Result   `json:"result"`
	PlayerPower  float64  `json:"player_power"`
	HostilePower float64  `json:"hostile_power"`
	EmpireIDs    []string `json:"empire_ids,omitempty"`
	Losses       []Loss   `json:"losses"`
}

// Theater is the state combat reads and rewrites.
type Theater struct {
	Galaxy  galaxy.Galaxy
	Fleets  []Fleet
	Empires []Empire
}

// ResolveCombat fights at most one battle per system. Player power is the
// summed ship power of stationary fleets there; hostile power is the
// system's native threat plus every at-war empire present.
//
//   - player > hostile: victory, hostiles cleared, each fleet loses
//     floor(ships * H / (P + H)).
//   - player < hostile: defeat, every ship lost, hostiles lose P.
//   - equal: mutual destruction, both sides wiped.
//
// Ships are destroyed from the end of each fleet's list.
func ResolveCombat(th Theater, cfg Config, tick int64, ids *rules.IDs) (Theater, []CombatReport, []WarEvent) {
	var reports []CombatReport
	var events []WarEvent
	cloned := false

	for si := range th.Galaxy.Systems {
		sys := th.Galaxy.Systems[si]

		var present []int
		playerPower := 0.0
		for fi, f := range th.Fleets {
			if f.InTransit() || f.SystemID != sys.ID || len(f.Ships) == 0 {
				continue
			}
			present = append(present, fi)
			for _, s := range f.Ships {
				playerPower += ShipPower(s, cfg)
			}
		}
		if len(present) == 0 {
			continue
		}

		hostile := sys.HostilePower
		var empireIdx []int
		for ei, e := range th.Empires {
			if p := e.Presence[sys.ID]; e.AtWar && p > 0 {
				hostile += p
				empireIdx = append(empireIdx, ei)
			}
		}
		if hostile <= 0 {
			continue
		}

		if !cloned {
			th = Theater{
				Galaxy:  th.Galaxy.Clone(),
				Fleets:  CloneFleets(th.Fleets),
				Empires: CloneEmpires(th.Empires),
			}
			cloned = true
		}

		result := PlayerVictory
		switch {
		case playerPower < hostile:
			result = PlayerDefeat
		case playerPower == hostile:
			result = MutualDestruction
		}

		report := CombatReport{
			ID:           fmt.Sprintf("CR-%06d-%s", tick, sys.ID),
			Tick:         tick,
			SystemID:     sys.ID,
			Result:       result,
			PlayerPower:  playerPower,
			HostilePower: hostile,
		}

		for _, fi := range present {
			f := &th.Fleets[fi]
			lost := len(f.Ships)
			if result == PlayerVictory {
				lost = int(math.Floor(float64(len(f.Ships)) * hostile / (playerPower + hostile)))
			}
			f.Ships = f.Ships[:len(f.Ships)-lost]
			report.Losses = append(report.Losses, Loss{FleetID: f.ID, ShipsLost: lost})
		}

		if result == PlayerDefeat {
			reduceHostiles(&th, si, empireIdx, playerPower)
		} else {
			th.Galaxy.Systems[si].HostilePower = 0
			for _, ei := range empireIdx {
				delete(th.Empires[ei].Presence, sys.ID)
			}
		}

		for _, ei := range empireIdx {
			report.EmpireIDs = append(report.EmpireIDs, th.Empires[ei].ID)
			events = append(events, WarEvent{
				ID:       ids.Next("WAR"),
				Tick:     tick,
				Kind:     Battle,
				EmpireID: th.Empires[ei].ID,
				SystemID: sys.ID,
				Result:   result,
			})
		}
		sort.Strings(report.EmpireIDs)
		reports = append(reports, report)
	}

	return th, reports, events
}

// reduceHostiles absorbs damage into the native threat first, then into
// empire presences in set order.
func reduceHostiles(th *Theater, systemIdx int, empireIdx []int, damage float64) {
	sys := &th.Galaxy.Systems[systemIdx]
	absorbed := math.Min(sys.HostilePower, damage)
	sys.HostilePower -= absorbed
	damage -= absorbed

	for _, ei := range empireIdx {
		if damage <= 0 {
			return
		}
		e := &th.Empires[ei]
		p := e.Presence[sys.ID]
		hit := math.Min(p, damage)
		if p-hit <= 0 {
			delete(e.Presence, sys.ID)
		} else {
			e.Presence[sys.ID] = p - hit
		}
		damage -= hit
	}
}
