package session

import (
	"time"

	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/colonization"
	"planets-engine/internal/sim/district"
	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/research"
	"planets-engine/internal/sim/tradition"
)

// TickResult summarizes what one tick produced, for logging and callers
// that react to completions.
type TickResult struct {
	Tick           int64
	CompletedTechs []string
	NewPlanets     []string
	NewDistricts   []district.QueueEntry
	NewReports     []military.CombatReport
	NewWarEvents   []military.WarEvent
}

// Step runs every engine once, in order: clock, exploration, economy,
// research and traditions, colonization, districts, shipyard, fleet
// movement, combat.
// Stale references are skipped, so a step never fails.
func (e *Engine) Step(s *Session) (*Session, TickResult) {
	out := s.Clone()
	out.Clock.Tick++
	res := TickResult{Tick: out.Clock.Tick}

	out.Galaxy, out.ScienceShips = galaxy.AdvanceExploration(out.Galaxy, out.ScienceShips, e.cat.Exploration)

	out.Economy = economy.Accrue(e.recomputeEconomy(out, out.Economy))

	var done []research.Tech
	out.Research, done = research.Advance(out.Research, e.cat.Research, out.Economy[economy.Research].Income)
	for _, t := range done {
		res.CompletedTechs = append(res.CompletedTechs, t.ID)
	}
	out.Traditions = tradition.Advance(out.Traditions, e.cat.Traditions, out.Economy[economy.Influence].Income)

	before := len(out.Planets)
	pipe := colonization.Advance(colonization.Pipeline{
		Galaxy:  out.Galaxy,
		Planets: out.Planets,
		Tasks:   out.Colonization,
		Ledger:  out.Economy,
	}, e.cat.Colonization, &out.IDs)
	out.Galaxy, out.Planets, out.Colonization = pipe.Galaxy, pipe.Planets, pipe.Tasks
	for _, p := range out.Planets[before:] {
		res.NewPlanets = append(res.NewPlanets, p.ID)
	}

	works, built := district.Advance(district.Works{
		Planets: out.Planets,
		Queue:   out.DistrictQueue,
		Ledger:  out.Economy,
	}, e.cat.Districts)
	out.Planets, out.DistrictQueue = works.Planets, works.Queue
	res.NewDistricts = built

	yard := military.AdvanceShipyards(e.yard(out), e.cat.Military, &out.IDs)
	out.Galaxy, out.ShipyardQueue, out.Fleets, out.ScienceShips = yard.Galaxy, yard.Queue, yard.Fleets, yard.ScienceShips

	out.Galaxy, out.Fleets = military.AdvanceMovement(out.Galaxy, out.Fleets)

	th, reports, events := military.ResolveCombat(military.Theater{
		Galaxy:  out.Galaxy,
		Fleets:  out.Fleets,
		Empires: out.Empires,
	}, e.cat.Military, out.Clock.Tick, &out.IDs)
	out.Galaxy, out.Fleets, out.Empires = th.Galaxy, th.Fleets, th.Empires
	out.CombatReports = append(out.CombatReports, reports...)
	out.WarEvents = append(out.WarEvents, events...)
	res.NewReports, res.NewWarEvents = reports, events

	return out, res
}

// AdvanceClockBy feeds wall-clock time into the session clock and runs one
// Step per whole tick covered, up to clock.MaxCatchUpTicks. Repeating a call
// with the same now returns the session unchanged.
func (e *Engine) AdvanceClockBy(s *Session, elapsedMs float64, now time.Time) (*Session, []TickResult) {
	return e.AdvanceClockWithin(s, elapsedMs, now, clock.MaxCatchUpTicks)
}

// AdvanceClockWithin runs at most maxTicks steps. Covered time beyond that
// stays on the clock and is drained by later calls.
func (e *Engine) AdvanceClockWithin(s *Session, elapsedMs float64, now time.Time, maxTicks int) (*Session, []TickResult) {
	if s == nil {
		return nil, nil
	}
	c, ticks := clock.AdvanceWithin(s.Clock, elapsedMs, e.cat.TickDurationMs(), now, maxTicks)

	out := s.Clone()
	out.Clock = c
	out.Clock.Tick -= int64(ticks)

	results := make([]TickResult, 0, ticks)
	for range ticks {
		var r TickResult
		out, r = e.Step(out)
		results = append(results, r)
	}
	return out, results
}

// AdvanceTicks runs n steps regardless of whether the clock is running.
func (e *Engine) AdvanceTicks(s *Session, n int) (*Session, []TickResult) {
	if s == nil || n <= 0 {
		return s, nil
	}
	results := make([]TickResult, 0, n)
	for range n {
		var r TickResult
		s, r = e.Step(s)
		results = append(results, r)
	}
	return s, results
}

func (e *Engine) yard(s *Session) military.Yard {
	return military.Yard{
		Galaxy:       s.Galaxy,
		Ledger:       s.Economy,
		Queue:        s.ShipyardQueue,
		Fleets:       s.Fleets,
		ScienceShips: s.ScienceShips,
		HomeSystemID: s.HomeSystemID,
	}
}
