package session

import (
	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/colonization"
	"planets-engine/internal/sim/district"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/research"
	"planets-engine/internal/sim/rules"
	"planets-engine/internal/sim/tradition"
)

// Every command validates first and applies second. On rejection the input
// session is returned as is together with a *rules.Rejection.

func noSession(command string) error {
	return rules.Reject(command, rules.NoSession)
}

func (e *Engine) StartColonization(s *Session, systemID string) (*Session, error) {
	if s == nil {
		return nil, noSession("start_colonization")
	}
	out := s.Clone()
	p, err := colonization.Start(colonization.Pipeline{
		Galaxy:  out.Galaxy,
		Planets: out.Planets,
		Tasks:   out.Colonization,
		Ledger:  out.Economy,
	}, e.cat.Colonization, systemID, &out.IDs)
	if err != nil {
		return s, err
	}
	out.Colonization, out.Economy = p.Tasks, p.Ledger
	return out, nil
}

func (e *Engine) works(s *Session) district.Works {
	return district.Works{Planets: s.Planets, Queue: s.DistrictQueue, Ledger: s.Economy}
}

func (e *Engine) QueueDistrictBuild(s *Session, planetID, districtID string) (*Session, error) {
	if s == nil {
		return nil, noSession("queue_district_build")
	}
	out := s.Clone()
	w, err := district.Queue(e.works(out), e.cat.Districts, planetID, districtID, district.TechCheck(out.Research.IsCompleted), &out.IDs)
	if err != nil {
		return s, err
	}
	out.DistrictQueue, out.Economy = w.Queue, w.Ledger
	return out, nil
}

// CancelDistrictBuild refunds the full cost of the build.
func (e *Engine) CancelDistrictBuild(s *Session, entryID string) (*Session, error) {
	if s == nil {
		return nil, noSession("cancel_district_build")
	}
	w, err := district.Cancel(e.works(s), entryID)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.DistrictQueue, out.Economy = w.Queue, w.Ledger
	return out, nil
}

func (e *Engine) PrioritizeDistrictBuild(s *Session, entryID string) (*Session, error) {
	if s == nil {
		return nil, noSession("prioritize_district_build")
	}
	w, err := district.Prioritize(e.works(s), entryID)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.DistrictQueue = w.Queue
	return out, nil
}

// AdjustPopulation moves delta pops of a planet into a job, or out of it
// when delta is negative. Income follows at the next tick.
func (e *Engine) AdjustPopulation(s *Session, planetID, jobID string, delta int) (*Session, error) {
	if s == nil {
		return nil, noSession("adjust_population")
	}
	w, err := district.AssignJobs(e.works(s), e.cat.Districts, planetID, jobID, delta)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Planets = w.Planets
	return out, nil
}

// DiplomaticAction is the player's own war or peace decision toward an
// empire it has already met.
func (e *Engine) DiplomaticAction(s *Session, empireID string, action military.DiplomaticAction) (*Session, error) {
	if s == nil {
		return nil, noSession("diplomatic_action")
	}
	out := s.Clone()
	r, err := military.ActOnEmpire(military.Relations{
		Galaxy:    out.Galaxy,
		Empires:   out.Empires,
		WarEvents: out.WarEvents,
		Ledger:    out.Economy,
	}, e.cat.Military, empireID, action, out.Clock.Tick, &out.IDs)
	if err != nil {
		return s, err
	}
	out.Empires, out.WarEvents, out.Economy = r.Empires, r.WarEvents, r.Ledger
	return out, nil
}

func (e *Engine) OrderFleetMove(s *Session, fleetID, systemID string) (*Session, error) {
	if s == nil {
		return nil, noSession("order_fleet_move")
	}
	fleets, err := military.OrderMove(s.Galaxy, s.Fleets, fleetID, systemID, e.cat.Military)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Fleets = fleets
	return out, nil
}

func (e *Engine) MergeFleets(s *Session, targetID, sourceID string) (*Session, error) {
	if s == nil {
		return nil, noSession("merge_fleets")
	}
	fleets, err := military.Merge(s.Fleets, targetID, sourceID)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Fleets = fleets
	return out, nil
}

// SplitFleet returns the id of the detached fleet on success.
func (e *Engine) SplitFleet(s *Session, fleetID string, shipIDs []string, name string) (*Session, string, error) {
	if s == nil {
		return nil, "", noSession("split_fleet")
	}
	out := s.Clone()
	fleets, created, err := military.Split(out.Fleets, fleetID, shipIDs, name, &out.IDs)
	if err != nil {
		return s, "", err
	}
	out.Fleets = fleets
	return out, created.ID, nil
}

func (e *Engine) BeginResearch(s *Session, branch, techID string) (*Session, error) {
	if s == nil {
		return nil, noSession("begin_research")
	}
	state, err := research.Start(s.Research, e.cat.Research, branch, techID)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Research = state
	return out, nil
}

// UnlockTraditionPerk takes effect on income at the next tick.
func (e *Engine) UnlockTraditionPerk(s *Session, perkID string) (*Session, error) {
	if s == nil {
		return nil, noSession("unlock_tradition")
	}
	state, err := tradition.Unlock(s.Traditions, e.cat.Traditions, perkID)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Traditions = state
	return out, nil
}

func (e *Engine) QueueShipBuild(s *Session, order military.BuildOrder) (*Session, error) {
	if s == nil {
		return nil, noSession("queue_ship_build")
	}
	out := s.Clone()
	y, err := military.QueueShip(e.yard(out), e.cat.Military, order, e.hasTech(out), &out.IDs)
	if err != nil {
		return s, err
	}
	out.Economy, out.ShipyardQueue = y.Ledger, y.Queue
	return out, nil
}

func (e *Engine) BuildShipyard(s *Session, systemID string) (*Session, error) {
	if s == nil {
		return nil, noSession("build_shipyard")
	}
	y, err := military.BuildShipyard(e.yard(s), e.cat.Military, systemID, e.hasTech(s))
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Economy, out.Galaxy = y.Ledger, y.Galaxy
	return out, nil
}

func (e *Engine) OrderScienceShip(s *Session, shipID, systemID string) (*Session, error) {
	if s == nil {
		return nil, noSession("order_science_ship")
	}
	ships, err := galaxy.OrderScienceShip(s.Galaxy, s.ScienceShips, shipID, systemID, e.cat.Exploration)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.ScienceShips = ships
	return out, nil
}

func (e *Engine) SetScienceShipAuto(s *Session, shipID string, on bool) (*Session, error) {
	if s == nil {
		return nil, noSession("set_science_ship_auto")
	}
	ships, err := galaxy.SetAutoExplore(s.ScienceShips, shipID, on)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.ScienceShips = ships
	return out, nil
}

// ApplyEmpireEvent records an instruction from the rival-empire actor at the
// current tick.
func (e *Engine) ApplyEmpireEvent(s *Session, ev military.EmpireEvent) (*Session, error) {
	if s == nil {
		return nil, noSession("apply_empire_event")
	}
	out := s.Clone()
	empires, record, err := military.ApplyEmpireEvent(out.Galaxy, out.Empires, ev, out.Clock.Tick, &out.IDs)
	if err != nil {
		return s, err
	}
	out.Empires = empires
	out.WarEvents = append(out.WarEvents, record)
	return out, nil
}

func (e *Engine) SetRunning(s *Session, running bool) (*Session, error) {
	if s == nil {
		return nil, noSession("set_clock_running")
	}
	out := s.Clone()
	out.Clock = clock.SetRunning(out.Clock, running)
	return out, nil
}

// SetSpeed returns clock.ErrInvalidSpeed for multipliers outside
// (0, clock.MaxSpeedMultiplier].
func (e *Engine) SetSpeed(s *Session, multiplier float64) (*Session, error) {
	if s == nil {
		return nil, noSession("set_clock_speed")
	}
	c, err := clock.SetSpeed(s.Clock, multiplier)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Clock = c
	return out, nil
}
