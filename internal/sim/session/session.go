// Package session threads one game through the engines. A Session is a
// plain value: every step and command takes a session and returns a new one,
// leaving its input untouched.
package session

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"planets-engine/internal/sim/catalog"
	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/colonization"
	"planets-engine/internal/sim/district"
	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/research"
	"planets-engine/internal/sim/rules"
	"planets-engine/internal/sim/tradition"
)

type Session struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	CreatedAt     time.Time `json:"created_at"`
	CatalogDigest string    `json:"catalog_digest"`
	HomeSystemID  string    `json:"home_system_id"`

	Clock         clock.Clock             `json:"clock"`
	Galaxy        galaxy.Galaxy           `json:"galaxy"`
	Economy       economy.Ledger          `json:"economy"`
	Planets       []economy.Planet        `json:"planets"`
	Research      research.State          `json:"research"`
	Traditions    tradition.State         `json:"traditions"`
	Colonization  []colonization.Task     `json:"colonization"`
	DistrictQueue []district.QueueEntry   `json:"district_queue"`
	ShipyardQueue []military.QueueEntry   `json:"shipyard_queue"`
	Fleets        []military.Fleet        `json:"fleets"`
	ScienceShips  []galaxy.ScienceShip    `json:"science_ships"`
	CombatReports []military.CombatReport `json:"combat_reports"`
	WarEvents     []military.WarEvent     `json:"war_events"`
	Empires       []military.Empire       `json:"empires"`
	IDs           rules.IDs               `json:"ids"`
}

// Clone deep-copies every mutable part of the session.
func (s *Session) Clone() *Session {
	out := *s
	if s.Clock.LastUpdate != nil {
		t := *s.Clock.LastUpdate
		out.Clock.LastUpdate = &t
	}
	out.Galaxy = s.Galaxy.Clone()
	out.Economy = s.Economy.Clone()
	out.Planets = make([]economy.Planet, len(s.Planets))
	for i, p := range s.Planets {
		out.Planets[i] = p.Clone()
	}
	out.Research = s.Research.Clone()
	out.Traditions = s.Traditions.Clone()
	out.Colonization = slices.Clone(s.Colonization)
	out.DistrictQueue = slices.Clone(s.DistrictQueue)
	out.ShipyardQueue = slices.Clone(s.ShipyardQueue)
	out.Fleets = military.CloneFleets(s.Fleets)
	out.ScienceShips = slices.Clone(s.ScienceShips)
	out.CombatReports = slices.Clone(s.CombatReports)
	out.WarEvents = slices.Clone(s.WarEvents)
	out.Empires = military.CloneEmpires(s.Empires)
	out.IDs = s.IDs.Clone()
	return &out
}

// Params configures a new session. Zero galaxy fields fall back to the
// catalog's default galaxy.
type Params struct {
	ID     string        `json:"id,omitempty"`
	Label  string        `json:"label"`
	Galaxy galaxy.Params `json:"galaxy"`
}

// Engine binds the rules and galaxy generator every session of a process
// runs under.
type Engine struct {
	cat *catalog.Catalog
	gen galaxy.Generator
}

func NewEngine(cat *catalog.Catalog, gen galaxy.Generator) *Engine {
	if gen == nil {
		gen = galaxy.NewProcedural(cat.Generation)
	}
	return &Engine{cat: cat, gen: gen}
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// New generates the galaxy and seeds the home system with a planet, an
// operational shipyard, the starting fleet and the survey ships.
func (e *Engine) New(p Params, now time.Time) *Session {
	gp := p.Galaxy
	def := e.cat.DefaultGalaxy
	if gp.Seed == "" {
		gp.Seed = def.Seed
	}
	if gp.SystemCount <= 0 {
		gp.SystemCount = def.SystemCount
	}
	if gp.Radius <= 0 {
		gp.Radius = def.Radius
	}
	if !gp.Shape.IsValid() {
		gp.Shape = def.Shape
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	label := p.Label
	if label == "" {
		label = gp.Seed
	}

	s := &Session{
		ID:            id,
		Label:         label,
		CreatedAt:     now.UTC(),
		CatalogDigest: e.cat.Digest(),
		Clock:         clock.SetRunning(clock.New(), e.cat.Debug.AutoStart),
		Galaxy:        e.gen.Generate(gp),
		Research:      research.NewState(e.cat.Research),
		Traditions:    tradition.NewState(e.cat.Traditions),
	}

	home := &s.Galaxy.Systems[0]
	home.Owner = galaxy.PlayerOwner
	home.Visibility = galaxy.Surveyed
	home.HostilePower = 0
	home.Shipyard = &galaxy.Shipyard{Operational: true}
	s.HomeSystemID = home.ID

	hp := e.cat.Economy.HomePlanet
	s.Planets = []economy.Planet{{
		ID:         s.IDs.Next("PLANET"),
		SystemID:   home.ID,
		Name:       hp.Name,
		Kind:       hp.Kind,
		Size:       hp.Size,
		Population: hp.Population,
		Production: hp.Production.Clone(),
		Upkeep:     hp.Upkeep.Clone(),
	}}

	s.Fleets = []military.Fleet{military.InitialFleet(home.ID, e.cat.Military, &s.IDs)}
	s.ScienceShips = galaxy.InitialScienceShips(home.ID, e.cat.Exploration, &s.IDs)
	s.Economy = e.recomputeEconomy(s, economy.NewLedger(e.cat.Economy.StartingResources))
	return s
}

// recomputeEconomy refreshes income and upkeep from planets with their
// districts and jobs, completed techs, unlocked perks and fleet upkeep.
func (e *Engine) recomputeEconomy(s *Session, l economy.Ledger) economy.Ledger {
	income := research.Bonuses(s.Research, e.cat.Research)
	income = income.Add(tradition.Bonuses(s.Traditions, e.cat.Traditions))
	upkeep := military.Upkeep(s.Fleets, e.cat.Military)
	planets := make([]economy.Planet, len(s.Planets))
	for i, p := range s.Planets {
		planets[i] = district.Effective(p, e.cat.Districts)
	}
	return economy.Recompute(l, planets, economy.Rates{Income: income, Upkeep: upkeep})
}

func (e *Engine) hasTech(s *Session) military.TechCheck {
	return s.Research.IsCompleted
}
