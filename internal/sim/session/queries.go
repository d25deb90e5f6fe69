package session

import (
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/research"
	"planets-engine/internal/sim/tradition"
)

// DefaultOfferCount is how many techs a branch offers when the caller does
// not ask for a specific number.
const DefaultOfferCount = 3

func (e *Engine) ResearchOffers(s *Session, branch string, count int) []research.Tech {
	if s == nil {
		return nil
	}
	if count <= 0 {
		count = DefaultOfferCount
	}
	return research.Offers(s.Research, e.cat.Research, branch, count)
}

func (e *Engine) AvailableTechs(s *Session, branch string) []research.Tech {
	if s == nil {
		return nil
	}
	return research.Available(s.Research, e.cat.Research, branch)
}

func (e *Engine) TraditionChoices(s *Session) []tradition.Perk {
	if s == nil {
		return nil
	}
	return tradition.Choices(s.Traditions, e.cat.Traditions)
}

// UnlockedDesigns lists the ship designs the session may queue.
func (e *Engine) UnlockedDesigns(s *Session) []military.ShipDesign {
	if s == nil {
		return nil
	}
	return e.cat.Military.DesignsUnlocked(s.Research.IsCompleted)
}

// Summary is the compact view of a session used in listings.
type Summary struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Tick          int64   `json:"tick"`
	IsRunning     bool    `json:"is_running"`
	Speed         float64 `json:"speed"`
	Systems       int     `json:"systems"`
	Surveyed      int     `json:"surveyed"`
	Planets       int     `json:"planets"`
	Fleets        int     `json:"fleets"`
	Ships         int     `json:"ships"`
	CombatReports int     `json:"combat_reports"`
	AtWar         int     `json:"at_war"`
}

func Summarize(s *Session) Summary {
	sum := Summary{
		ID:            s.ID,
		Label:         s.Label,
		Tick:          s.Clock.Tick,
		IsRunning:     s.Clock.IsRunning,
		Speed:         s.Clock.SpeedMultiplier,
		Systems:       len(s.Galaxy.Systems),
		Planets:       len(s.Planets),
		Fleets:        len(s.Fleets),
		CombatReports: len(s.CombatReports),
	}
	for _, sys := range s.Galaxy.Systems {
		if sys.Visibility == galaxy.Surveyed {
			sum.Surveyed++
		}
	}
	for _, f := range s.Fleets {
		sum.Ships += len(f.Ships)
	}
	for _, emp := range s.Empires {
		if emp.AtWar {
			sum.AtWar++
		}
	}
	return sum
}
