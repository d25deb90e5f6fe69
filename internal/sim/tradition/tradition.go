package tradition

import (
	"math"
	"slices"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/rules"
)

type Perk struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Category       string          `yaml:"category" json:"category,omitempty"`
	Cost           float64         `yaml:"cost" json:"cost"`
	Prerequisites  []string        `yaml:"prerequisites" json:"prerequisites,omitempty"`
	ExclusiveGroup string          `yaml:"exclusive_group" json:"exclusive_group,omitempty"`
	Production     economy.Amounts `yaml:"production" json:"production,omitempty"`
}

type Config struct {
	Perks                    []Perk  `yaml:"perks" json:"perks"`
	PointsPerInfluenceIncome float64 `yaml:"points_per_influence_income" json:"points_per_influence_income"`
}

func (c Config) Perk(id string) (Perk, bool) {
	for _, p := range c.Perks {
		if p.ID == id {
			return p, true
		}
	}
	return Perk{}, false
}

type State struct {
	AvailablePoints float64  `json:"available_points"`
	Unlocked        []string `json:"unlocked"`
	Backlog         []string `json:"backlog"`
}

func NewState(cfg Config) State {
	s := State{Unlocked: []string{}}
	for _, p := range cfg.Perks {
		s.Backlog = append(s.Backlog, p.ID)
	}
	return s
}

func (s State) Clone() State {
	s.Unlocked = slices.Clone(s.Unlocked)
	s.Backlog = slices.Clone(s.Backlog)
	return s
}

// Advance converts one tick of influence income into tradition points.
func Advance(s State, cfg Config, influenceIncome float64) State {
	gained := math.Max(0, influenceIncome*cfg.PointsPerInfluenceIncome)
	if gained <= 0 {
		return s
	}
	out := s.Clone()
	out.AvailablePoints += gained
	return out
}

func (s State) foreclosed(cfg Config, p Perk) bool {
	if p.ExclusiveGroup == "" {
		return false
	}
	for _, id := range s.Unlocked {
		if other, ok := cfg.Perk(id); ok && other.ID != p.ID && other.ExclusiveGroup == p.ExclusiveGroup {
			return true
		}
	}
	return false
}

func (s State) prerequisitesMet(p Perk) bool {
	for _, pre := range p.Prerequisites {
		if !slices.Contains(s.Unlocked, pre) {
			return false
		}
	}
	return true
}

// Unlock debits the perk cost and records it.
func Unlock(s State, cfg Config, perkID string) (State, error) {
	const command = "unlock_tradition"

	perk, ok := cfg.Perk(perkID)
	if !ok {
		return s, rules.Reject(command, rules.InvalidPerk)
	}
	if slices.Contains(s.Unlocked, perk.ID) {
		return s, rules.Reject(command, rules.AlreadyUnlocked)
	}
	if !s.prerequisitesMet(perk) || s.foreclosed(cfg, perk) {
		return s, rules.Reject(command, rules.PrereqNotMet)
	}
	if s.AvailablePoints < perk.Cost {
		return s, rules.Reject(command, rules.InsufficientPoints)
	}

	out := s.Clone()
	out.AvailablePoints -= perk.Cost
	out.Unlocked = append(out.Unlocked, perk.ID)
	out.Backlog = slices.DeleteFunc(out.Backlog, func(id string) bool { return id == perk.ID })
	return out, nil
}

// Choices lists perks that are not unlocked and whose prerequisites hold.
func Choices(s State, cfg Config) []Perk {
	var out []Perk
	for _, p := range cfg.Perks {
		if slices.Contains(s.Unlocked, p.ID) || !s.prerequisitesMet(p) || s.foreclosed(cfg, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Bonuses sums the flat production of unlocked perks.
func Bonuses(s State, cfg Config) economy.Amounts {
	total := economy.Amounts{}
	for _, id := range s.Unlocked {
		if p, ok := cfg.Perk(id); ok {
			total.Add(p.Production)
		}
	}
	return total
}
