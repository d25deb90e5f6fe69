// Package military covers ship designs, fleets, combat resolution, shipyard
// construction and the war state with rival empires.
package military

import (
	"fmt"

	"planets-engine/internal/sim/economy"
)

// Role is the capability a design grants, resolved once from the catalog.
type Role string

const (
	RoleMilitary     Role = "military"
	RoleConstruction Role = "construction"
	RoleScience      Role = "science"
	RoleColony       Role = "colony"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleMilitary, RoleConstruction, RoleScience, RoleColony:
		return true
	}
	return false
}

type ShipDesign struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	Role         Role            `yaml:"role" json:"role"`
	Attack       float64         `yaml:"attack" json:"attack"`
	Defense      float64         `yaml:"defense" json:"defense"`
	HullPoints   float64         `yaml:"hull_points" json:"hull_points"`
	Cost         economy.Amounts `yaml:"cost" json:"cost"`
	Upkeep       economy.Amounts `yaml:"upkeep" json:"upkeep"`
	BuildTicks   int             `yaml:"build_ticks" json:"build_ticks"`
	RequiredTech string          `yaml:"required_tech" json:"required_tech,omitempty"`
}

// Customization spends refit points on a hull.
type Customization struct {
	Name    string `yaml:"name" json:"name,omitempty"`
	Offense int    `yaml:"offense" json:"offense"`
	Defense int    `yaml:"defense" json:"defense"`
	Hull    int    `yaml:"hull" json:"hull"`
}

func (c Customization) Points() int {
	return max(0, c.Offense) + max(0, c.Defense) + max(0, c.Hull)
}

// Resolve converts refit points into per-ship bonuses and a cost multiplier.
func (c Customization) Resolve() Bonuses {
	return Bonuses{
		Name:           c.Name,
		AttackBonus:    float64(max(0, c.Offense)) * 2,
		DefenseBonus:   float64(max(0, c.Defense)) * 1.5,
		HullBonus:      float64(max(0, c.Hull)) * 3,
		CostMultiplier: 1 + float64(c.Points())*0.08,
	}
}

type Bonuses struct {
	Name           string  `json:"name,omitempty"`
	AttackBonus    float64 `json:"attack_bonus"`
	DefenseBonus   float64 `json:"defense_bonus"`
	HullBonus      float64 `json:"hull_bonus"`
	CostMultiplier float64 `json:"cost_multiplier"`
}

// Template is a named, pre-customized variant of a design.
type Template struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	DesignID      string        `yaml:"design_id" json:"design_id"`
	Customization Customization `yaml:"customization" json:"customization"`
	BuildTicks    int           `yaml:"build_ticks" json:"build_ticks,omitempty"`
}

type ShipyardConfig struct {
	QueueSize          int             `yaml:"queue_size" json:"queue_size"`
	BuildCost          economy.Amounts `yaml:"build_cost" json:"build_cost"`
	BuildTicks         int             `yaml:"build_ticks" json:"build_ticks"`
	RequiredTech       string          `yaml:"required_tech" json:"required_tech,omitempty"`
	HomeSystemDesignID string          `yaml:"home_system_design_id" json:"home_system_design_id"`
}

type Config struct {
	ShipDesigns       []ShipDesign   `yaml:"ship_designs" json:"ship_designs"`
	Templates         []Template     `yaml:"templates" json:"templates"`
	Shipyard          ShipyardConfig `yaml:"shipyard" json:"shipyard"`
	FleetSpeed        float64        `yaml:"fleet_speed" json:"fleet_speed"`
	StartingFleetName string         `yaml:"starting_fleet_name" json:"starting_fleet_name"`
	Diplomacy         Diplomacy      `yaml:"diplomacy" json:"diplomacy"`
}

func (c Config) Design(id string) (ShipDesign, bool) {
	for _, d := range c.ShipDesigns {
		if d.ID == id {
			return d, true
		}
	}
	return ShipDesign{}, false
}

// MustDesign is for ids that come from the catalog itself. A miss there is
// a data bug, not a player mistake.
func (c Config) MustDesign(id string) ShipDesign {
	d, ok := c.Design(id)
	if !ok {
		panic(fmt.Sprintf("military: unknown ship design %q", id))
	}
	return d
}

func (c Config) Template(id string) (Template, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// DesignsUnlocked lists designs whose required tech is satisfied.
func (c Config) DesignsUnlocked(hasTech func(string) bool) []ShipDesign {
	var out []ShipDesign
	for _, d := range c.ShipDesigns {
		if d.RequiredTech == "" || hasTech(d.RequiredTech) {
			out = append(out, d)
		}
	}
	return out
}
