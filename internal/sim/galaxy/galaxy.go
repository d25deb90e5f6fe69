// Package galaxy models star systems, their visibility to the player, and the
// science ships that explore them.
package galaxy

import (
	"math"

	"planets-engine/internal/sim/economy"
)

type Visibility string

const (
	Unknown  Visibility = "unknown"
	Revealed Visibility = "revealed"
	Surveyed Visibility = "surveyed"
)

func (v Visibility) rank() int {
	switch v {
	case Revealed:
		return 1
	case Surveyed:
		return 2
	default:
		return 0
	}
}

// Raise returns the higher of v and to. Visibility never goes down.
func (v Visibility) Raise(to Visibility) Visibility {
	if to.rank() > v.rank() {
		return to
	}
	return v
}

// AtLeast reports whether v is at or above other.
func (v Visibility) AtLeast(other Visibility) bool {
	return v.rank() >= other.rank()
}

// PlayerOwner marks systems held by the player empire.
const PlayerOwner = "player"

type StarClass string

const (
	ClassO StarClass = "O"
	ClassB StarClass = "B"
	ClassA StarClass = "A"
	ClassF StarClass = "F"
	ClassG StarClass = "G"
	ClassK StarClass = "K"
	ClassM StarClass = "M"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (a Vec3) DistanceTo(b Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HabitableWorld is the template a colony is created from.
type HabitableWorld struct {
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Size       int             `json:"size"`
	Production economy.Amounts `json:"production"`
	Upkeep     economy.Amounts `json:"upkeep"`
}

// Shipyard is an orbital yard. It only builds ships once operational.
type Shipyard struct {
	Operational    bool `json:"operational"`
	TicksRemaining int  `json:"ticks_remaining"`
}

type StarSystem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Position       Vec3            `json:"position"`
	StarClass      StarClass       `json:"star_class"`
	Visibility     Visibility      `json:"visibility"`
	HabitableWorld *HabitableWorld `json:"habitable_world,omitempty"`
	HostilePower   float64         `json:"hostile_power"`
	Owner          string          `json:"owner,omitempty"`
	Shipyard       *Shipyard       `json:"shipyard,omitempty"`
}

func (s StarSystem) Clone() StarSystem {
	if s.HabitableWorld != nil {
		hw := *s.HabitableWorld
		hw.Production = hw.Production.Clone()
		hw.Upkeep = hw.Upkeep.Clone()
		s.HabitableWorld = &hw
	}
	if s.Shipyard != nil {
		yard := *s.Shipyard
		s.Shipyard = &yard
	}
	return s
}

// HasOperationalShipyard reports whether ships can be built here.
func (s StarSystem) HasOperationalShipyard() bool {
	return s.Shipyard != nil && s.Shipyard.Operational
}

type Galaxy struct {
	Seed    string       `json:"seed"`
	Shape   Shape        `json:"shape"`
	Radius  float64      `json:"radius"`
	Systems []StarSystem `json:"systems"`
}

func (g Galaxy) Clone() Galaxy {
	systems := make([]StarSystem, len(g.Systems))
	for i, s := range g.Systems {
		systems[i] = s.Clone()
	}
	g.Systems = systems
	return g
}

// Index returns the slice position of the system with id, or -1.
func (g Galaxy) Index(id string) int {
	for i, s := range g.Systems {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (g Galaxy) System(id string) (StarSystem, bool) {
	if i := g.Index(id); i >= 0 {
		return g.Systems[i], true
	}
	return StarSystem{}, false
}

// Distance between two systems; unknown ids yield +Inf.
func (g Galaxy) Distance(fromID, toID string) float64 {
	from, ok := g.System(fromID)
	if !ok {
		return math.Inf(1)
	}
	to, ok := g.System(toID)
	if !ok {
		return math.Inf(1)
	}
	return from.Position.DistanceTo(to.Position)
}

// Reveal raises the visibility of a system in place.
func (g *Galaxy) Reveal(id string, to Visibility) {
	if i := g.Index(id); i >= 0 {
		g.Systems[i].Visibility = g.Systems[i].Visibility.Raise(to)
	}
}
