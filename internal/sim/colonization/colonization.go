// Package colonization turns surveyed habitable worlds into planets over a
// fixed number of ticks.
package colonization

import (
	"slices"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/rules"
)

type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "inProgress"
	Completed  Status = "completed"
)

// Task is at most one per system and disappears once its planet exists.
type Task struct {
	ID             string                `json:"id"`
	SystemID       string                `json:"system_id"`
	World          galaxy.HabitableWorld `json:"world"`
	Status         Status                `json:"status"`
	TicksRemaining int                   `json:"ticks_remaining"`
	TotalTicks     int                   `json:"total_ticks"`
}

type Config struct {
	Cost              economy.Amounts `yaml:"cost" json:"cost"`
	DurationTicks     int             `yaml:"duration_ticks" json:"duration_ticks"`
	InitialPopulation float64         `yaml:"initial_population" json:"initial_population"`
}

// Pipeline is the colonization slice of a session.
type Pipeline struct {
	Galaxy  galaxy.Galaxy
	Planets []economy.Planet
	Tasks   []Task
	Ledger  economy.Ledger
}

// Start validates and opens a colonization task, debiting its cost. Checks
// run in order: system exists, surveyed, has a habitable world, no planet
// there, no running task there, cost affordable.
func Start(p Pipeline, cfg Config, systemID string, ids *rules.IDs) (Pipeline, error) {
	const command = "start_colonization"

	sys, ok := p.Galaxy.System(systemID)
	if !ok {
		return p, rules.Reject(command, rules.SystemNotFound)
	}
	if sys.Visibility != galaxy.Surveyed {
		return p, rules.Reject(command, rules.SystemNotSurveyed)
	}
	if sys.HabitableWorld == nil {
		return p, rules.Reject(command, rules.NoHabitableWorld)
	}
	if _, colonized := economy.PlanetIn(p.Planets, systemID); colonized {
		return p, rules.Reject(command, rules.AlreadyColonized)
	}
	if slices.ContainsFunc(p.Tasks, func(t Task) bool { return t.SystemID == systemID }) {
		return p, rules.Reject(command, rules.TaskInProgress)
	}
	if !p.Ledger.CanAfford(cfg.Cost) {
		return p, rules.Reject(command, rules.InsufficientResource)
	}

	world := *sys.HabitableWorld
	world.Production = world.Production.Clone()
	world.Upkeep = world.Upkeep.Clone()

	total := max(1, cfg.DurationTicks)
	p.Ledger = p.Ledger.Spend(cfg.Cost)
	p.Tasks = append(slices.Clone(p.Tasks), Task{
		ID:             ids.Next("COLONY"),
		SystemID:       systemID,
		World:          world,
		Status:         Pending,
		TicksRemaining: total,
		TotalTicks:     total,
	})
	return p, nil
}

// Advance moves every task one tick forward. Finished tasks are removed and
// their planet is created from the stored template; the system becomes the
// player's. Tasks whose system vanished are dropped without a refund.
func Advance(p Pipeline, cfg Config, ids *rules.IDs) Pipeline {
	if len(p.Tasks) == 0 {
		return p
	}

	g := p.Galaxy.Clone()
	planets := slices.Clone(p.Planets)
	tasks := make([]Task, 0, len(p.Tasks))

	for _, t := range p.Tasks {
		idx := g.Index(t.SystemID)
		if idx < 0 {
			continue
		}
		t.Status = InProgress
		t.TicksRemaining--
		if t.TicksRemaining > 0 {
			tasks = append(tasks, t)
			continue
		}

		if _, exists := economy.PlanetIn(planets, t.SystemID); !exists {
			planets = append(planets, economy.Planet{
				ID:         ids.Next("PLANET"),
				SystemID:   t.SystemID,
				Name:       t.World.Name,
				Kind:       t.World.Kind,
				Size:       t.World.Size,
				Population: cfg.InitialPopulation,
				Production: t.World.Production.Clone(),
				Upkeep:     t.World.Upkeep.Clone(),
			})
		}
		g.Systems[idx].Owner = galaxy.PlayerOwner
	}

	p.Galaxy = g
	p.Planets = planets
	p.Tasks = tasks
	return p
}
