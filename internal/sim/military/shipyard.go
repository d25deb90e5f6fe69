package military

import (
	"fmt"
	"slices"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/rules"
)

// QueueEntry is one ship under construction. Only the head of the queue
// makes progress.
type QueueEntry struct {
	ID             string          `json:"id"`
	DesignID       string          `json:"design_id"`
	TemplateID     string          `json:"template_id,omitempty"`
	SystemID       string          `json:"system_id"`
	Customization  *Bonuses        `json:"customization,omitempty"`
	Cost           economy.Amounts `json:"cost"`
	TicksRemaining int             `json:"ticks_remaining"`
	TotalTicks     int             `json:"total_ticks"`
}

// BuildOrder is a player request to queue a ship.
type BuildOrder struct {
	DesignID      string         `json:"design_id"`
	TemplateID    string         `json:"template_id,omitempty"`
	SystemID      string         `json:"system_id,omitempty"`
	Customization *Customization `json:"customization,omitempty"`
}

// Yard is the slice of a session the shipyard reads and rewrites.
type Yard struct {
	Galaxy       galaxy.Galaxy
	Ledger       economy.Ledger
	Queue        []QueueEntry
	Fleets       []Fleet
	ScienceShips []galaxy.ScienceShip
	HomeSystemID string
}

// TechCheck reports whether a tech has been researched.
type TechCheck func(techID string) bool

// QueueShip validates an order and appends it to the build queue. Checks
// run in order: design, template, required tech, shipyard, queue room,
// affordability.
func QueueShip(y Yard, cfg Config, order BuildOrder, hasTech TechCheck, ids *rules.IDs) (Yard, error) {
	const command = "queue_ship_build"

	design, ok := cfg.Design(order.DesignID)
	if !ok {
		return y, rules.Reject(command, rules.InvalidDesign)
	}

	var template *Template
	if order.TemplateID != "" {
		t, ok := cfg.Template(order.TemplateID)
		if !ok || t.DesignID != design.ID {
			return y, rules.Reject(command, rules.InvalidTemplate)
		}
		template = &t
	}

	if design.RequiredTech != "" && !hasTech(design.RequiredTech) {
		return y, rules.Reject(command, rules.TechMissing)
	}

	systemID := order.SystemID
	if systemID == "" {
		systemID = y.HomeSystemID
	}
	sys, ok := y.Galaxy.System(systemID)
	if !ok || !sys.HasOperationalShipyard() {
		return y, rules.Reject(command, rules.NoShipyard)
	}

	if cfg.Shipyard.QueueSize > 0 && len(y.Queue) >= cfg.Shipyard.QueueSize {
		return y, rules.Reject(command, rules.QueueFull)
	}

	var bonuses *Bonuses
	switch {
	case order.Customization != nil:
		b := order.Customization.Resolve()
		bonuses = &b
	case template != nil:
		b := template.Customization.Resolve()
		if b.Name == "" {
			b.Name = template.Name
		}
		bonuses = &b
	}

	multiplier := 1.0
	if bonuses != nil {
		multiplier = bonuses.CostMultiplier
	}
	cost := design.Cost.Scale(multiplier)
	if !y.Ledger.CanAfford(cost) {
		return y, rules.Reject(command, rules.InsufficientResource)
	}

	ticks := design.BuildTicks
	if template != nil && template.BuildTicks > 0 {
		ticks = template.BuildTicks
	}
	ticks = max(1, ticks)

	y.Ledger = y.Ledger.Spend(cost)
	y.Queue = append(slices.Clone(y.Queue), QueueEntry{
		ID:             ids.Next("BUILD"),
		DesignID:       design.ID,
		TemplateID:     order.TemplateID,
		SystemID:       systemID,
		Customization:  bonuses,
		Cost:           cost,
		TicksRemaining: ticks,
		TotalTicks:     ticks,
	})
	return y, nil
}

// BuildShipyard starts an orbital shipyard. It needs the shipyard tech and
// a construction ship parked in the system.
func BuildShipyard(y Yard, cfg Config, systemID string, hasTech TechCheck) (Yard, error) {
	const command = "build_shipyard"

	idx := y.Galaxy.Index(systemID)
	if idx < 0 {
		return y, rules.Reject(command, rules.SystemNotFound)
	}
	if req := cfg.Shipyard.RequiredTech; req != "" && !hasTech(req) {
		return y, rules.Reject(command, rules.TechMissing)
	}
	if y.Galaxy.Systems[idx].Shipyard != nil {
		return y, rules.Reject(command, rules.AlreadyBuilt)
	}
	constructor := slices.ContainsFunc(y.Fleets, func(f Fleet) bool {
		return !f.InTransit() && f.SystemID == systemID && HasRole(f, cfg, RoleConstruction)
	})
	if !constructor {
		return y, rules.Reject(command, rules.NoConstructor)
	}
	if !y.Ledger.CanAfford(cfg.Shipyard.BuildCost) {
		return y, rules.Reject(command, rules.InsufficientResource)
	}

	y.Ledger = y.Ledger.Spend(cfg.Shipyard.BuildCost)
	y.Galaxy = y.Galaxy.Clone()
	y.Galaxy.Systems[idx].Shipyard = &galaxy.Shipyard{TicksRemaining: max(1, cfg.Shipyard.BuildTicks)}
	return y, nil
}

// AdvanceShipyards finishes yard construction and progresses the head of
// the build queue. A completed hull joins the first stationary fleet in its
// system, or a new fleet there; science hulls become science ships.
func AdvanceShipyards(y Yard, cfg Config, ids *rules.IDs) Yard {
	y.Galaxy = y.Galaxy.Clone()
	for i := range y.Galaxy.Systems {
		yard := y.Galaxy.Systems[i].Shipyard
		if yard == nil || yard.Operational {
			continue
		}
		yard.TicksRemaining--
		if yard.TicksRemaining <= 0 {
			yard.TicksRemaining = 0
			yard.Operational = true
		}
	}

	if len(y.Queue) == 0 {
		return y
	}
	queue := slices.Clone(y.Queue)
	head := queue[0]

	design, ok := cfg.Design(head.DesignID)
	if !ok {
		// stale design, drop the entry
		y.Queue = queue[1:]
		return y
	}

	head.TicksRemaining--
	if head.TicksRemaining > 0 {
		queue[0] = head
		y.Queue = queue
		return y
	}
	y.Queue = queue[1:]

	systemID := head.SystemID
	if y.Galaxy.Index(systemID) < 0 {
		systemID = y.HomeSystemID
	}

	if design.Role == RoleScience {
		id := ids.Next("SCI")
		y.ScienceShips = append(slices.Clone(y.ScienceShips), galaxy.ScienceShip{
			ID:       id,
			Name:     shipName(head.Customization, design),
			SystemID: systemID,
			Status:   galaxy.ShipIdle,
		})
		return y
	}

	ship := NewShip(ids.Next("SHIP"), design, head.Customization)
	fleets := CloneFleets(y.Fleets)
	idx := slices.IndexFunc(fleets, func(f Fleet) bool { return !f.InTransit() && f.SystemID == systemID })
	if idx >= 0 {
		fleets[idx].Ships = append(fleets[idx].Ships, ship)
	} else {
		id := ids.Next("FLEET")
		fleets = append(fleets, Fleet{
			ID:       id,
			Name:     fmt.Sprintf("Fleet %s", id[len("FLEET-"):]),
			SystemID: systemID,
			Ships:    []FleetShip{ship},
		})
	}
	y.Fleets = fleets
	return y
}

func shipName(b *Bonuses, d ShipDesign) string {
	if b != nil && b.Name != "" {
		return b.Name
	}
	return d.Name
}
