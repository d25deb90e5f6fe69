package military

import (
	"slices"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/rules"
)

// Diplomacy prices the player's own war and peace decisions. TruceTicks is
// how long after a peace the player may not declare war on the same empire.
type Diplomacy struct {
	PeaceCost  economy.Amounts `yaml:"peace_cost" json:"peace_cost"`
	TruceTicks int             `yaml:"truce_ticks" json:"truce_ticks"`
}

type DiplomaticAction string

const (
	ProposePeace DiplomaticAction = "make_peace"
	OpenWar      DiplomaticAction = "declare_war"
)

// Relations is the slice of a session diplomacy reads and rewrites.
type Relations struct {
	Galaxy    galaxy.Galaxy
	Empires   []Empire
	WarEvents []WarEvent
	Ledger    economy.Ledger
}

// ActOnEmpire applies a player decision toward an empire already met. It
// goes through ApplyEmpireEvent so the war history records it like any
// other war or peace. Checks run in order: empire, action, war state,
// truce, affordability.
func ActOnEmpire(r Relations, cfg Config, empireID string, action DiplomaticAction, tick int64, ids *rules.IDs) (Relations, error) {
	const command = "diplomatic_action"

	idx := slices.IndexFunc(r.Empires, func(e Empire) bool { return e.ID == empireID })
	if empireID == "" || idx < 0 {
		return r, rules.Reject(command, rules.EmpireNotFound)
	}
	atWar := r.Empires[idx].AtWar

	var (
		kind EmpireEventKind
		cost economy.Amounts
	)
	switch action {
	case ProposePeace:
		if !atWar {
			return r, rules.Reject(command, rules.NotAtWar)
		}
		kind, cost = MakePeace, cfg.Diplomacy.PeaceCost
	case OpenWar:
		if atWar {
			return r, rules.Reject(command, rules.AlreadyAtWar)
		}
		if inTruce(r.WarEvents, empireID, tick, cfg.Diplomacy.TruceTicks) {
			return r, rules.Reject(command, rules.InvalidAction)
		}
		kind = DeclareWar
	default:
		return r, rules.Reject(command, rules.InvalidAction)
	}
	if !r.Ledger.CanAfford(cost) {
		return r, rules.Reject(command, rules.InsufficientResource)
	}

	empires, record, err := ApplyEmpireEvent(r.Galaxy, r.Empires, EmpireEvent{Kind: kind, EmpireID: empireID}, tick, ids)
	if err != nil {
		return r, err
	}
	r.Ledger = r.Ledger.Spend(cost)
	r.Empires = empires
	r.WarEvents = append(slices.Clone(r.WarEvents), record)
	return r, nil
}

func inTruce(history []WarEvent, empireID string, tick int64, truce int) bool {
	if truce <= 0 {
		return false
	}
	for i := len(history) - 1; i >= 0; i-- {
		ev := history[i]
		if ev.EmpireID == empireID && ev.Kind == PeaceMade {
			return tick-ev.Tick < int64(truce)
		}
	}
	return false
}
