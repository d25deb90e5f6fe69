package military

import (
	"slices"

	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/rules"
)

// Empire is a rival power driven from outside the engine. Presence maps a
// system id to the strength it holds there.
type Empire struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	AtWar    bool               `json:"at_war"`
	Presence map[string]float64 `json:"presence,omitempty"`
}

func (e Empire) Clone() Empire {
	presence := make(map[string]float64, len(e.Presence))
	for k, v := range e.Presence {
		presence[k] = v
	}
	e.Presence = presence
	return e
}

func CloneEmpires(empires []Empire) []Empire {
	out := make([]Empire, len(empires))
	for i, e := range empires {
		out[i] = e.Clone()
	}
	return out
}

type EmpireEventKind string

const (
	DeclareWar EmpireEventKind = "declare_war"
	MakePeace  EmpireEventKind = "make_peace"
	Deploy     EmpireEventKind = "deploy"
	Withdraw   EmpireEventKind = "withdraw"
)

// EmpireEvent is an instruction from the rival-empire actor.
type EmpireEvent struct {
	Kind       EmpireEventKind `json:"kind"`
	EmpireID   string          `json:"empire_id"`
	EmpireName string          `json:"empire_name,omitempty"`
	SystemID   string          `json:"system_id,omitempty"`
	Power      float64         `json:"power,omitempty"`
}

type WarEventKind string

const (
	WarDeclared WarEventKind = "war_declared"
	PeaceMade   WarEventKind = "peace_made"
	Deployed    WarEventKind = "deployed"
	Withdrawn   WarEventKind = "withdrawn"
	Battle      WarEventKind = "battle"
)

// WarEvent is an append-only entry of the war history.
type WarEvent struct {
	ID       string       `json:"id"`
	Tick     int64        `json:"tick"`
	Kind     WarEventKind `json:"kind"`
	EmpireID string       `json:"empire_id"`
	SystemID string       `json:"system_id,omitempty"`
	Power    float64      `json:"power,omitempty"`
	Result   Result       `json:"result,omitempty"`
}

// ApplyEmpireEvent folds one rival-empire instruction into the empire set.
// Declaring war introduces an empire the engine has not seen yet.
func ApplyEmpireEvent(g galaxy.Galaxy, empires []Empire, ev EmpireEvent, tick int64, ids *rules.IDs) ([]Empire, WarEvent, error) {
	const command = "apply_empire_event"

	if ev.EmpireID == "" {
		return empires, WarEvent{}, rules.Reject(command, rules.InvalidEvent)
	}
	out := CloneEmpires(empires)
	idx := slices.IndexFunc(out, func(e Empire) bool { return e.ID == ev.EmpireID })

	record := WarEvent{Tick: tick, EmpireID: ev.EmpireID, SystemID: ev.SystemID}
	switch ev.Kind {
	case DeclareWar:
		if idx < 0 {
			name := ev.EmpireName
			if name == "" {
				name = ev.EmpireID
			}
			out = append(out, Empire{ID: ev.EmpireID, Name: name, Presence: map[string]float64{}})
			idx = len(out) - 1
		}
		out[idx].AtWar = true
		record.Kind = WarDeclared
	case MakePeace:
		if idx < 0 {
			return empires, WarEvent{}, rules.Reject(command, rules.EmpireNotFound)
		}
		out[idx].AtWar = false
		record.Kind = PeaceMade
	case Deploy, Withdraw:
		if idx < 0 {
			return empires, WarEvent{}, rules.Reject(command, rules.EmpireNotFound)
		}
		if g.Index(ev.SystemID) < 0 {
			return empires, WarEvent{}, rules.Reject(command, rules.SystemNotFound)
		}
		if ev.Kind == Deploy {
			if ev.Power <= 0 {
				return empires, WarEvent{}, rules.Reject(command, rules.InvalidEvent)
			}
			out[idx].Presence[ev.SystemID] += ev.Power
			record.Kind = Deployed
			record.Power = ev.Power
		} else {
			record.Power = out[idx].Presence[ev.SystemID]
			delete(out[idx].Presence, ev.SystemID)
			record.Kind = Withdrawn
		}
	default:
		return empires, WarEvent{}, rules.Reject(command, rules.InvalidEvent)
	}

	record.ID = ids.Next("WAR")
	return out, record, nil
}
