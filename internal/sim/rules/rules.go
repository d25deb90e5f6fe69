// Package rules holds the rejection vocabulary shared by every simulation
// command together with the deterministic id sequence carried by a session.
package rules

import (
	"errors"
	"fmt"
)

// Reason is a closed, machine-readable cause for a rejected command.
type Reason string

const (
	NoSession            Reason = "NO_SESSION"
	SystemNotFound       Reason = "SYSTEM_NOT_FOUND"
	SystemNotSurveyed    Reason = "SYSTEM_NOT_SURVEYED"
	NoHabitableWorld     Reason = "NO_HABITABLE_WORLD"
	AlreadyColonized     Reason = "ALREADY_COLONIZED"
	TaskInProgress       Reason = "TASK_IN_PROGRESS"
	InsufficientResource Reason = "INSUFFICIENT_RESOURCES"

	FleetNotFound   Reason = "FLEET_NOT_FOUND"
	AlreadyInSystem Reason = "ALREADY_IN_SYSTEM"
	NoShips         Reason = "NO_SHIPS"
	SameFleet       Reason = "SAME_FLEET"
	NotCoLocated    Reason = "NOT_CO_LOCATED"
	FleetInTransit  Reason = "FLEET_IN_TRANSIT"
	ShipNotFound    Reason = "SHIP_NOT_FOUND"
	InvalidSplit    Reason = "INVALID_SPLIT"

	InvalidTech      Reason = "INVALID_TECH"
	PrereqNotMet     Reason = "PREREQ_NOT_MET"
	AlreadyCompleted Reason = "ALREADY_COMPLETED"
	BranchMismatch   Reason = "BRANCH_MISMATCH"

	InvalidPerk        Reason = "INVALID_PERK"
	AlreadyUnlocked    Reason = "ALREADY_UNLOCKED"
	InsufficientPoints Reason = "INSUFFICIENT_POINTS"

	InvalidDesign   Reason = "INVALID_DESIGN"
	InvalidTemplate Reason = "INVALID_TEMPLATE"
	TechMissing     Reason = "TECH_MISSING"
	QueueFull       Reason = "QUEUE_FULL"
	NoShipyard      Reason = "NO_SHIPYARD"
	AlreadyBuilt    Reason = "ALREADY_BUILT"
	NoConstructor   Reason = "NO_CONSTRUCTOR"

	ShipBusy Reason = "SHIP_BUSY"

	EmpireNotFound Reason = "EMPIRE_NOT_FOUND"
	InvalidEvent   Reason = "INVALID_EVENT"
	InvalidAction  Reason = "INVALID_ACTION"
	AlreadyAtWar   Reason = "ALREADY_AT_WAR"
	NotAtWar       Reason = "NOT_AT_WAR"

	PlanetNotFound    Reason = "PLANET_NOT_FOUND"
	InvalidDistrict   Reason = "INVALID_DISTRICT"
	NoDistrictSlots   Reason = "NO_DISTRICT_SLOTS"
	BuildNotFound     Reason = "BUILD_NOT_FOUND"
	InvalidJob        Reason = "INVALID_JOB"
	InvalidAssignment Reason = "INVALID_ASSIGNMENT"
	NoFreePopulation  Reason = "NO_FREE_POPULATION"
	NoJobSlots        Reason = "NO_JOB_SLOTS"
)

// Rejection is returned by a command that failed a business rule. The
// session the command was applied to is left untouched.
type Rejection struct {
	Command string
	Reason  Reason
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", r.Command, r.Reason)
}

// Reject builds a rejection for the named command.
func Reject(command string, reason Reason) error {
	return &Rejection{Command: command, Reason: reason}
}

// ReasonOf extracts the rejection reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

// IDs hands out sequential identifiers per prefix ("FLEET-0001", ...).
// The counters live inside the session so replays produce identical ids.
type IDs struct {
	Counters map[string]int `json:"counters"`
}

// Next returns the next id for prefix and advances its counter.
func (ids *IDs) Next(prefix string) string {
	if ids.Counters == nil {
		ids.Counters = make(map[string]int)
	}
	ids.Counters[prefix]++
	return fmt.Sprintf("%s-%04d", prefix, ids.Counters[prefix])
}

func (ids IDs) Clone() IDs {
	out := IDs{Counters: make(map[string]int, len(ids.Counters))}
	for k, v := range ids.Counters {
		out.Counters[k] = v
	}
	return out
}
