package economy

import (
	"fmt"
	"math"
)

type Resource string

const (
	Energy    Resource = "energy"
	Minerals  Resource = "minerals"
	Food      Resource = "food"
	Research  Resource = "research"
	Influence Resource = "influence"
)

// Resources lists every resource in ledger order.
var Resources = []Resource{Energy, Minerals, Food, Research, Influence}

func (r Resource) IsValid() bool {
	for _, known := range Resources {
		if r == known {
			return true
		}
	}
	return false
}

// Amounts is a sparse per-resource quantity, used for costs and rates.
type Amounts map[Resource]float64

func (a Amounts) Clone() Amounts {
	if a == nil {
		return nil
	}
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Scale returns a copy with every entry multiplied by factor.
func (a Amounts) Scale(factor float64) Amounts {
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v * factor
	}
	return out
}

// Add accumulates other into a, allocating a if needed.
func (a Amounts) Add(other Amounts) Amounts {
	if a == nil {
		a = make(Amounts, len(other))
	}
	for k, v := range other {
		a[k] += v
	}
	return a
}

// Entry is the ledger line for a single resource.
type Entry struct {
	Amount float64 `json:"amount"`
	Income float64 `json:"income"`
	Upkeep float64 `json:"upkeep"`
}

// Net is the per-tick change before the zero floor is applied.
func (e Entry) Net() float64 {
	return e.Income - e.Upkeep
}

// Ledger holds stock and this tick's rates for every resource.
type Ledger map[Resource]Entry

// NewLedger seeds a ledger with a line for every resource.
func NewLedger(starting Amounts) Ledger {
	l := make(Ledger, len(Resources))
	for _, r := range Resources {
		l[r] = Entry{Amount: starting[r]}
	}
	return l
}

func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func (l Ledger) Amount(r Resource) float64 {
	return l[r].Amount
}

// CanAfford is false iff some requested resource has a smaller stock.
func (l Ledger) CanAfford(cost Amounts) bool {
	for r, want := range cost {
		if want <= 0 {
			continue
		}
		if l[r].Amount < want {
			return false
		}
	}
	return true
}

// Spend debits cost all-or-nothing and returns the new ledger. Spending an
// unaffordable cost is a caller bug, so it panics instead of going negative.
func (l Ledger) Spend(cost Amounts) Ledger {
	if !l.CanAfford(cost) {
		panic(fmt.Sprintf("economy: spend of unaffordable cost %v", cost))
	}
	out := l.Clone()
	for r, want := range cost {
		if want <= 0 {
			continue
		}
		e := out[r]
		e.Amount -= want
		out[r] = e
	}
	return out
}

// Credit returns amounts to stock, used for refunds.
func (l Ledger) Credit(amounts Amounts) Ledger {
	out := l.Clone()
	for r, v := range amounts {
		if v <= 0 {
			continue
		}
		e := out[r]
		e.Amount += v
		out[r] = e
	}
	return out
}

// Rates is the breakdown used to recompute income and upkeep each tick.
type Rates struct {
	Income Amounts
	Upkeep Amounts
}

// Recompute replaces every line's income and upkeep with the totals from
// owned planets plus flat empire-wide rates. Stock is not touched.
func Recompute(l Ledger, planets []Planet, extra Rates) Ledger {
	income := Amounts{}.Add(extra.Income)
	upkeep := Amounts{}.Add(extra.Upkeep)
	for _, p := range planets {
		income.Add(p.Production)
		upkeep.Add(p.Upkeep)
	}

	out := l.Clone()
	for _, r := range Resources {
		e := out[r]
		e.Income = income[r]
		e.Upkeep = upkeep[r]
		out[r] = e
	}
	return out
}

// Accrue applies one tick of income minus upkeep, flooring stock at zero.
func Accrue(l Ledger) Ledger {
	out := l.Clone()
	for r, e := range out {
		e.Amount = math.Max(0, e.Amount+e.Net())
		out[r] = e
	}
	return out
}

// Planet is a colonized world. Its system binding never changes.
// Production and Upkeep are the world's own yields; Districts counts what
// has been built on it and Jobs how many pops work each job.
type Planet struct {
	ID         string         `json:"id"`
	SystemID   string         `json:"system_id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Size       int            `json:"size"`
	Population float64        `json:"population"`
	Production Amounts        `json:"production"`
	Upkeep     Amounts        `json:"upkeep"`
	Districts  map[string]int `json:"districts,omitempty"`
	Jobs       map[string]int `json:"jobs,omitempty"`
}

func (p Planet) Clone() Planet {
	p.Production = p.Production.Clone()
	p.Upkeep = p.Upkeep.Clone()
	p.Districts = cloneCounts(p.Districts)
	p.Jobs = cloneCounts(p.Jobs)
	return p
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PlanetIn returns the planet bound to systemID, if any.
func PlanetIn(planets []Planet, systemID string) (Planet, bool) {
	for _, p := range planets {
		if p.SystemID == systemID {
			return p, true
		}
	}
	return Planet{}, false
}
