// Package district builds districts on colonized planets and staffs the
// jobs they open with each planet's population.
package district

import (
	"maps"
	"math"
	"slices"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/rules"
)

// Definition is a buildable district. Jobs maps a job id to the slots one
// district of this kind opens.
type Definition struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	Cost         economy.Amounts `yaml:"cost" json:"cost"`
	BuildTicks   int             `yaml:"build_ticks" json:"build_ticks"`
	Production   economy.Amounts `yaml:"production" json:"production,omitempty"`
	Upkeep       economy.Amounts `yaml:"upkeep" json:"upkeep,omitempty"`
	Jobs         map[string]int  `yaml:"jobs" json:"jobs,omitempty"`
	RequiredTech string          `yaml:"required_tech" json:"required_tech,omitempty"`
}

// Job yields are per assigned pop.
type Job struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	Production economy.Amounts `yaml:"production" json:"production,omitempty"`
	Upkeep     economy.Amounts `yaml:"upkeep" json:"upkeep,omitempty"`
}

type Config struct {
	// QueueSize bounds the pending builds of a single planet.
	QueueSize int          `yaml:"queue_size" json:"queue_size"`
	Districts []Definition `yaml:"districts" json:"districts"`
	Jobs      []Job        `yaml:"jobs" json:"jobs"`
}

func (c Config) District(id string) (Definition, bool) {
	for _, d := range c.Districts {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

func (c Config) Job(id string) (Job, bool) {
	for _, j := range c.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}

// QueueEntry is one district under construction. Each planet progresses
// only its first entry in queue order.
type QueueEntry struct {
	ID             string          `json:"id"`
	PlanetID       string          `json:"planet_id"`
	DistrictID     string          `json:"district_id"`
	Cost           economy.Amounts `json:"cost"`
	TicksRemaining int             `json:"ticks_remaining"`
	TotalTicks     int             `json:"total_ticks"`
}

// Works is the district slice of a session.
type Works struct {
	Planets []economy.Planet
	Queue   []QueueEntry
	Ledger  economy.Ledger
}

type TechCheck func(techID string) bool

func (w Works) planet(id string) int {
	return slices.IndexFunc(w.Planets, func(p economy.Planet) bool { return p.ID == id })
}

// Built counts the finished districts of a planet.
func Built(p economy.Planet) int {
	n := 0
	for _, c := range p.Districts {
		n += c
	}
	return n
}

func queued(queue []QueueEntry, planetID string) int {
	n := 0
	for _, q := range queue {
		if q.PlanetID == planetID {
			n++
		}
	}
	return n
}

// Queue validates an order and appends it to the build queue. Checks run in
// order: planet, district, required tech, free planet size, queue room,
// affordability.
func Queue(w Works, cfg Config, planetID, districtID string, hasTech TechCheck, ids *rules.IDs) (Works, error) {
	const command = "queue_district_build"

	idx := w.planet(planetID)
	if idx < 0 {
		return w, rules.Reject(command, rules.PlanetNotFound)
	}
	def, ok := cfg.District(districtID)
	if !ok {
		return w, rules.Reject(command, rules.InvalidDistrict)
	}
	if def.RequiredTech != "" && !hasTech(def.RequiredTech) {
		return w, rules.Reject(command, rules.TechMissing)
	}
	pending := queued(w.Queue, planetID)
	if Built(w.Planets[idx])+pending >= w.Planets[idx].Size {
		return w, rules.Reject(command, rules.NoDistrictSlots)
	}
	if cfg.QueueSize > 0 && pending >= cfg.QueueSize {
		return w, rules.Reject(command, rules.QueueFull)
	}
	if !w.Ledger.CanAfford(def.Cost) {
		return w, rules.Reject(command, rules.InsufficientResource)
	}

	ticks := max(1, def.BuildTicks)
	w.Ledger = w.Ledger.Spend(def.Cost)
	w.Queue = append(slices.Clone(w.Queue), QueueEntry{
		ID:             ids.Next("DISTRICT"),
		PlanetID:       planetID,
		DistrictID:     def.ID,
		Cost:           def.Cost.Clone(),
		TicksRemaining: ticks,
		TotalTicks:     ticks,
	})
	return w, nil
}

// Cancel removes a queued build and refunds its full cost.
func Cancel(w Works, entryID string) (Works, error) {
	i := slices.IndexFunc(w.Queue, func(q QueueEntry) bool { return q.ID == entryID })
	if i < 0 {
		return w, rules.Reject("cancel_district_build", rules.BuildNotFound)
	}
	w.Ledger = w.Ledger.Credit(w.Queue[i].Cost)
	w.Queue = slices.Delete(slices.Clone(w.Queue), i, i+1)
	return w, nil
}

// Prioritize moves a build ahead of every other build of its planet. The
// entry that was progressing keeps its remaining ticks.
func Prioritize(w Works, entryID string) (Works, error) {
	i := slices.IndexFunc(w.Queue, func(q QueueEntry) bool { return q.ID == entryID })
	if i < 0 {
		return w, rules.Reject("prioritize_district_build", rules.BuildNotFound)
	}
	entry := w.Queue[i]
	head := slices.IndexFunc(w.Queue, func(q QueueEntry) bool { return q.PlanetID == entry.PlanetID })
	if head == i {
		return w, nil
	}
	queue := slices.Delete(slices.Clone(w.Queue), i, i+1)
	w.Queue = slices.Insert(queue, head, entry)
	return w, nil
}

// Advance progresses the first queued build of every planet. Finished
// builds are added to their planet and returned. Builds whose planet or
// definition vanished are dropped without a refund.
func Advance(w Works, cfg Config) (Works, []QueueEntry) {
	if len(w.Queue) == 0 {
		return w, nil
	}

	planets := slices.Clone(w.Planets)
	queue := make([]QueueEntry, 0, len(w.Queue))
	seen := make(map[string]bool)
	var done []QueueEntry

	for _, q := range w.Queue {
		idx := slices.IndexFunc(planets, func(p economy.Planet) bool { return p.ID == q.PlanetID })
		if idx < 0 {
			continue
		}
		if _, ok := cfg.District(q.DistrictID); !ok {
			continue
		}
		if seen[q.PlanetID] {
			queue = append(queue, q)
			continue
		}
		seen[q.PlanetID] = true

		q.TicksRemaining--
		if q.TicksRemaining > 0 {
			queue = append(queue, q)
			continue
		}
		p := planets[idx].Clone()
		if p.Districts == nil {
			p.Districts = make(map[string]int)
		}
		p.Districts[q.DistrictID]++
		planets[idx] = p
		done = append(done, q)
	}

	w.Planets = planets
	w.Queue = queue
	return w, done
}

// Workforce is the number of whole pops a planet can put to work.
func Workforce(p economy.Planet) int {
	if p.Population <= 0 {
		return 0
	}
	return int(math.Floor(p.Population))
}

// Employed counts the pops assigned to any job.
func Employed(p economy.Planet) int {
	n := 0
	for _, c := range p.Jobs {
		n += c
	}
	return n
}

// Slots is the number of jobID positions the planet's districts open.
func Slots(p economy.Planet, cfg Config, jobID string) int {
	n := 0
	for id, count := range p.Districts {
		if def, ok := cfg.District(id); ok {
			n += count * def.Jobs[jobID]
		}
	}
	return n
}

// AssignJobs moves delta pops into jobID, or out of it when delta is
// negative. Checks run in order: planet, job, delta, free pops, free slots.
func AssignJobs(w Works, cfg Config, planetID, jobID string, delta int) (Works, error) {
	const command = "adjust_population"

	idx := w.planet(planetID)
	if idx < 0 {
		return w, rules.Reject(command, rules.PlanetNotFound)
	}
	if _, ok := cfg.Job(jobID); !ok {
		return w, rules.Reject(command, rules.InvalidJob)
	}
	p := w.Planets[idx]
	next := p.Jobs[jobID] + delta
	if delta == 0 || next < 0 {
		return w, rules.Reject(command, rules.InvalidAssignment)
	}
	if delta > 0 {
		if Employed(p)+delta > Workforce(p) {
			return w, rules.Reject(command, rules.NoFreePopulation)
		}
		if next > Slots(p, cfg, jobID) {
			return w, rules.Reject(command, rules.NoJobSlots)
		}
	}

	p = p.Clone()
	if p.Jobs == nil {
		p.Jobs = make(map[string]int)
	}
	if next == 0 {
		delete(p.Jobs, jobID)
	} else {
		p.Jobs[jobID] = next
	}
	w.Planets = slices.Clone(w.Planets)
	w.Planets[idx] = p
	return w, nil
}

// Effective returns the planet with district and job yields folded into
// its production and upkeep. Workers beyond the open slots yield nothing.
func Effective(p economy.Planet, cfg Config) economy.Planet {
	out := p.Clone()
	if len(p.Districts) == 0 && len(p.Jobs) == 0 {
		return out
	}
	// Sorted ids keep the float sums identical across replays.
	prod := economy.Amounts{}.Add(p.Production)
	upkeep := economy.Amounts{}.Add(p.Upkeep)
	for _, id := range slices.Sorted(maps.Keys(p.Districts)) {
		count := p.Districts[id]
		def, ok := cfg.District(id)
		if !ok || count <= 0 {
			continue
		}
		prod.Add(def.Production.Scale(float64(count)))
		upkeep.Add(def.Upkeep.Scale(float64(count)))
	}
	for _, id := range slices.Sorted(maps.Keys(p.Jobs)) {
		job, ok := cfg.Job(id)
		if !ok {
			continue
		}
		n := min(p.Jobs[id], Slots(p, cfg, id))
		if n <= 0 {
			continue
		}
		prod.Add(job.Production.Scale(float64(n)))
		upkeep.Add(job.Upkeep.Scale(float64(n)))
	}
	out.Production, out.Upkeep = prod, upkeep
	return out
}
