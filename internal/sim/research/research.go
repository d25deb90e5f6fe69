// Package research runs the per-branch technology tree: era gates,
// prerequisite graphs, exclusive groups and offer ranking.
package research

import (
	"slices"
	"sort"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/rules"
)

type Kind string

const (
	Foundation Kind = "foundation"
	Feature    Kind = "feature"
	Rare       Kind = "rare"
)

func (k Kind) score() float64 {
	switch k {
	case Foundation:
		return 2
	case Feature:
		return 1
	case Rare:
		return 0.5
	default:
		return 1
	}
}

type Tech struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Branch         string          `yaml:"branch" json:"branch"`
	Era            int             `yaml:"era" json:"era"`
	Kind           Kind            `yaml:"kind" json:"kind"`
	Cost           float64         `yaml:"cost" json:"cost"`
	Prerequisites  []string        `yaml:"prerequisites" json:"prerequisites,omitempty"`
	ExclusiveGroup string          `yaml:"exclusive_group" json:"exclusive_group,omitempty"`
	Production     economy.Amounts `yaml:"production" json:"production,omitempty"`
}

// EraOf treats an unset era as the first one.
func (t Tech) EraOf() int {
	if t.Era <= 0 {
		return 1
	}
	return t.Era
}

type Era struct {
	ID           int      `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	GatewayTechs []string `yaml:"gateway_techs" json:"gateway_techs,omitempty"`
}

type Branch struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Config struct {
	Branches                []Branch `yaml:"branches" json:"branches"`
	Eras                    []Era    `yaml:"eras" json:"eras"`
	Techs                   []Tech   `yaml:"techs" json:"techs"`
	PointsPerResearchIncome float64  `yaml:"points_per_research_income" json:"points_per_research_income"`
}

func (c Config) Tech(id string) (Tech, bool) {
	for _, t := range c.Techs {
		if t.ID == id {
			return t, true
		}
	}
	return Tech{}, false
}

type BranchState struct {
	CurrentTechID string   `json:"current_tech_id,omitempty"`
	Progress      float64  `json:"progress"`
	Completed     []string `json:"completed"`
}

type State struct {
	Branches       map[string]BranchState `json:"branches"`
	Backlog        []string               `json:"backlog"`
	CurrentEra     int                    `json:"current_era"`
	UnlockedEras   []int                  `json:"unlocked_eras"`
	ExclusivePicks map[string]string      `json:"exclusive_picks"`
}

// NewState opens the first era and lists every tech in the backlog.
func NewState(cfg Config) State {
	s := State{
		Branches:       make(map[string]BranchState, len(cfg.Branches)),
		ExclusivePicks: map[string]string{},
		CurrentEra:     1,
		UnlockedEras:   []int{1},
	}
	for _, b := range cfg.Branches {
		s.Branches[b.ID] = BranchState{Completed: []string{}}
	}
	for _, t := range cfg.Techs {
		s.Backlog = append(s.Backlog, t.ID)
	}
	if len(cfg.Eras) > 0 {
		first := slices.MinFunc(cfg.Eras, func(a, b Era) int { return a.ID - b.ID })
		s.CurrentEra = first.ID
		s.UnlockedEras = []int{first.ID}
	}
	return computeEraUnlocks(s, cfg)
}

func (s State) Clone() State {
	out := State{
		Branches:       make(map[string]BranchState, len(s.Branches)),
		Backlog:        slices.Clone(s.Backlog),
		CurrentEra:     s.CurrentEra,
		UnlockedEras:   slices.Clone(s.UnlockedEras),
		ExclusivePicks: make(map[string]string, len(s.ExclusivePicks)),
	}
	for k, b := range s.Branches {
		b.Completed = slices.Clone(b.Completed)
		out.Branches[k] = b
	}
	for k, v := range s.ExclusivePicks {
		out.ExclusivePicks[k] = v
	}
	return out
}

// IsCompleted reports whether techID is completed in any branch.
func (s State) IsCompleted(techID string) bool {
	for _, b := range s.Branches {
		if slices.Contains(b.Completed, techID) {
			return true
		}
	}
	return false
}

func (s State) lockedOut(t Tech) bool {
	if t.ExclusiveGroup == "" {
		return false
	}
	pick, ok := s.ExclusivePicks[t.ExclusiveGroup]
	return ok && pick != t.ID
}

// Start makes techID the current research of branch. Checks run in a fixed
// order so the first failing rule decides the reason.
func Start(s State, cfg Config, branch, techID string) (State, error) {
	const command = "begin_research"

	tech, ok := cfg.Tech(techID)
	if !ok {
		return s, rules.Reject(command, rules.InvalidTech)
	}
	if tech.Branch != branch {
		return s, rules.Reject(command, rules.BranchMismatch)
	}
	if tech.EraOf() > s.CurrentEra {
		return s, rules.Reject(command, rules.PrereqNotMet)
	}
	bs, ok := s.Branches[branch]
	if !ok {
		return s, rules.Reject(command, rules.BranchMismatch)
	}
	if slices.Contains(bs.Completed, techID) {
		return s, rules.Reject(command, rules.AlreadyCompleted)
	}
	for _, pre := range tech.Prerequisites {
		if !slices.Contains(bs.Completed, pre) {
			return s, rules.Reject(command, rules.PrereqNotMet)
		}
	}
	if s.lockedOut(tech) {
		return s, rules.Reject(command, rules.PrereqNotMet)
	}

	out := s.Clone()
	bs = out.Branches[branch]
	bs.CurrentTechID = techID
	bs.Progress = 0
	out.Branches[branch] = bs
	return out, nil
}

// Advance spends one tick of research income. Each branch with an active
// tech receives an equal share; finished techs move to completed and lock
// their exclusive group. Returns the completed techs in branch order.
func Advance(s State, cfg Config, researchIncome float64) (State, []Tech) {
	if researchIncome <= 0 || len(cfg.Branches) == 0 {
		return s, nil
	}
	perBranch := researchIncome * cfg.PointsPerResearchIncome / float64(len(cfg.Branches))

	out := s.Clone()
	var completed []Tech
	for _, b := range cfg.Branches {
		bs, ok := out.Branches[b.ID]
		if !ok || bs.CurrentTechID == "" {
			continue
		}
		tech, ok := cfg.Tech(bs.CurrentTechID)
		if !ok {
			// stale id from an older catalog
			bs.CurrentTechID = ""
			bs.Progress = 0
			out.Branches[b.ID] = bs
			continue
		}

		bs.Progress += perBranch
		if bs.Progress >= tech.Cost {
			if tech.ExclusiveGroup != "" {
				if _, picked := out.ExclusivePicks[tech.ExclusiveGroup]; !picked {
					out.ExclusivePicks[tech.ExclusiveGroup] = tech.ID
				}
			}
			bs.CurrentTechID = ""
			bs.Progress = 0
			bs.Completed = append(bs.Completed, tech.ID)
			out.Backlog = slices.DeleteFunc(out.Backlog, func(id string) bool { return id == tech.ID })
			completed = append(completed, tech)
		}
		out.Branches[b.ID] = bs
	}

	return computeEraUnlocks(out, cfg), completed
}

func computeEraUnlocks(s State, cfg Config) State {
	done := make(map[string]bool)
	for _, b := range s.Branches {
		for _, id := range b.Completed {
			done[id] = true
		}
	}

	eras := slices.Clone(cfg.Eras)
	sort.Slice(eras, func(i, j int) bool { return eras[i].ID < eras[j].ID })
	for _, era := range eras {
		if slices.Contains(s.UnlockedEras, era.ID) {
			continue
		}
		open := true
		for _, id := range era.GatewayTechs {
			if !done[id] {
				open = false
				break
			}
		}
		if open {
			s.UnlockedEras = append(s.UnlockedEras, era.ID)
		}
	}
	slices.Sort(s.UnlockedEras)
	if len(s.UnlockedEras) > 0 {
		s.CurrentEra = s.UnlockedEras[len(s.UnlockedEras)-1]
	}
	return s
}

// Available lists the techs of branch that could be started right now, in
// catalog order.
func Available(s State, cfg Config, branch string) []Tech {
	bs := s.Branches[branch]
	var out []Tech
	for _, t := range cfg.Techs {
		if t.Branch != branch || t.EraOf() > s.CurrentEra {
			continue
		}
		if slices.Contains(bs.Completed, t.ID) || s.lockedOut(t) {
			continue
		}
		met := true
		for _, pre := range t.Prerequisites {
			if !slices.Contains(bs.Completed, pre) {
				met = false
				break
			}
		}
		if met {
			out = append(out, t)
		}
	}
	return out
}

// Offers picks up to count techs for branch: one feature first, then
// foundations, then features, then rares, then whatever is left, keeping
// catalog order within each kind.
func Offers(s State, cfg Config, branch string, count int) []Tech {
	available := Available(s, cfg, branch)
	if len(available) <= count {
		return available
	}

	pool := slices.Clone(available)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Kind.score() > pool[j].Kind.score() })

	byKind := func(k Kind) []Tech {
		var out []Tech
		for _, t := range pool {
			if t.Kind == k {
				out = append(out, t)
			}
		}
		return out
	}
	foundations, features, rares := byKind(Foundation), byKind(Feature), byKind(Rare)

	picks := make([]Tech, 0, count)
	picked := make(map[string]bool)
	take := func(src *[]Tech) {
		for len(picks) < count && len(*src) > 0 {
			t := (*src)[0]
			*src = (*src)[1:]
			if picked[t.ID] {
				continue
			}
			picked[t.ID] = true
			picks = append(picks, t)
		}
	}

	if len(features) > 0 {
		one := features[:1]
		features = features[1:]
		take(&one)
	}
	take(&foundations)
	take(&features)
	take(&rares)
	take(&pool)
	return picks
}

// Bonuses sums the flat production of every completed tech.
func Bonuses(s State, cfg Config) economy.Amounts {
	total := economy.Amounts{}
	for _, b := range cfg.Branches {
		for _, id := range s.Branches[b.ID].Completed {
			if t, ok := cfg.Tech(id); ok {
				total.Add(t.Production)
			}
		}
	}
	return total
}
