// Package catalog holds the game rules a session runs under: galaxy
// parameters, economy seeds, tech and tradition trees, colonization,
// districts and military data. Catalogs are read from YAML, defaulted, validated and
// digested once, then treated as immutable.
package catalog

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"

	"planets-engine/internal/sim/clock"
	"planets-engine/internal/sim/colonization"
	"planets-engine/internal/sim/district"
	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/military"
	"planets-engine/internal/sim/research"
	"planets-engine/internal/sim/tradition"
)

//go:embed default.yaml
var defaultYAML []byte

type Debug struct {
	AutoStart bool `yaml:"auto_start" json:"auto_start"`
}

// HomePlanet seeds the colony every session starts with.
type HomePlanet struct {
	Name       string          `yaml:"name" json:"name"`
	Kind       string          `yaml:"kind" json:"kind"`
	Size       int             `yaml:"size" json:"size"`
	Population float64         `yaml:"population" json:"population"`
	Production economy.Amounts `yaml:"production" json:"production"`
	Upkeep     economy.Amounts `yaml:"upkeep" json:"upkeep"`
}

type Economy struct {
	StartingResources economy.Amounts `yaml:"starting_resources" json:"starting_resources"`
	HomePlanet        HomePlanet      `yaml:"home_planet" json:"home_planet"`
}

type Catalog struct {
	TicksPerSecond float64                  `yaml:"ticks_per_second" json:"ticks_per_second"`
	DefaultGalaxy  galaxy.Params            `yaml:"default_galaxy" json:"default_galaxy"`
	Debug          Debug                    `yaml:"debug" json:"debug"`
	Generation     galaxy.GenerationConfig  `yaml:"generation" json:"generation"`
	Exploration    galaxy.ExplorationConfig `yaml:"exploration" json:"exploration"`
	Economy        Economy                  `yaml:"economy" json:"economy"`
	Research       research.Config          `yaml:"research" json:"research"`
	Traditions     tradition.Config         `yaml:"traditions" json:"traditions"`
	Colonization   colonization.Config      `yaml:"colonization" json:"colonization"`
	Districts      district.Config          `yaml:"districts" json:"districts"`
	Military       military.Config          `yaml:"military" json:"military"`

	digest string
}

// Load reads a catalog from path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in rule set.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// MustDefault is for tests and tools that cannot continue without rules.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in rules are invalid: %v", err))
	}
	return c
}

// Parse decodes YAML, applies defaults and validates every reference.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	digest, err := computeDigest(&c)
	if err != nil {
		return nil, err
	}
	c.digest = digest
	return &c, nil
}

// Digest identifies the rule set; equal catalogs share a digest.
func (c *Catalog) Digest() string {
	return c.digest
}

// TickDurationMs is the length of one tick at normal speed.
func (c *Catalog) TickDurationMs() float64 {
	return clock.TickDurationMs(c.TicksPerSecond)
}

func (c *Catalog) applyDefaults() {
	if c.TicksPerSecond <= 0 {
		c.TicksPerSecond = 1
	}
	c.DefaultGalaxy = c.DefaultGalaxy.WithDefaults()
	if c.Exploration.TravelTicks <= 0 {
		c.Exploration.TravelTicks = 3
	}
	if c.Exploration.SurveyTicks <= 0 {
		c.Exploration.SurveyTicks = 2
	}
	if c.Colonization.DurationTicks <= 0 {
		c.Colonization.DurationTicks = 1
	}
	if c.Military.FleetSpeed <= 0 {
		c.Military.FleetSpeed = 40
	}
	if c.Military.Shipyard.QueueSize <= 0 {
		c.Military.Shipyard.QueueSize = 5
	}
	if c.Districts.QueueSize <= 0 {
		c.Districts.QueueSize = 5
	}
	if c.Economy.HomePlanet.Name == "" {
		c.Economy.HomePlanet.Name = "Homeworld"
	}
}

// Validate reports every dangling reference and malformed entry at once.
func (c *Catalog) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	checkAmounts := func(where string, a economy.Amounts) {
		for r, v := range a {
			if !r.IsValid() {
				fail("%s: unknown resource %q", where, r)
			}
			if v < 0 {
				fail("%s: negative amount for %s", where, r)
			}
		}
	}
	checkAmounts("economy.starting_resources", c.Economy.StartingResources)
	checkAmounts("economy.home_planet.production", c.Economy.HomePlanet.Production)
	checkAmounts("economy.home_planet.upkeep", c.Economy.HomePlanet.Upkeep)
	checkAmounts("colonization.cost", c.Colonization.Cost)
	checkAmounts("military.shipyard.build_cost", c.Military.Shipyard.BuildCost)
	checkAmounts("military.diplomacy.peace_cost", c.Military.Diplomacy.PeaceCost)

	for _, k := range c.Generation.WorldKinds {
		if k.Weight < 0 || k.MaxSize < k.MinSize {
			fail("generation.world_kinds %q: invalid weight or size range", k.Kind)
		}
	}

	branches := map[string]bool{}
	for _, b := range c.Research.Branches {
		if branches[b.ID] {
			fail("research.branches: duplicate id %q", b.ID)
		}
		branches[b.ID] = true
	}
	techs := map[string]research.Tech{}
	for _, t := range c.Research.Techs {
		if _, dup := techs[t.ID]; dup {
			fail("research.techs: duplicate id %q", t.ID)
		}
		techs[t.ID] = t
		if !branches[t.Branch] {
			fail("research.techs %q: unknown branch %q", t.ID, t.Branch)
		}
		if t.Cost <= 0 {
			fail("research.techs %q: cost must be positive", t.ID)
		}
		checkAmounts("research.techs "+t.ID, t.Production)
	}
	for _, t := range c.Research.Techs {
		for _, p := range t.Prerequisites {
			pre, ok := techs[p]
			if !ok {
				fail("research.techs %q: unknown prerequisite %q", t.ID, p)
				continue
			}
			if pre.Branch != t.Branch {
				fail("research.techs %q: prerequisite %q is in another branch", t.ID, p)
			}
		}
	}
	for _, e := range c.Research.Eras {
		for _, g := range e.GatewayTechs {
			if _, ok := techs[g]; !ok {
				fail("research.eras %d: unknown gateway tech %q", e.ID, g)
			}
		}
	}

	perks := map[string]bool{}
	for _, p := range c.Traditions.Perks {
		if perks[p.ID] {
			fail("traditions.perks: duplicate id %q", p.ID)
		}
		perks[p.ID] = true
		checkAmounts("traditions.perks "+p.ID, p.Production)
	}
	for _, p := range c.Traditions.Perks {
		for _, pre := range p.Prerequisites {
			if !perks[pre] {
				fail("traditions.perks %q: unknown prerequisite %q", p.ID, pre)
			}
		}
	}

	designs := map[string]bool{}
	for _, d := range c.Military.ShipDesigns {
		if designs[d.ID] {
			fail("military.ship_designs: duplicate id %q", d.ID)
		}
		designs[d.ID] = true
		if !d.Role.IsValid() {
			fail("military.ship_designs %q: unknown role %q", d.ID, d.Role)
		}
		if d.RequiredTech != "" {
			if _, ok := techs[d.RequiredTech]; !ok {
				fail("military.ship_designs %q: unknown required tech %q", d.ID, d.RequiredTech)
			}
		}
		checkAmounts("military.ship_designs "+d.ID+" cost", d.Cost)
		checkAmounts("military.ship_designs "+d.ID+" upkeep", d.Upkeep)
	}
	for _, t := range c.Military.Templates {
		if !designs[t.DesignID] {
			fail("military.templates %q: unknown design %q", t.ID, t.DesignID)
		}
	}
	if !designs[c.Military.Shipyard.HomeSystemDesignID] {
		fail("military.shipyard.home_system_design_id: unknown design %q", c.Military.Shipyard.HomeSystemDesignID)
	}
	if req := c.Military.Shipyard.RequiredTech; req != "" {
		if _, ok := techs[req]; !ok {
			fail("military.shipyard.required_tech: unknown tech %q", req)
		}
	}

	jobs := map[string]bool{}
	for _, j := range c.Districts.Jobs {
		if jobs[j.ID] {
			fail("districts.jobs: duplicate id %q", j.ID)
		}
		jobs[j.ID] = true
		checkAmounts("districts.jobs "+j.ID+" production", j.Production)
		checkAmounts("districts.jobs "+j.ID+" upkeep", j.Upkeep)
	}
	districts := map[string]bool{}
	for _, d := range c.Districts.Districts {
		if districts[d.ID] {
			fail("districts.districts: duplicate id %q", d.ID)
		}
		districts[d.ID] = true
		for job, slots := range d.Jobs {
			if !jobs[job] {
				fail("districts.districts %q: unknown job %q", d.ID, job)
			}
			if slots < 0 {
				fail("districts.districts %q: negative slots for %q", d.ID, job)
			}
		}
		if d.RequiredTech != "" {
			if _, ok := techs[d.RequiredTech]; !ok {
				fail("districts.districts %q: unknown required tech %q", d.ID, d.RequiredTech)
			}
		}
		checkAmounts("districts.districts "+d.ID+" cost", d.Cost)
		checkAmounts("districts.districts "+d.ID+" production", d.Production)
		checkAmounts("districts.districts "+d.ID+" upkeep", d.Upkeep)
	}

	return errors.Join(errs...)
}

func computeDigest(c *Catalog) (string, error) {
	// encoding/json sorts map keys, so equal catalogs encode identically.
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
