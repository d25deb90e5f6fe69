package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"planets-engine/internal/sim/galaxy"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.DefaultGalaxy.Seed != "debug-seed" || c.DefaultGalaxy.SystemCount != 18 {
		t.Fatalf("default galaxy = %+v", c.DefaultGalaxy)
	}
	if c.Exploration.TravelTicks != 3 || c.Exploration.SurveyTicks != 2 {
		t.Fatalf("exploration = %+v, want travel 3 survey 2", c.Exploration)
	}
	if c.TickDurationMs() != 1000 {
		t.Fatalf("tick duration = %v, want 1000", c.TickDurationMs())
	}
	if _, ok := c.Districts.District("research-campus"); !ok || len(c.Districts.Jobs) != 4 {
		t.Fatalf("districts = %+v", c.Districts)
	}
	if c.Military.Diplomacy.TruceTicks != 30 {
		t.Fatalf("diplomacy = %+v", c.Military.Diplomacy)
	}
	if len(c.Digest()) != 64 {
		t.Fatalf("digest = %q, want 64 hex chars", c.Digest())
	}
}

func TestDigestIsStable(t *testing.T) {
	a, b := MustDefault(), MustDefault()
	if a.Digest() != b.Digest() {
		t.Fatalf("digests differ: %s vs %s", a.Digest(), b.Digest())
	}

	raw := strings.Replace(string(defaultYAML), "ticks_per_second: 1", "ticks_per_second: 2", 1)
	changed, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if changed.Digest() == a.Digest() {
		t.Fatal("different rules produced the same digest")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
military:
  shipyard:
    home_system_design_id: scout
  ship_designs:
    - id: scout
      name: Scout
      role: military
      attack: 1
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.TicksPerSecond != 1 || c.Military.FleetSpeed != 40 || c.Military.Shipyard.QueueSize != 5 || c.Districts.QueueSize != 5 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.DefaultGalaxy.Shape != galaxy.ShapeCircle || c.DefaultGalaxy.Seed != galaxy.DefaultSeed {
		t.Fatalf("galaxy defaults = %+v", c.DefaultGalaxy)
	}
}

func TestValidateRejectsDanglingReferences(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"home design", `
military:
  shipyard: { home_system_design_id: missing }
`, "home_system_design_id"},
		{"template design", `
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: military }]
  templates: [{ id: t, name: T, design_id: b }]
`, `unknown design "b"`},
		{"design tech", `
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: military, required_tech: warp }]
`, `unknown required tech "warp"`},
		{"role", `
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: pirate }]
`, "unknown role"},
		{"prerequisite", `
research:
  branches: [{ id: physics, name: Physics }]
  techs: [{ id: a, name: A, branch: physics, cost: 1, prerequisites: [b] }]
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: military }]
`, `unknown prerequisite "b"`},
		{"resource", `
economy:
  starting_resources: { unobtainium: 5 }
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: military }]
`, `unknown resource "unobtainium"`},
		{"district job", `
districts:
  districts: [{ id: mining, name: Mining, jobs: { miner: 2 } }]
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: military }]
`, `unknown job "miner"`},
		{"district tech", `
districts:
  districts: [{ id: campus, name: Campus, required_tech: warp }]
military:
  shipyard: { home_system_design_id: a }
  ship_designs: [{ id: a, name: A, role: military }]
`, `unknown required tech "warp"`},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.yaml))
		if err == nil {
			t.Fatalf("%s: Parse succeeded, want error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error = %v, want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	if err := os.WriteFile(path, defaultYAML, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Digest() != MustDefault().Digest() {
		t.Fatal("loaded catalog digest differs from the built-in one")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestShippedConfigMatchesBuiltIn(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs", "game.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Digest() != MustDefault().Digest() {
		t.Fatal("configs/game.yaml has drifted from the built-in rules")
	}
}
