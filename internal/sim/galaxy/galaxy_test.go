package galaxy

import (
	"reflect"
	"testing"

	"planets-engine/internal/sim/economy"
	"planets-engine/internal/sim/rules"
)

func testGenerationConfig() GenerationConfig {
	return GenerationConfig{
		HabitableChance: 0.45,
		HostileChance:   0.35,
		HostileMin:      6,
		HostileSpread:   10,
		WorldKinds: []WorldKind{
			{Kind: "terrestrial", Weight: 40, MinSize: 12, MaxSize: 20,
				Production: economy.Amounts{economy.Food: 4, economy.Energy: 2, economy.Minerals: 2},
				Upkeep:     economy.Amounts{economy.Food: 2}},
			{Kind: "desert", Weight: 30, MinSize: 12, MaxSize: 20,
				Production: economy.Amounts{economy.Minerals: 4, economy.Energy: 3},
				Upkeep:     economy.Amounts{economy.Food: 3}},
		},
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := NewProcedural(testGenerationConfig())
	a := gen.Generate(Params{Seed: "debug-seed"})
	b := gen.Generate(Params{Seed: "debug-seed"})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different galaxies")
	}

	c := gen.Generate(Params{Seed: "other-seed"})
	if reflect.DeepEqual(a.Systems, c.Systems) {
		t.Fatalf("different seeds produced identical galaxies")
	}
}

func TestGenerateDefaultsAndHome(t *testing.T) {
	g := NewProcedural(testGenerationConfig()).Generate(Params{})
	if len(g.Systems) != DefaultSystemCount {
		t.Fatalf("systems = %d, want %d", len(g.Systems), DefaultSystemCount)
	}
	home := g.Systems[0]
	if home.ID != "SYS-001" || home.Visibility != Surveyed || home.HostilePower != 0 {
		t.Fatalf("home system = %+v", home)
	}
	for _, s := range g.Systems[1:] {
		if s.Visibility != Unknown {
			t.Fatalf("system %s visibility = %s, want unknown", s.ID, s.Visibility)
		}
		if hw := s.HabitableWorld; hw != nil && (hw.Size < 12 || hw.Size > 20) {
			t.Fatalf("system %s world size = %d", s.ID, hw.Size)
		}
	}
}

func TestEveryShapeStaysWithinBounds(t *testing.T) {
	gen := NewProcedural(testGenerationConfig())
	for _, shape := range []Shape{ShapeCircle, ShapeRing, ShapeSpiral, ShapeEllipse, ShapeBar, ShapeCluster} {
		g := gen.Generate(Params{Seed: "bounds", SystemCount: 40, Radius: 100, Shape: shape})
		for _, s := range g.Systems {
			if d := s.Position.DistanceTo(Vec3{}); d > 101 {
				t.Fatalf("%s: system %s at distance %v", shape, s.ID, d)
			}
		}
	}
}

func TestVisibilityNeverDowngrades(t *testing.T) {
	if got := Surveyed.Raise(Revealed); got != Surveyed {
		t.Fatalf("Surveyed.Raise(Revealed) = %s", got)
	}
	if got := Unknown.Raise(Revealed); got != Revealed {
		t.Fatalf("Unknown.Raise(Revealed) = %s", got)
	}
}

func TestScienceShipTravelsThenSurveys(t *testing.T) {
	g := NewProcedural(testGenerationConfig()).Generate(Params{Seed: "debug-seed"})
	cfg := ExplorationConfig{TravelTicks: 3, SurveyTicks: 2}
	var ids rules.IDs
	ships := InitialScienceShips(g.Systems[0].ID, ExplorationConfig{InitialScienceShips: 1}, &ids)

	target := g.Systems[5].ID
	ships, err := OrderScienceShip(g, ships, ships[0].ID, target, cfg)
	if err != nil {
		t.Fatalf("OrderScienceShip: %v", err)
	}

	prev := g
	for tick := 1; tick <= 5; tick++ {
		g, ships = AdvanceExploration(g, ships, cfg)
		for i, s := range g.Systems {
			if !s.Visibility.AtLeast(prev.Systems[i].Visibility) {
				t.Fatalf("tick %d: %s visibility went %s -> %s", tick, s.ID, prev.Systems[i].Visibility, s.Visibility)
			}
		}
		prev = g
		if tick == 3 {
			if ships[0].Status != ShipSurveying {
				t.Fatalf("tick 3 status = %s, want surveying", ships[0].Status)
			}
			if sys, _ := g.System(target); sys.Visibility != Revealed {
				t.Fatalf("tick 3 visibility = %s, want revealed", sys.Visibility)
			}
		}
	}

	if ships[0].Status != ShipIdle || ships[0].TargetSystemID != "" {
		t.Fatalf("ship = %+v, want idle without target", ships[0])
	}
	if sys, _ := g.System(target); sys.Visibility != Surveyed {
		t.Fatalf("target visibility = %s, want surveyed", sys.Visibility)
	}
	if ships[0].SystemID != target {
		t.Fatalf("ship system = %s, want %s", ships[0].SystemID, target)
	}
}

func TestOrderScienceShipRejections(t *testing.T) {
	g := NewProcedural(testGenerationConfig()).Generate(Params{})
	cfg := ExplorationConfig{TravelTicks: 3, SurveyTicks: 2}
	var ids rules.IDs
	ships := InitialScienceShips(g.Systems[0].ID, ExplorationConfig{InitialScienceShips: 1}, &ids)

	cases := []struct {
		ship, system string
		want         rules.Reason
	}{
		{"SCI-9999", g.Systems[1].ID, rules.ShipNotFound},
		{ships[0].ID, "SYS-999", rules.SystemNotFound},
		{ships[0].ID, g.Systems[0].ID, rules.AlreadyInSystem},
	}
	for _, tc := range cases {
		_, err := OrderScienceShip(g, ships, tc.ship, tc.system, cfg)
		if got, _ := rules.ReasonOf(err); got != tc.want {
			t.Fatalf("order(%s, %s) reason = %q, want %q", tc.ship, tc.system, got, tc.want)
		}
	}

	busy, _ := OrderScienceShip(g, ships, ships[0].ID, g.Systems[1].ID, cfg)
	_, err := OrderScienceShip(g, busy, ships[0].ID, g.Systems[2].ID, cfg)
	if got, _ := rules.ReasonOf(err); got != rules.ShipBusy {
		t.Fatalf("busy reason = %q", got)
	}
}

func TestAutoExplorePicksNearestThenLowestID(t *testing.T) {
	g := Galaxy{Systems: []StarSystem{
		{ID: "SYS-001", Visibility: Surveyed},
		{ID: "SYS-003", Position: Vec3{X: 10}, Visibility: Unknown},
		{ID: "SYS-002", Position: Vec3{X: -10}, Visibility: Unknown},
		{ID: "SYS-004", Position: Vec3{X: 5}, Visibility: Surveyed},
		{ID: "SYS-005", Position: Vec3{X: 50}, Visibility: Revealed},
	}}
	ships := []ScienceShip{
		{ID: "SCI-0001", SystemID: "SYS-001", Status: ShipIdle, AutoExplore: true},
		{ID: "SCI-0002", SystemID: "SYS-001", Status: ShipIdle, AutoExplore: true},
	}
	_, ships = AdvanceExploration(g, ships, ExplorationConfig{TravelTicks: 2, SurveyTicks: 1})

	if ships[0].TargetSystemID != "SYS-002" {
		t.Fatalf("first ship target = %s, want SYS-002", ships[0].TargetSystemID)
	}
	if ships[1].TargetSystemID != "SYS-003" {
		t.Fatalf("second ship target = %s, want SYS-003", ships[1].TargetSystemID)
	}
	if ships[0].Status != ShipTraveling || ships[0].TicksRemaining != 2 {
		t.Fatalf("first ship = %+v", ships[0])
	}
}

func TestStreamForksAreIndependent(t *testing.T) {
	root := NewStream(StreamVersion, "seed")
	a := root.Fork("a")
	b := root.Fork("b")
	if a.Uint64() == b.Uint64() {
		t.Fatalf("forks produced the same first draw")
	}
	again := NewStream(StreamVersion, "seed").Fork("a")
	first := NewStream(StreamVersion, "seed").Fork("a").Uint64()
	if again.Uint64() != first {
		t.Fatalf("fork is not reproducible")
	}
	for i := 0; i < 1000; i++ {
		if f := root.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 = %v out of range", f)
		}
	}
}
