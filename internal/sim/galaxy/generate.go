package galaxy

import (
	"fmt"
	"math"

	"planets-engine/internal/sim/economy"
)

type Shape string

const (
	ShapeCircle  Shape = "circle"
	ShapeRing    Shape = "ring"
	ShapeSpiral  Shape = "spiral"
	ShapeEllipse Shape = "ellipse"
	ShapeBar     Shape = "bar"
	ShapeCluster Shape = "cluster"
)

func (s Shape) IsValid() bool {
	switch s {
	case ShapeCircle, ShapeRing, ShapeSpiral, ShapeEllipse, ShapeBar, ShapeCluster:
		return true
	}
	return false
}

const (
	DefaultSeed        = "debug-seed"
	DefaultSystemCount = 18
	DefaultRadius      = 256
)

type Params struct {
	Seed        string  `yaml:"seed" json:"seed"`
	SystemCount int     `yaml:"system_count" json:"system_count"`
	Radius      float64 `yaml:"radius" json:"radius"`
	Shape       Shape   `yaml:"shape" json:"shape"`
}

// WithDefaults fills zero fields with the stock debug galaxy.
func (p Params) WithDefaults() Params {
	if p.Seed == "" {
		p.Seed = DefaultSeed
	}
	if p.SystemCount <= 0 {
		p.SystemCount = DefaultSystemCount
	}
	if p.Radius <= 0 {
		p.Radius = DefaultRadius
	}
	if !p.Shape.IsValid() {
		p.Shape = ShapeCircle
	}
	return p
}

// WorldKind describes one habitable world archetype and its draw weight.
type WorldKind struct {
	Kind       string          `yaml:"kind" json:"kind"`
	Weight     int             `yaml:"weight" json:"weight"`
	MinSize    int             `yaml:"min_size" json:"min_size"`
	MaxSize    int             `yaml:"max_size" json:"max_size"`
	Production economy.Amounts `yaml:"production" json:"production"`
	Upkeep     economy.Amounts `yaml:"upkeep" json:"upkeep"`
}

type GenerationConfig struct {
	HabitableChance float64     `yaml:"habitable_chance" json:"habitable_chance"`
	HostileChance   float64     `yaml:"hostile_chance" json:"hostile_chance"`
	HostileMin      float64     `yaml:"hostile_min" json:"hostile_min"`
	HostileSpread   float64     `yaml:"hostile_spread" json:"hostile_spread"`
	WorldKinds      []WorldKind `yaml:"world_kinds" json:"world_kinds"`
}

// Generator yields the initial star systems for a seed. Equal params always
// produce an equal galaxy.
type Generator interface {
	Generate(p Params) Galaxy
}

type Procedural struct {
	cfg GenerationConfig
}

func NewProcedural(cfg GenerationConfig) *Procedural {
	return &Procedural{cfg: cfg}
}

// Generate places systems according to the shape, surveys the home system
// (index 0) and rolls habitable worlds and hostile presence for the rest.
func (g *Procedural) Generate(p Params) Galaxy {
	p = p.WithDefaults()
	root := NewStream(StreamVersion, p.Seed)

	systems := make([]StarSystem, p.SystemCount)
	for i := range systems {
		rng := root.Fork(fmt.Sprintf("system/%d", i))
		sys := StarSystem{
			ID:         fmt.Sprintf("SYS-%03d", i+1),
			Name:       systemName(i),
			Position:   place(p.Shape, p.Radius, i, rng),
			StarClass:  starClass(rng),
			Visibility: Unknown,
		}

		if i == 0 {
			sys.Position = Vec3{}
			sys.Visibility = Surveyed
			systems[i] = sys
			continue
		}

		if rng.Float64() < g.cfg.HabitableChance && len(g.cfg.WorldKinds) > 0 {
			sys.HabitableWorld = g.world(sys.Name, rng)
		}
		if rng.Float64() < g.cfg.HostileChance {
			sys.HostilePower = math.Round(g.cfg.HostileMin + rng.Float64()*g.cfg.HostileSpread)
		}
		systems[i] = sys
	}

	return Galaxy{Seed: p.Seed, Shape: p.Shape, Radius: p.Radius, Systems: systems}
}

func (g *Procedural) world(systemName string, rng *Stream) *HabitableWorld {
	kind := pickWorldKind(g.cfg.WorldKinds, rng)
	return &HabitableWorld{
		Name:       fmt.Sprintf("%s %s", systemName, planetSuffixes[rng.Intn(len(planetSuffixes))]),
		Kind:       kind.Kind,
		Size:       rng.Between(kind.MinSize, kind.MaxSize),
		Production: kind.Production.Clone(),
		Upkeep:     kind.Upkeep.Clone(),
	}
}

func pickWorldKind(kinds []WorldKind, rng *Stream) WorldKind {
	total := 0
	for _, k := range kinds {
		total += k.Weight
	}
	if total <= 0 {
		return kinds[0]
	}

	roll := rng.Intn(total)
	current := 0
	for _, k := range kinds {
		current += k.Weight
		if roll < current {
			return k
		}
	}
	return kinds[0]
}

var starClassWeights = []struct {
	class  StarClass
	weight int
}{
	{ClassM, 35}, {ClassK, 25}, {ClassG, 15}, {ClassF, 10}, {ClassA, 8}, {ClassB, 5}, {ClassO, 2},
}

func starClass(rng *Stream) StarClass {
	roll := rng.Intn(100)
	current := 0
	for _, w := range starClassWeights {
		current += w.weight
		if roll < current {
			return w.class
		}
	}
	return ClassM
}

func place(shape Shape, radius float64, index int, rng *Stream) Vec3 {
	u, v := rng.Float64(), rng.Float64()
	z := (rng.Float64() - 0.5) * radius * 0.05
	theta := 2 * math.Pi * v

	var x, y float64
	switch shape {
	case ShapeRing:
		r := radius * (0.7 + 0.3*u)
		x, y = r*math.Cos(theta), r*math.Sin(theta)
	case ShapeSpiral:
		arm := float64(index%2) * math.Pi
		r := radius * math.Sqrt(u)
		angle := arm + (r/radius)*3*math.Pi + (v-0.5)*0.6
		x, y = r*math.Cos(angle), r*math.Sin(angle)
	case ShapeEllipse:
		r := radius * math.Sqrt(u)
		x, y = r*math.Cos(theta), 0.55*r*math.Sin(theta)
	case ShapeBar:
		x = (u*2 - 1) * radius * 0.9
		y = (v - 0.5) * radius * 0.3
	case ShapeCluster:
		center := float64(index%4) * math.Pi / 2
		cx, cy := radius*0.6*math.Cos(center), radius*0.6*math.Sin(center)
		r := radius * 0.3 * math.Sqrt(u)
		x, y = cx+r*math.Cos(theta), cy+r*math.Sin(theta)
	default:
		r := radius * math.Sqrt(u)
		x, y = r*math.Cos(theta), r*math.Sin(theta)
	}
	return Vec3{X: x, Y: y, Z: z}
}

func systemName(index int) string {
	name := systemNames[index%len(systemNames)]
	if round := index / len(systemNames); round > 0 {
		return fmt.Sprintf("%s %d", name, round+1)
	}
	return name
}

var systemNames = []string{
	"Altair", "Vega", "Sirius", "Arcturus", "Capella", "Rigel", "Procyon",
	"Betelgeuse", "Aldebaran", "Spica", "Antares", "Pollux", "Fomalhaut",
	"Deneb", "Regulus", "Adhara", "Castor", "Gacrux", "Bellatrix", "Elnath",
	"Miaplacidus", "Alnilam", "Alnair", "Alioth", "Dubhe", "Mirfak", "Wezen",
	"Sargas", "Kaus", "Avior", "Menkalinan", "Atria", "Alhena", "Peacock",
	"Alsephina", "Mirzam", "Polaris", "Alphard", "Hamal", "Algieba", "Diphda",
	"Mizar", "Nunki", "Menkent", "Mirach", "Alpheratz", "Rasalhague", "Kochab",
	"Saiph", "Zubenelgenubi", "Enif", "Schedar", "Markab", "Unukalhai", "Tau",
}

var planetSuffixes = []string{
	"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"Prime", "Alpha", "Beta", "Gamma", "Major", "Minor", "Core", "Outer",
}
