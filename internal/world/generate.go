package world

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/scripting"
	"github.com/dustrun/engine/internal/terrain"
)

// PlacementSource produces the placement list for a segment about to be
// populated.
type PlacementSource interface {
	Placements(key SegmentKey) ([]*Placement, error)
}

// RuleScript is the optional Lua hook consulted per segment. Implemented by
// scripting.Engine; nil means identity rules.
type RuleScript interface {
	SegmentRules(ctx scripting.SegmentContext) map[string]float64
}

// Generator turns level placement rules into concrete placements.
// Deterministic: the list for a segment is a pure function of (level seed,
// segment key), so a segment reloaded after teardown regenerates
// identically.
type Generator struct {
	log   *zap.Logger
	level *data.LevelConfig
	field *terrain.Field
	rules RuleScript
	size  float64
}

// NewGenerator wires a generator for one level.
func NewGenerator(level *data.LevelConfig, field *terrain.Field, rules RuleScript, size float64, log *zap.Logger) (*Generator, error) {
	if level == nil {
		return nil, fmt.Errorf("generator: nil level config")
	}
	if field == nil {
		return nil, fmt.Errorf("generator: nil terrain field")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		log:   log,
		level: level,
		field: field,
		rules: rules,
		size:  size,
	}, nil
}

// Placements generates the full content list for one segment.
func (g *Generator) Placements(key SegmentKey) ([]*Placement, error) {
	mults := g.scriptMultipliers(key)
	rng := rand.New(rand.NewSource(segmentSeed(g.level.Seed, key)))

	originX := float64(key.X) * g.size
	originZ := float64(key.Z) * g.size

	var out []*Placement
	for i := range g.level.Placements {
		rule := &g.level.Placements[i]

		density := rule.Density
		if m, ok := mults[rule.Kind]; ok {
			density *= m
		}
		if density < 0 {
			density = 0
		}
		count := int(density)
		if rng.Float64() < density-float64(count) {
			count++
		}

		for n := 0; n < count; n++ {
			x := originX + rng.Float64()*g.size
			z := originZ + rng.Float64()*g.size
			y := g.field.HeightAt(x, z) + rule.AlignOffset

			p := &Placement{
				Kind:          rule.Kind,
				Class:         g.classify(rule),
				Position:      scene.Vec3{X: x, Y: y, Z: z},
				Scale:         rule.MinScale + rng.Float64()*(rule.MaxScale-rule.MinScale),
				Yaw:           rng.Float64() * 2 * math.Pi,
				Collidable:    rule.Collidable,
				Score:         rule.Score,
				Magnetic:      rule.Magnetic,
				TerrainLocked: rule.TerrainLocked,
				AlignOffset:   rule.AlignOffset,
				SpinRate:      rule.SpinRate,
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// classify decides the placement's tagged variant once, at generation time.
// Roster membership wins over everything: an enemy kind is an enemy even if
// its rule also marks it collidable.
func (g *Generator) classify(rule *data.PlacementRule) Class {
	switch {
	case g.level.RosterHas(rule.Kind):
		return ClassEnemy
	case rule.Hazard:
		return ClassHazard
	case rule.Collidable:
		return ClassCollidable
	default:
		return ClassCollectible
	}
}

// scriptMultipliers consults the level rule script, absorbing script trouble
// as identity rules.
func (g *Generator) scriptMultipliers(key SegmentKey) map[string]float64 {
	if g.rules == nil {
		return nil
	}
	kinds := make([]scripting.KindDensity, 0, len(g.level.Placements))
	for i := range g.level.Placements {
		kinds = append(kinds, scripting.KindDensity{
			Kind:    g.level.Placements[i].Kind,
			Density: g.level.Placements[i].Density,
		})
	}
	return g.rules.SegmentRules(scripting.SegmentContext{
		X:     key.X,
		Z:     key.Z,
		Ring:  chebyshev(key, SegmentKey{}),
		Biome: g.level.Biome,
		Kinds: kinds,
	})
}

// segmentSeed mixes the level seed with the segment key (splitmix64-style)
// so neighbouring segments draw unrelated streams.
func segmentSeed(levelSeed int64, key SegmentKey) int64 {
	h := uint64(levelSeed)
	h ^= (uint64(uint32(key.X)) << 32) | uint64(uint32(key.Z))
	h += 0x9E3779B97F4A7C15
	h = (h ^ (h >> 30)) * 0xBF58476D1CE4E5B9
	h = (h ^ (h >> 27)) * 0x94D049BB133111EB
	h ^= h >> 31
	return int64(h)
}

// chebyshev returns the Chebyshev distance between two segment keys.
func chebyshev(a, b SegmentKey) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	if dz > dx {
		return int(dz)
	}
	return int(dx)
}
