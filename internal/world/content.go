package world

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dustrun/engine/internal/config"
	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/event"
	"github.com/dustrun/engine/internal/pool"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/sidetab"
	"github.com/dustrun/engine/internal/terrain"
)

// Powerup is the reference point's active powerup state, passed in by the
// game loop each frame.
type Powerup uint8

const (
	PowerupNone Powerup = iota
	PowerupMagnet
)

// EnemySpawner is the consumed enemy-subsystem contract. The engine only
// drives lifecycle; AI decisions happen on the other side of this interface.
type EnemySpawner interface {
	SpawnEnemy(kind string, p *Placement, chunks *ChunkManager, level *data.LevelConfig) *scene.Node
	RemoveEnemy(inst *scene.Node)
	RemoveAllEnemies()
}

// Binding ties a live dynamic-hazard instance back to its owning segment
// and placement, and carries the instance's motion state.
type Binding struct {
	Segment SegmentKey
	Index   int
	Vel     scene.Vec3
	Phase   float64 // bounce phase offset so hazards don't hop in lockstep
}

// Hazard tuning. Wind is the baseline drift across the track; slope pull
// and damping shape how weeds settle into gullies.
const (
	hazardWindX     = -3.2
	hazardWindZ     = 1.1
	hazardSlopePull = 9.0
	hazardDamping   = 1.6 // 1/sec velocity decay
	hazardBounceAmp = 0.8
	hazardBounceHz  = 2.4
)

// ContentManager populates and depopulates one segment's non-terrain
// content, and drives per-frame collectible magnetism and terrain
// alignment. It owns pool traffic and spatial-index registration for
// every non-enemy instance.
type ContentManager struct {
	log     *zap.Logger
	root    *scene.Root
	index   Index
	pool    *pool.Pool
	enemies EnemySpawner
	bus     *event.Bus
	field   *terrain.Field
	magnet  config.MagnetConfig

	bindings *sidetab.Table[Binding]
	tables   *sidetab.Registry
}

// NewContentManager wires a content manager. A missing scene root, spatial
// index or pool is a wiring error and fails construction; the enemy
// subsystem and feedback bus are optional collaborators.
func NewContentManager(root *scene.Root, index Index, p *pool.Pool, enemies EnemySpawner, bus *event.Bus, magnet config.MagnetConfig, log *zap.Logger) (*ContentManager, error) {
	if root == nil {
		return nil, fmt.Errorf("content manager: nil scene root")
	}
	if index == nil {
		return nil, fmt.Errorf("content manager: nil spatial index")
	}
	if p == nil {
		return nil, fmt.Errorf("content manager: nil object pool")
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &ContentManager{
		log:      log,
		root:     root,
		index:    index,
		pool:     p,
		enemies:  enemies,
		bus:      bus,
		magnet:   magnet,
		bindings: sidetab.NewTable[Binding](),
		tables:   sidetab.NewRegistry(),
	}
	m.tables.Register(m.bindings)
	return m, nil
}

// SetTerrain swaps the height field; called when the level changes.
func (m *ContentManager) SetTerrain(field *terrain.Field) {
	m.field = field
}

// RegisterKinds installs a level's structural contracts on the pool:
// composite kinds declare their required parts, dynamic hazards declare a
// forced resting orientation.
func (m *ContentManager) RegisterKinds(level *data.LevelConfig) {
	for i := range level.Placements {
		rule := &level.Placements[i]
		if len(rule.Parts) > 0 {
			m.pool.RequireParts(rule.Kind, rule.Parts...)
		}
		if rule.Hazard {
			m.pool.NormalizeYaw(rule.Kind, 0)
		}
	}
}

// LoadContent instantiates every placement of a freshly generated segment:
// enemy-roster kinds go through the enemy subsystem, dynamic hazards and
// static content come from the pool or fresh construction. Every non-enemy
// instance is attached to the scene and registered in the spatial index
// exactly once.
func (m *ContentManager) LoadContent(seg *Segment, level *data.LevelConfig, chunks *ChunkManager) {
	for i, p := range seg.Placements {
		p.Index = i
		switch p.Class {
		case ClassEnemy:
			if m.enemies == nil {
				continue
			}
			inst := m.enemies.SpawnEnemy(p.Kind, p, chunks, level)
			if inst == nil {
				m.log.Warn("enemy spawn refused",
					zap.String("kind", p.Kind),
					zap.String("segment", seg.Key.String()))
				continue
			}
			seg.Enemies = append(seg.Enemies, inst)

		case ClassHazard:
			node := m.acquire(pool.CategoryHazard, p, level)
			m.activate(node, p, seg.Key)
			phase := p.Yaw // yaw is already per-placement random; reuse as phase
			m.bindings.Set(node.ID, &Binding{
				Segment: seg.Key,
				Index:   i,
				Vel:     scene.Vec3{X: hazardWindX, Z: hazardWindZ},
				Phase:   phase,
			})

		default:
			category := pool.CategoryCollectible
			if p.Collidable {
				category = pool.CategoryCollidable
			}
			node := m.acquire(category, p, level)
			m.activate(node, p, seg.Key)
		}
	}
	seg.rebuildViews()
}

// UnloadContent detaches and recycles everything a segment owns. Enemy
// instances go back through the enemy subsystem; all pooled instances are
// deregistered from the spatial index exactly once.
func (m *ContentManager) UnloadContent(seg *Segment) {
	for _, p := range seg.Placements {
		if p.Node == nil {
			continue
		}
		node := p.Node
		m.index.Remove(node.ID, node.Position)
		m.root.Remove(node)
		m.tables.RemoveAll(node.ID)

		switch p.Class {
		case ClassHazard:
			m.pool.Put(pool.CategoryHazard, node)
			if m.bus != nil {
				event.Emit(m.bus, HazardRecycled{Segment: seg.Key, Kind: p.Kind})
			}
		case ClassCollidable:
			m.pool.Put(pool.CategoryCollidable, node)
		default:
			m.pool.Put(pool.CategoryCollectible, node)
		}
		p.Node = nil
	}

	if m.enemies != nil {
		for _, inst := range seg.Enemies {
			m.enemies.RemoveEnemy(inst)
		}
	}
	seg.Enemies = nil
	seg.rebuildViews()
}

// CollectObject picks up one collectible placement. Returns false for any
// invalid precondition: bad index, collidable kind, already collected, no
// live visual. Those are routine races against concurrent unload, not
// errors.
func (m *ContentManager) CollectObject(seg *Segment, index int) bool {
	if seg == nil || index < 0 || index >= len(seg.Placements) {
		return false
	}
	p := seg.Placements[index]
	if p.Class != ClassCollectible || p.Collidable || p.Collected || p.Node == nil {
		return false
	}

	node := p.Node
	m.index.Remove(node.ID, node.Position)
	m.root.Remove(node)
	m.pool.Put(pool.CategoryCollectible, node)
	p.Node = nil
	p.Collected = true
	seg.dropCollectible(p)

	if m.bus != nil {
		event.Emit(m.bus, CoinCollected{
			Segment: seg.Key,
			Index:   index,
			Kind:    p.Kind,
			Score:   p.Score,
		})
	}
	return true
}

// UpdateCollectibles runs the per-frame collectible pass over every
// resident segment: terrain re-alignment for locked decorations, yaw spin
// for rotating pickups, and magnet attraction while the powerup is active.
func (m *ContentManager) UpdateCollectibles(segments map[SegmentKey]*Segment, dt, elapsed float64, ref scene.Vec3, active Powerup) {
	for _, seg := range segments {
		m.alignTerrainLocked(seg)

		for _, p := range seg.Placements {
			if p.SpinRate != 0 && p.Node != nil && p.Class != ClassHazard {
				p.Node.Yaw += p.SpinRate * dt
			}
		}

		if active == PowerupMagnet {
			m.attract(seg, dt, ref)
		}
	}
}

// attract pulls magnetic pickups toward the reference point. The pull speed
// falls off as (1-d/R)^4, the step is clamped so a pickup never crosses the
// minimum safe distance, and collection compares both pre- and post-step
// squared distance so a large low-frame-rate step cannot tunnel through the
// collection ring uncollected.
func (m *ContentManager) attract(seg *Segment, dt float64, ref scene.Vec3) {
	radius := m.magnet.Radius
	radiusSq := radius * radius
	collectSq := m.magnet.CollectDistance * m.magnet.CollectDistance

	// Collectibles view may shrink mid-loop as pickups collect; walk a
	// snapshot of the placements it points at.
	for i := len(seg.Collectibles) - 1; i >= 0; i-- {
		p := seg.Collectibles[i]
		if !p.Magnetic || p.Node == nil || p.Collected {
			continue
		}
		node := p.Node
		preSq := scene.DistSq(node.Position, ref)
		if preSq > radiusSq {
			continue
		}

		d := math.Sqrt(preSq)
		if d > m.magnet.MinDistance {
			falloff := 1 - d/radius
			speed := m.magnet.Gain * falloff * falloff * falloff * falloff
			step := speed * dt
			if max := d - m.magnet.MinDistance; step > max {
				step = max
			}
			old := node.Position
			node.Position = node.Position.Add(ref.Sub(node.Position).Normalized().Scale(step))
			m.index.Update(node.ID, old, node.Position)
		}

		postSq := scene.DistSq(node.Position, ref)
		if preSq <= collectSq || postSq <= collectSq {
			m.CollectObject(seg, p.Index)
		}
	}
}

// UpdateTumbleweeds advances every dynamic hazard's own motion step,
// re-syncs its spatial-index entry, and re-runs the shared terrain
// alignment pass so static decorations stay consistent regardless of which
// update entry point ran last.
func (m *ContentManager) UpdateTumbleweeds(segments map[SegmentKey]*Segment, dt, elapsed float64, ref scene.Vec3) {
	for _, seg := range segments {
		for _, p := range seg.Hazards {
			if p.Node == nil || m.field == nil {
				continue
			}
			node := p.Node
			b, ok := m.bindings.Get(node.ID)
			if !ok {
				continue
			}

			old := node.Position

			// Slope pull accelerates weeds downhill; damping keeps the wind
			// from winding them up forever.
			sx, sz := m.field.SlopeAt(node.Position.X, node.Position.Z)
			b.Vel.X += (sx*hazardSlopePull + hazardWindX - b.Vel.X*hazardDamping) * dt
			b.Vel.Z += (sz*hazardSlopePull + hazardWindZ - b.Vel.Z*hazardDamping) * dt

			node.Position.X += b.Vel.X * dt
			node.Position.Z += b.Vel.Z * dt
			node.Position.Y = m.field.HeightAt(node.Position.X, node.Position.Z) +
				p.AlignOffset +
				hazardBounceAmp*math.Abs(math.Sin(elapsed*hazardBounceHz+b.Phase))
			node.Yaw += p.SpinRate * dt

			m.index.Update(node.ID, old, node.Position)
		}

		m.alignTerrainLocked(seg)
	}
}

// alignTerrainLocked snaps terrain-locked decorations back onto the height
// function. Pooled and repositioned instances drift independently of the
// terrain mesh, so this runs every frame from both update entry points.
func (m *ContentManager) alignTerrainLocked(seg *Segment) {
	if m.field == nil {
		return
	}
	for _, p := range seg.Placements {
		if !p.TerrainLocked || p.Node == nil || p.Class == ClassHazard {
			continue
		}
		n := p.Node
		n.Position.Y = m.field.HeightAt(n.Position.X, n.Position.Z) + p.AlignOffset
	}
}

// acquire retrieves a pooled instance for a placement or constructs a fresh
// one. The pool has already discarded any structurally corrupt entry, so a
// nil return simply means "build new".
func (m *ContentManager) acquire(category string, p *Placement, level *data.LevelConfig) *scene.Node {
	if node := m.pool.Get(category, p.Kind); node != nil {
		return node
	}
	if level != nil {
		if rule := level.Rule(p.Kind); rule != nil && len(rule.Parts) > 0 {
			return scene.NewComposite(p.Kind, rule.Parts...)
		}
	}
	return scene.NewNode(p.Kind)
}

// activate positions an instance for its new life, attaches it to the
// scene, and registers it in the spatial index.
func (m *ContentManager) activate(node *scene.Node, p *Placement, key SegmentKey) {
	node.Position = p.Position
	node.Scale = p.Scale
	if p.Class != ClassHazard {
		// Hazards keep their pool-normalized orientation; everything else
		// takes the generated yaw.
		node.Yaw = p.Yaw
	}
	node.Visible = true
	m.root.Add(node)
	m.index.Add(node.ID, node.Position)
	p.Node = node
}
