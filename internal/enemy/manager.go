// Package enemy owns roster-managed enemy instances. The world package
// delegates spawning and teardown here; patrol motion and despawn stay on
// this side of the contract.
package enemy

import (
	"math"

	"go.uber.org/zap"

	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/world"
)

type instance struct {
	node   *scene.Node
	kind   string
	health int
	speed  float64
	anchor scene.Vec3
	phase  float64
}

// Manager implements the engine's enemy-spawner contract. It owns scene
// attachment and spatial-index registration for every enemy it spawns.
type Manager struct {
	log    *zap.Logger
	root   *scene.Root
	index  world.Index
	active map[uint64]*instance
}

func NewManager(root *scene.Root, index world.Index, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:    log,
		root:   root,
		index:  index,
		active: make(map[uint64]*instance),
	}
}

// SpawnEnemy instantiates one roster enemy at a placement. Unknown kinds
// are refused with a nil return; the caller treats that as "no enemy
// here", not an error.
func (m *Manager) SpawnEnemy(kind string, p *world.Placement, chunks *world.ChunkManager, level *data.LevelConfig) *scene.Node {
	tmpl := level.RosterTemplate(kind)
	if tmpl == nil {
		m.log.Debug("unknown enemy kind refused", zap.String("kind", kind))
		return nil
	}

	node := scene.NewNode(kind)
	node.Position = p.Position
	node.Scale = p.Scale
	node.Yaw = p.Yaw
	m.root.Add(node)
	m.index.Add(node.ID, node.Position)

	m.active[node.ID] = &instance{
		node:   node,
		kind:   kind,
		health: tmpl.Health,
		speed:  tmpl.Speed,
		anchor: p.Position,
		phase:  p.Yaw,
	}
	return node
}

// RemoveEnemy tears down one spawned instance. Unknown nodes are ignored
// so a double remove during segment churn is harmless.
func (m *Manager) RemoveEnemy(inst *scene.Node) {
	if inst == nil {
		return
	}
	if _, ok := m.active[inst.ID]; !ok {
		return
	}
	m.index.Remove(inst.ID, inst.Position)
	m.root.Remove(inst)
	inst.Dispose()
	delete(m.active, inst.ID)
}

// RemoveAllEnemies despawns everything, for session teardown.
func (m *Manager) RemoveAllEnemies() {
	for _, in := range m.active {
		m.index.Remove(in.node.ID, in.node.Position)
		m.root.Remove(in.node)
		in.node.Dispose()
	}
	m.active = make(map[uint64]*instance)
}

// Update walks each enemy along a small patrol circle around its spawn
// anchor and re-syncs its spatial-index entry.
func (m *Manager) Update(dt, elapsed float64) {
	for _, in := range m.active {
		if in.speed <= 0 {
			continue
		}
		old := in.node.Position
		t := elapsed*in.speed*0.25 + in.phase
		in.node.Position.X = in.anchor.X + math.Cos(t)*2.5
		in.node.Position.Z = in.anchor.Z + math.Sin(t)*2.5
		in.node.Yaw = t + math.Pi/2
		m.index.Update(in.node.ID, old, in.node.Position)
	}
}

// Count reports the number of live enemies.
func (m *Manager) Count() int { return len(m.active) }
