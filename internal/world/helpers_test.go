package world

import (
	"fmt"

	"github.com/dustrun/engine/internal/config"
	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/event"
	"github.com/dustrun/engine/internal/pool"
	"github.com/dustrun/engine/internal/scene"
)

// recordingIndex wraps a Grid and counts lifecycle calls per instance, so
// tests can assert the exactly-once registration contract.
type recordingIndex struct {
	*Grid
	adds    map[uint64]int
	removes map[uint64]int
	updates map[uint64]int
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{
		Grid:    NewGrid(16),
		adds:    make(map[uint64]int),
		removes: make(map[uint64]int),
		updates: make(map[uint64]int),
	}
}

func (r *recordingIndex) Add(id uint64, pos scene.Vec3) {
	r.adds[id]++
	r.Grid.Add(id, pos)
}

func (r *recordingIndex) Remove(id uint64, pos scene.Vec3) {
	r.removes[id]++
	r.Grid.Remove(id, pos)
}

func (r *recordingIndex) Update(id uint64, old, new scene.Vec3) {
	r.updates[id]++
	r.Grid.Update(id, old, new)
}

// fakeSpawner implements EnemySpawner with plain counters.
type fakeSpawner struct {
	spawned []*scene.Node
	removed int
	refuse  bool
}

func (f *fakeSpawner) SpawnEnemy(kind string, p *Placement, chunks *ChunkManager, level *data.LevelConfig) *scene.Node {
	if f.refuse {
		return nil
	}
	n := scene.NewNode(kind)
	n.Position = p.Position
	f.spawned = append(f.spawned, n)
	return n
}

func (f *fakeSpawner) RemoveEnemy(inst *scene.Node) { f.removed++ }
func (f *fakeSpawner) RemoveAllEnemies()            {}

// flakySource serves canned placements but fails the first failures
// attempts for every key.
type flakySource struct {
	failures int
	attempts map[SegmentKey]int
	build    func(key SegmentKey) []*Placement
}

func newFlakySource(failures int, build func(SegmentKey) []*Placement) *flakySource {
	if build == nil {
		build = func(SegmentKey) []*Placement { return nil }
	}
	return &flakySource{
		failures: failures,
		attempts: make(map[SegmentKey]int),
		build:    build,
	}
}

func (s *flakySource) Placements(key SegmentKey) ([]*Placement, error) {
	s.attempts[key]++
	if s.attempts[key] <= s.failures {
		return nil, fmt.Errorf("simulated generation failure for %s", key)
	}
	return s.build(key), nil
}

func testLevel() *data.LevelConfig {
	return &data.LevelConfig{
		Name:  "testdesert",
		Biome: "desert",
		Noise: data.NoiseParams{
			Octaves:     2,
			Frequency:   0.02,
			Amplitude:   4,
			Persistence: 0.5,
			Lacunarity:  2,
		},
		Placements: []data.PlacementRule{
			{Kind: "coin", Density: 4, Score: 1, Magnetic: true, TerrainLocked: true, AlignOffset: 1, SpinRate: 2, MinScale: 1, MaxScale: 1},
			{Kind: "rock", Density: 2, Collidable: true, TerrainLocked: true, MinScale: 1, MaxScale: 2},
			{Kind: "cactus", Density: 1, Collidable: true, TerrainLocked: true, MinScale: 1, MaxScale: 1, Parts: []string{"trunk", "arm_left"}},
			{Kind: "tumbleweed", Density: 1, Hazard: true, AlignOffset: 0.5, SpinRate: 4, MinScale: 1, MaxScale: 1},
			{Kind: "scorpion", Density: 0.5, MinScale: 1, MaxScale: 1},
		},
		Roster: []data.EnemyTemplate{
			{Kind: "scorpion", Health: 3, Speed: 2},
		},
	}
}

func testMagnet() config.MagnetConfig {
	return config.MagnetConfig{Radius: 12, MinDistance: 1.5, CollectDistance: 2.5, Gain: 40}
}

// testContent builds a content manager over fresh collaborators and hands
// everything back for assertions.
type testContent struct {
	root    *scene.Root
	index   *recordingIndex
	pool    *pool.Pool
	spawner *fakeSpawner
	bus     *event.Bus
	content *ContentManager
}

func newTestContent() *testContent {
	tc := &testContent{
		root:    scene.NewRoot(),
		index:   newRecordingIndex(),
		pool:    pool.New(16, nil),
		spawner: &fakeSpawner{},
		bus:     event.NewBus(),
	}
	cm, err := NewContentManager(tc.root, tc.index, tc.pool, tc.spawner, tc.bus, testMagnet(), nil)
	if err != nil {
		panic(err)
	}
	tc.content = cm
	return tc
}

// makeSegment hand-builds a segment from kind/class pairs at fixed spots,
// keeping scenario tests independent of procedural generation.
func makeSegment(key SegmentKey, specs ...Placement) *Segment {
	seg := &Segment{Key: key, Terrain: scene.NewNode("terrain")}
	for i := range specs {
		p := specs[i]
		if p.Scale == 0 {
			p.Scale = 1
		}
		seg.Placements = append(seg.Placements, &p)
	}
	return seg
}

func coinAt(pos scene.Vec3) Placement {
	return Placement{Kind: "coin", Class: ClassCollectible, Position: pos, Score: 1, Magnetic: true, TerrainLocked: true, AlignOffset: 1, SpinRate: 2}
}

func rockAt(pos scene.Vec3) Placement {
	return Placement{Kind: "rock", Class: ClassCollidable, Position: pos, Collidable: true, TerrainLocked: true}
}

func weedAt(pos scene.Vec3) Placement {
	return Placement{Kind: "tumbleweed", Class: ClassHazard, Position: pos, AlignOffset: 0.5, SpinRate: 4}
}

func scorpionAt(pos scene.Vec3) Placement {
	return Placement{Kind: "scorpion", Class: ClassEnemy, Position: pos}
}
