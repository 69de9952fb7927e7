package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dustrun/engine/internal/config"
	"github.com/dustrun/engine/internal/event"
	"github.com/dustrun/engine/internal/pool"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/terrain"
)

func TestNewContentManagerRejectsMissingDeps(t *testing.T) {
	root := scene.NewRoot()
	idx := NewGrid(16)
	p := pool.New(4, nil)

	_, err := NewContentManager(nil, idx, p, nil, nil, testMagnet(), nil)
	require.Error(t, err)
	_, err = NewContentManager(root, nil, p, nil, nil, testMagnet(), nil)
	require.Error(t, err)
	_, err = NewContentManager(root, idx, nil, nil, nil, testMagnet(), nil)
	require.Error(t, err)
	_, err = NewContentManager(root, idx, p, nil, nil, testMagnet(), nil)
	require.NoError(t, err)
}

func TestLoadContentScenarioCounts(t *testing.T) {
	tc := newTestContent()
	specs := make([]Placement, 0, 10)
	for i := 0; i < 6; i++ {
		specs = append(specs, coinAt(scene.Vec3{X: float64(i) * 3}))
	}
	for i := 0; i < 3; i++ {
		specs = append(specs, rockAt(scene.Vec3{Z: float64(i) * 5}))
	}
	specs = append(specs, scorpionAt(scene.Vec3{X: 10, Z: 10}))

	seg := makeSegment(SegmentKey{X: 3, Z: -2}, specs...)
	tc.content.LoadContent(seg, testLevel(), nil)

	require.Len(t, seg.Collectibles, 6)
	require.Len(t, seg.Collidables, 3)
	require.Empty(t, seg.Hazards)
	require.Len(t, seg.Enemies, 1)
	require.Len(t, tc.spawner.spawned, 1)

	// Every non-enemy instance is on screen and indexed exactly once.
	require.Equal(t, 9, tc.root.Len())
	for _, p := range seg.Placements {
		if p.Class == ClassEnemy {
			require.Nil(t, p.Node)
			continue
		}
		require.NotNil(t, p.Node)
		require.Equal(t, 1, tc.index.adds[p.Node.ID])
		require.True(t, tc.root.Contains(p.Node))
	}
}

func TestLoadContentBuildsCompositesFromRules(t *testing.T) {
	tc := newTestContent()
	seg := makeSegment(SegmentKey{},
		Placement{Kind: "cactus", Class: ClassCollidable, Collidable: true, Position: scene.Vec3{X: 1}},
	)
	tc.content.LoadContent(seg, testLevel(), nil)

	n := seg.Placements[0].Node
	require.NotNil(t, n)
	require.NotNil(t, n.Part("trunk"))
	require.NotNil(t, n.Part("arm_left"))
}

func TestUnloadContentRecyclesEverything(t *testing.T) {
	tc := newTestContent()
	seg := makeSegment(SegmentKey{},
		coinAt(scene.Vec3{X: 1}),
		rockAt(scene.Vec3{X: 2}),
		weedAt(scene.Vec3{X: 3}),
		scorpionAt(scene.Vec3{X: 4}),
	)
	tc.content.LoadContent(seg, testLevel(), nil)
	nodes := make([]*scene.Node, 0, 3)
	for _, p := range seg.Placements {
		if p.Node != nil {
			nodes = append(nodes, p.Node)
		}
	}

	tc.content.UnloadContent(seg)

	require.Equal(t, 0, tc.root.Len())
	require.Equal(t, 1, tc.spawner.removed)
	require.Empty(t, seg.Enemies)
	for _, p := range seg.Placements {
		require.Nil(t, p.Node)
	}
	for _, n := range nodes {
		require.Equal(t, 1, tc.index.removes[n.ID])
		require.False(t, n.Disposed()) // pooled, not destroyed
	}
	require.Equal(t, 1, tc.pool.Len(pool.CategoryCollectible))
	require.Equal(t, 1, tc.pool.Len(pool.CategoryCollidable))
	require.Equal(t, 1, tc.pool.Len(pool.CategoryHazard))
}

func TestReloadReusesPooledInstances(t *testing.T) {
	tc := newTestContent()
	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 1}))
	tc.content.LoadContent(seg, testLevel(), nil)
	first := seg.Placements[0].Node
	tc.content.UnloadContent(seg)

	again := makeSegment(SegmentKey{X: 1}, coinAt(scene.Vec3{X: 9}))
	tc.content.LoadContent(again, testLevel(), nil)

	require.Same(t, first, again.Placements[0].Node)
	require.Equal(t, scene.Vec3{X: 9}, first.Position)
}

func TestCollectObject(t *testing.T) {
	tc := newTestContent()
	var collected []CoinCollected
	event.Subscribe(tc.bus, func(e CoinCollected) { collected = append(collected, e) })

	seg := makeSegment(SegmentKey{X: 3, Z: -2},
		coinAt(scene.Vec3{X: 1}),
		rockAt(scene.Vec3{X: 2}),
	)
	tc.content.LoadContent(seg, testLevel(), nil)
	coin := seg.Placements[0].Node

	require.True(t, tc.content.CollectObject(seg, 0))
	require.True(t, seg.Placements[0].Collected)
	require.Nil(t, seg.Placements[0].Node)
	require.Empty(t, seg.Collectibles)
	require.Equal(t, 1, tc.index.removes[coin.ID])
	require.False(t, tc.root.Contains(coin))
	require.Equal(t, 1, tc.pool.Len(pool.CategoryCollectible))

	// Second collection of the same index is refused.
	require.False(t, tc.content.CollectObject(seg, 0))
	// Collidable kinds are never collectible.
	require.False(t, tc.content.CollectObject(seg, 1))
	// Out-of-range and missing segments are routine refusals.
	require.False(t, tc.content.CollectObject(seg, 99))
	require.False(t, tc.content.CollectObject(nil, 0))

	tc.bus.Flush()
	require.Len(t, collected, 1)
	require.Equal(t, "coin", collected[0].Kind)
	require.Equal(t, 1, collected[0].Score)
	require.Equal(t, SegmentKey{X: 3, Z: -2}, collected[0].Segment)
}

func TestUpdateCollectiblesSpinsAndAligns(t *testing.T) {
	tc := newTestContent()
	field := terrain.New(7, testLevel().Noise)
	tc.content.SetTerrain(field)

	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 4, Z: 4}))
	tc.content.LoadContent(seg, testLevel(), nil)
	coin := seg.Placements[0].Node
	coin.Position.Y = -50 // knock it off the surface

	segs := map[SegmentKey]*Segment{seg.Key: seg}
	tc.content.UpdateCollectibles(segs, 0.1, 1.0, scene.Vec3{X: 100}, PowerupNone)

	wantY := field.HeightAt(4, 4) + 1
	require.InDelta(t, wantY, coin.Position.Y, 1e-9)
	require.InDelta(t, seg.Placements[0].Yaw+0.2, coin.Yaw, 1e-9)
}

func TestMagnetPullsStrictlyCloser(t *testing.T) {
	tc := newTestContent()
	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 8}))
	seg.Placements[0].TerrainLocked = false
	tc.content.LoadContent(seg, testLevel(), nil)
	coin := seg.Placements[0].Node

	ref := scene.Vec3{}
	segs := map[SegmentKey]*Segment{seg.Key: seg}
	before := scene.DistSq(coin.Position, ref)
	tc.content.UpdateCollectibles(segs, 0.05, 0, ref, PowerupMagnet)
	after := scene.DistSq(coin.Position, ref)

	require.Less(t, after, before)
	require.False(t, seg.Placements[0].Collected)
}

func TestMagnetIgnoresOutOfRange(t *testing.T) {
	tc := newTestContent()
	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 30}))
	seg.Placements[0].TerrainLocked = false
	tc.content.LoadContent(seg, testLevel(), nil)
	coin := seg.Placements[0].Node
	start := coin.Position

	segs := map[SegmentKey]*Segment{seg.Key: seg}
	tc.content.UpdateCollectibles(segs, 0.05, 0, scene.Vec3{}, PowerupMagnet)

	require.Equal(t, start, coin.Position)
}

func TestMagnetClampsAtMinDistanceAndCollects(t *testing.T) {
	tc := newTestContent()
	// Inside the collect ring already; must be picked up even if the step
	// cannot move it (min safe distance).
	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 2}))
	seg.Placements[0].TerrainLocked = false
	tc.content.LoadContent(seg, testLevel(), nil)

	segs := map[SegmentKey]*Segment{seg.Key: seg}
	tc.content.UpdateCollectibles(segs, 0.05, 0, scene.Vec3{}, PowerupMagnet)

	require.True(t, seg.Placements[0].Collected)
	require.Empty(t, seg.Collectibles)
}

func TestMagnetNeverPullsInsideMinDistance(t *testing.T) {
	tc := newTestContent()
	// Collect ring tighter than the safe distance, so the clamp is what
	// keeps the coin out instead of a pickup ending the pull early.
	magnet := config.MagnetConfig{Radius: 12, MinDistance: 4, CollectDistance: 1, Gain: 40}
	cm, err := NewContentManager(tc.root, tc.index, tc.pool, tc.spawner, tc.bus, magnet, nil)
	require.NoError(t, err)

	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 8}))
	seg.Placements[0].TerrainLocked = false
	cm.LoadContent(seg, testLevel(), nil)
	coin := seg.Placements[0].Node

	ref := scene.Vec3{}
	segs := map[SegmentKey]*Segment{seg.Key: seg}
	minSq := magnet.MinDistance * magnet.MinDistance
	for i := 0; i < 200; i++ {
		cm.UpdateCollectibles(segs, 0.5, 0, ref, PowerupMagnet)
		require.GreaterOrEqual(t, scene.DistSq(coin.Position, ref), minSq-1e-9)
	}
	require.False(t, seg.Placements[0].Collected)
}

func TestMagnetCollectsAfterStep(t *testing.T) {
	tc := newTestContent()
	// Just outside the collect ring; a generous dt steps it inside, and the
	// post-step check must collect it within the same frame.
	seg := makeSegment(SegmentKey{}, coinAt(scene.Vec3{X: 3.0}))
	seg.Placements[0].TerrainLocked = false
	tc.content.LoadContent(seg, testLevel(), nil)

	segs := map[SegmentKey]*Segment{seg.Key: seg}
	tc.content.UpdateCollectibles(segs, 1.0, 0, scene.Vec3{}, PowerupMagnet)

	require.True(t, seg.Placements[0].Collected)
}

func TestUpdateTumbleweedsMovesAndResyncs(t *testing.T) {
	tc := newTestContent()
	field := terrain.New(7, testLevel().Noise)
	tc.content.SetTerrain(field)

	seg := makeSegment(SegmentKey{}, weedAt(scene.Vec3{X: 5, Z: 5}))
	tc.content.LoadContent(seg, testLevel(), nil)
	weed := seg.Placements[0].Node
	start := weed.Position
	startYaw := weed.Yaw

	segs := map[SegmentKey]*Segment{seg.Key: seg}
	for i := 0; i < 10; i++ {
		tc.content.UpdateTumbleweeds(segs, 0.05, float64(i)*0.05, scene.Vec3{})
	}

	require.NotEqual(t, start, weed.Position)
	require.NotEqual(t, startYaw, weed.Yaw)
	require.Equal(t, 10, tc.index.updates[weed.ID])
	require.True(t, tc.index.Contains(weed.ID, weed.Position))
}
