package world

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dustrun/engine/internal/config"
	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/event"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/terrain"
)

// ChunkManager streams fixed-size world segments around a moving reference
// point. It owns the residency map, drives generation, and delegates all
// per-object work to the content manager. Registration is all-or-nothing:
// a segment enters the residency map only after generation and content
// load both completed, so no half-built segment is ever visible to the
// update passes.
type ChunkManager struct {
	log     *zap.Logger
	content *ContentManager
	root    *scene.Root
	bus     *event.Bus

	size         float64
	loadRadius   int32
	unloadRadius int32
	initialBatch int

	level  *data.LevelConfig
	source PlacementSource

	resident map[SegmentKey]*Segment
	pending  map[SegmentKey]int // generation failures, keyed by attempt count
	current  SegmentKey
	hasCell  bool
}

// NewChunkManager wires a chunk manager. The content manager and scene
// root are required; the feedback bus is optional.
func NewChunkManager(content *ContentManager, root *scene.Root, bus *event.Bus, cfg config.WorldConfig, log *zap.Logger) (*ChunkManager, error) {
	if content == nil {
		return nil, fmt.Errorf("chunk manager: nil content manager")
	}
	if root == nil {
		return nil, fmt.Errorf("chunk manager: nil scene root")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.InitialBatch < 1 {
		cfg.InitialBatch = 1
	}
	return &ChunkManager{
		log:          log,
		content:      content,
		root:         root,
		bus:          bus,
		size:         cfg.SegmentSize,
		loadRadius:   int32(cfg.LoadRadius),
		unloadRadius: int32(cfg.UnloadRadius),
		initialBatch: cfg.InitialBatch,
		resident:     make(map[SegmentKey]*Segment),
		pending:      make(map[SegmentKey]int),
	}, nil
}

// SetLevelConfig installs the level that all future segments generate
// from. Prospective only: already-resident segments keep the content they
// were built with until normal streaming recycles them.
func (c *ChunkManager) SetLevelConfig(level *data.LevelConfig, source PlacementSource, field *terrain.Field) {
	c.level = level
	c.source = source
	c.content.SetTerrain(field)
	if level != nil {
		c.content.RegisterKinds(level)
	}
}

// Update re-centers the resident window on the reference position. A call
// that stays inside the current grid cell is a no-op, except that segments
// whose generation failed are retried every call until they succeed or
// scroll out of range.
func (c *ChunkManager) Update(ref scene.Vec3) {
	if c.level == nil || c.source == nil {
		c.log.Debug("chunk update with no level configured")
		return
	}
	cell := c.cellOf(ref)
	if c.hasCell && cell == c.current && len(c.pending) == 0 {
		return
	}
	c.current = cell
	c.hasCell = true
	c.sync()
}

// LoadInitialChunks synchronously fills the whole load window around the
// current cell, reporting progress after each batch so a caller can pump a
// loading screen between batches.
func (c *ChunkManager) LoadInitialChunks(progress func(loaded, total int)) error {
	if c.level == nil || c.source == nil {
		return fmt.Errorf("chunk manager: no level configured")
	}
	if !c.hasCell {
		c.current = SegmentKey{}
		c.hasCell = true
	}

	keys := c.targetKeys()
	total := len(keys)
	for done, key := range keys {
		if _, ok := c.resident[key]; !ok {
			c.tryLoad(key)
		}
		n := done + 1
		if progress != nil && (n%c.initialBatch == 0 || n == total) {
			progress(n, total)
		}
	}
	return nil
}

// ClearAllChunks tears down every resident segment and forgets the current
// cell, so the next Update rebuilds the window from scratch.
func (c *ChunkManager) ClearAllChunks() {
	for key, seg := range c.resident {
		c.unload(key, seg)
	}
	c.pending = make(map[SegmentKey]int)
	c.hasCell = false
}

// CollectObject resolves a segment key to its resident segment and
// forwards the pickup. A miss on an unloaded segment is routine and
// returns false.
func (c *ChunkManager) CollectObject(key SegmentKey, index int) bool {
	seg, ok := c.resident[key]
	if !ok {
		return false
	}
	return c.content.CollectObject(seg, index)
}

// UpdateCollectibles forwards the per-frame collectible pass over all
// resident segments.
func (c *ChunkManager) UpdateCollectibles(dt, elapsed float64, ref scene.Vec3, active Powerup) {
	c.content.UpdateCollectibles(c.resident, dt, elapsed, ref, active)
}

// UpdateTumbleweeds forwards the per-frame hazard pass over all resident
// segments.
func (c *ChunkManager) UpdateTumbleweeds(dt, elapsed float64, ref scene.Vec3) {
	c.content.UpdateTumbleweeds(c.resident, dt, elapsed, ref)
}

// Segment returns a resident segment, if any.
func (c *ChunkManager) Segment(key SegmentKey) (*Segment, bool) {
	seg, ok := c.resident[key]
	return seg, ok
}

// Resident reports the number of currently loaded segments.
func (c *ChunkManager) Resident() int { return len(c.resident) }

// sync diffs the target window against the residency map: load what is
// newly in range, retry what previously failed, drop what fell outside
// the unload radius.
func (c *ChunkManager) sync() {
	target := make(map[SegmentKey]struct{})
	for _, key := range c.targetKeys() {
		target[key] = struct{}{}
		if _, ok := c.resident[key]; !ok {
			c.tryLoad(key)
		}
	}

	for key, seg := range c.resident {
		if chebyshev(key, c.current) > int(c.unloadRadius) {
			c.unload(key, seg)
		}
	}
	for key := range c.pending {
		if _, ok := target[key]; !ok {
			delete(c.pending, key)
		}
	}
}

// tryLoad generates and populates one segment. On generation failure the
// key is parked in the pending set and retried on the next Update; nothing
// partial is registered.
func (c *ChunkManager) tryLoad(key SegmentKey) {
	placements, err := c.source.Placements(key)
	if err != nil {
		c.pending[key]++
		c.log.Warn("segment generation failed",
			zap.String("segment", key.String()),
			zap.Int("attempt", c.pending[key]),
			zap.Error(err))
		return
	}
	delete(c.pending, key)

	seg := &Segment{
		Key:        key,
		Terrain:    c.terrainNode(key),
		Placements: placements,
	}
	c.content.LoadContent(seg, c.level, c)
	c.root.Add(seg.Terrain)
	c.resident[key] = seg

	if c.bus != nil {
		event.Emit(c.bus, SegmentLoaded{
			Segment:    key,
			Placements: len(seg.Placements),
			Enemies:    len(seg.Enemies),
		})
	}
	c.log.Debug("segment loaded",
		zap.String("segment", key.String()),
		zap.Int("placements", len(seg.Placements)))
}

func (c *ChunkManager) unload(key SegmentKey, seg *Segment) {
	c.content.UnloadContent(seg)
	c.root.Remove(seg.Terrain)
	seg.Terrain.Dispose()
	delete(c.resident, key)

	if c.bus != nil {
		event.Emit(c.bus, SegmentUnloaded{Segment: key})
	}
	c.log.Debug("segment unloaded", zap.String("segment", key.String()))
}

// targetKeys lists every key within the load radius of the current cell,
// row-major from the near corner.
func (c *ChunkManager) targetKeys() []SegmentKey {
	r := c.loadRadius
	keys := make([]SegmentKey, 0, (2*r+1)*(2*r+1))
	for z := c.current.Z - r; z <= c.current.Z+r; z++ {
		for x := c.current.X - r; x <= c.current.X+r; x++ {
			keys = append(keys, SegmentKey{X: x, Z: z})
		}
	}
	return keys
}

func (c *ChunkManager) cellOf(ref scene.Vec3) SegmentKey {
	return SegmentKey{
		X: int32(math.Floor(ref.X / c.size)),
		Z: int32(math.Floor(ref.Z / c.size)),
	}
}

func (c *ChunkManager) terrainNode(key SegmentKey) *scene.Node {
	n := scene.NewNode("terrain")
	n.Position = scene.Vec3{
		X: (float64(key.X) + 0.5) * c.size,
		Z: (float64(key.Z) + 0.5) * c.size,
	}
	return n
}
