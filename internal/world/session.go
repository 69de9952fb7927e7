package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dustrun/engine/internal/config"
	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/event"
	"github.com/dustrun/engine/internal/pool"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/terrain"
)

// Options configures a new run session. Config defaults when nil; Root and
// Index are created when not supplied, so callers only inject what they
// need to observe or replace.
type Options struct {
	Config  *config.Config
	Level   *data.LevelConfig
	Root    *scene.Root
	Index   Index
	Enemies EnemySpawner
	Rules   RuleScript
	Log     *zap.Logger
}

// Session owns one run's worth of engine state: the scene root, spatial
// index, object pool, feedback bus, and the chunk and content managers
// built over them. Nothing here is shared between sessions; ending a run
// and starting a new one is just dropping the old Session.
type Session struct {
	log   *zap.Logger
	cfg   *config.Config
	root  *scene.Root
	index Index
	bus   *event.Bus
	pool  *pool.Pool
	rules RuleScript

	content *ContentManager
	chunks  *ChunkManager

	score     int
	collected int
	powerup   Powerup
	powerLeft float64
}

// NewSession builds and wires a full session. Wiring errors surface here,
// at construction, not later mid-frame.
func NewSession(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	root := opts.Root
	if root == nil {
		root = scene.NewRoot()
	}
	index := opts.Index
	if index == nil {
		index = NewGrid(cfg.World.SegmentSize)
	}

	s := &Session{
		log:   log,
		cfg:   cfg,
		root:  root,
		index: index,
		bus:   event.NewBus(),
		pool:  pool.New(cfg.Pool.Capacity, log),
		rules: opts.Rules,
	}

	content, err := NewContentManager(root, index, s.pool, opts.Enemies, s.bus, cfg.Magnet, log)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.content = content

	chunks, err := NewChunkManager(content, root, s.bus, cfg.World, log)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.chunks = chunks

	event.Subscribe(s.bus, func(e CoinCollected) {
		s.score += e.Score
		s.collected++
	})

	if opts.Level != nil {
		if err := s.SetLevel(opts.Level); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetLevel installs a level: builds its terrain field and deterministic
// placement generator and hands both to the chunk manager. Prospective
// only; resident segments are untouched.
func (s *Session) SetLevel(level *data.LevelConfig) error {
	if level == nil {
		return fmt.Errorf("session: nil level config")
	}
	seed := level.Seed
	if seed == 0 {
		seed = s.cfg.World.Seed
	}
	field := terrain.New(seed, level.Noise)
	gen, err := NewGenerator(level, field, s.rules, s.cfg.World.SegmentSize, s.log)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.chunks.SetLevelConfig(level, gen, field)
	s.log.Info("level installed",
		zap.String("level", level.Name),
		zap.Int64("seed", seed))
	return nil
}

// Update advances one full frame: powerup countdown, window streaming,
// the collectible and hazard passes, then feedback dispatch. Single
// goroutine, driven by the game loop. The individual steps are exported so
// a phase-ordered runner can interleave its own work between them.
func (s *Session) Update(dt, elapsed float64, ref scene.Vec3) {
	s.Advance(dt)
	s.Stream(ref)
	s.Simulate(dt, elapsed, ref)
	s.Dispatch()
}

// Advance ticks session-level timers.
func (s *Session) Advance(dt float64) {
	if s.powerLeft > 0 {
		s.powerLeft -= dt
		if s.powerLeft <= 0 {
			s.log.Debug("powerup expired")
			s.powerup = PowerupNone
			s.powerLeft = 0
		}
	}
}

// Stream re-centers the segment window on the reference position.
func (s *Session) Stream(ref scene.Vec3) {
	s.chunks.Update(ref)
}

// Simulate runs the per-frame collectible and hazard passes.
func (s *Session) Simulate(dt, elapsed float64, ref scene.Vec3) {
	s.chunks.UpdateCollectibles(dt, elapsed, ref, s.powerup)
	s.chunks.UpdateTumbleweeds(dt, elapsed, ref)
}

// Dispatch delivers the feedback events buffered during this frame.
func (s *Session) Dispatch() {
	s.bus.Flush()
}

// ActivatePowerup arms a powerup for the given duration in seconds,
// replacing whatever was active.
func (s *Session) ActivatePowerup(p Powerup, duration float64) {
	s.powerup = p
	s.powerLeft = duration
}

// ActivePowerup reports the currently armed powerup.
func (s *Session) ActivePowerup() Powerup { return s.powerup }

// Collect attempts a pickup by segment key and placement index.
func (s *Session) Collect(key SegmentKey, index int) bool {
	return s.chunks.CollectObject(key, index)
}

// Reset tears down every resident segment and zeroes run accounting. The
// installed level stays; the next Update rebuilds the window.
func (s *Session) Reset() {
	s.chunks.ClearAllChunks()
	s.score = 0
	s.collected = 0
	s.powerup = PowerupNone
	s.powerLeft = 0
}

// Score reports the accumulated score and pickup count for this run.
func (s *Session) Score() (points, collected int) {
	return s.score, s.collected
}

// Chunks exposes the chunk manager for callers that drive streaming
// directly, such as the initial-load sequence.
func (s *Session) Chunks() *ChunkManager { return s.chunks }

// PoolStats reports the pool's current accounting counters.
func (s *Session) PoolStats() pool.Stats { return s.pool.Stats() }

// Bus exposes the feedback bus for subscriber wiring.
func (s *Session) Bus() *event.Bus { return s.bus }
