// Package pool recycles deactivated scene instances between segment loads.
// Multi-part content is expensive to construct relative to the streaming
// rate; pooling caps both allocation churn and teardown cost.
package pool

import (
	"go.uber.org/zap"

	"github.com/dustrun/engine/internal/scene"
)

// Categories the streaming core pools under. Retrieval matches on
// (category, kind); distinct categories never share entries.
const (
	CategoryCollectible = "collectible"
	CategoryCollidable  = "collidable"
	CategoryHazard      = "hazard"
)

// Stats is a point-in-time snapshot of pool health.
type Stats struct {
	Pooled    map[string]int // category -> current entry count
	Evictions int            // entries disposed to make room
	Discards  int            // structurally invalid composites disposed
}

// Pool is a bounded per-category cache of hidden, reusable instances.
// Entries are ordered oldest-first; retrieval is LIFO-biased, eviction FIFO.
type Pool struct {
	log      *zap.Logger
	capacity int

	entries map[string][]*scene.Node

	// kind -> required sub-part names. A pooled composite missing any of
	// these is corrupt and is discarded, never repaired.
	required map[string][]string

	// kinds whose orientation is re-applied on every retrieval, regardless
	// of what state the instance was stored with.
	normalizeYaw map[string]float64

	evictions int
	discards  int
}

// New creates a pool with the given per-category capacity.
func New(capacity int, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		log:          log,
		capacity:     capacity,
		entries:      make(map[string][]*scene.Node),
		required:     make(map[string][]string),
		normalizeYaw: make(map[string]float64),
	}
}

// RequireParts registers the structural contract for a composite kind.
// Validation happens once, at the insertion boundary: an entry is either a
// valid template or discarded.
func (p *Pool) RequireParts(kind string, parts ...string) {
	p.required[kind] = parts
}

// NormalizeYaw forces the given yaw onto every retrieved instance of a kind.
// Used for kinds whose orientation must not inherit prior-life state.
func (p *Pool) NormalizeYaw(kind string, yaw float64) {
	p.normalizeYaw[kind] = yaw
}

// Get retrieves a reusable instance. With a kind, it scans from the most
// recently added entry backward for the first kind match; with kind "", it
// pops the newest entry unconditionally. Returns nil when nothing matches;
// an empty pool is a routine outcome, not an error.
func (p *Pool) Get(category, kind string) *scene.Node {
	list := p.entries[category]
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		if kind != "" && n.Kind != kind {
			continue
		}
		// Recheck structure defensively: insertion validation is the
		// invariant, but a disposal bug elsewhere could have stripped parts
		// while the entry sat pooled.
		if !p.structValid(n) {
			p.entries[category] = append(list[:i], list[i+1:]...)
			p.discard(category, n)
			list = p.entries[category]
			continue
		}
		p.entries[category] = append(list[:i], list[i+1:]...)
		n.Visible = true
		if yaw, ok := p.normalizeYaw[n.Kind]; ok {
			n.Yaw = yaw
		}
		return n
	}
	return nil
}

// Put stores a deactivated instance for reuse. Structurally invalid
// composites are disposed immediately and never pooled. At capacity, the
// single oldest entry is evicted and disposed before the new one is
// appended.
func (p *Pool) Put(category string, n *scene.Node) {
	if n == nil {
		return
	}
	if !p.structValid(n) {
		p.discard(category, n)
		return
	}
	resetTransforms(n)
	n.Visible = false

	list := p.entries[category]
	if len(list) >= p.capacity {
		oldest := list[0]
		list = list[1:]
		p.evictions++
		p.dispose(oldest)
		p.log.Debug("pool eviction",
			zap.String("category", category),
			zap.String("kind", oldest.Kind))
	}
	p.entries[category] = append(list, n)
}

// Clear disposes every entry in every category.
func (p *Pool) Clear() {
	for category, list := range p.entries {
		for _, n := range list {
			p.dispose(n)
		}
		delete(p.entries, category)
	}
}

// Len returns the entry count for one category.
func (p *Pool) Len(category string) int {
	return len(p.entries[category])
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	pooled := make(map[string]int, len(p.entries))
	for category, list := range p.entries {
		pooled[category] = len(list)
	}
	return Stats{Pooled: pooled, Evictions: p.evictions, Discards: p.discards}
}

// structValid checks a composite against its registered part contract.
// Simple kinds (no contract) are always valid.
func (p *Pool) structValid(n *scene.Node) bool {
	parts, ok := p.required[n.Kind]
	if !ok {
		return true
	}
	for _, name := range parts {
		if n.Part(name) == nil {
			return false
		}
	}
	return true
}

// resetTransforms restores a composite's sub-parts to canonical defaults so
// the next life starts from a clean template. Top-level transform is left
// alone; the content manager repositions on reuse anyway.
func resetTransforms(n *scene.Node) {
	for _, part := range n.Parts {
		if part == nil {
			continue
		}
		part.Position = scene.Vec3{}
		part.Scale = 1
		part.Yaw = 0
		part.Visible = true
	}
}

// discard handles a structurally corrupt composite: strip resources, log,
// never repair, never pool.
func (p *Pool) discard(category string, n *scene.Node) {
	p.discards++
	p.dispose(n)
	p.log.Warn("discarded corrupt pooled composite",
		zap.String("category", category),
		zap.String("kind", n.Kind))
}

func (p *Pool) dispose(n *scene.Node) {
	n.Dispose()
}
