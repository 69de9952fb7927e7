package world

import (
	"fmt"

	"github.com/dustrun/engine/internal/scene"
)

// SegmentKey identifies one fixed-size world segment by grid coordinates.
type SegmentKey struct {
	X, Z int32
}

func (k SegmentKey) String() string {
	return fmt.Sprintf("%d,%d", k.X, k.Z)
}

// Class is the placement's tagged variant, decided once at generation time.
type Class uint8

const (
	ClassCollectible Class = iota
	ClassCollidable
	ClassHazard
	ClassEnemy
)

func (c Class) String() string {
	switch c {
	case ClassCollectible:
		return "collectible"
	case ClassCollidable:
		return "collidable"
	case ClassHazard:
		return "hazard"
	case ClassEnemy:
		return "enemy"
	}
	return "unknown"
}

// Placement is one generated content record inside a segment. The raw
// placement list is the single source of truth; the segment's per-class
// views are derived from it and kept consistent on every mutation.
//
// Node is nil iff the placement is uninstantiated, collected, or its
// segment has been unloaded.
type Placement struct {
	Kind     string
	Class    Class
	Index    int // position within the owning segment's placement list
	Position scene.Vec3
	Scale    float64
	Yaw      float64

	Collidable    bool
	Score         int
	Magnetic      bool
	TerrainLocked bool
	AlignOffset   float64
	SpinRate      float64

	Node      *scene.Node
	Collected bool
}

// Segment is one resident region of the streamed world. It owns a terrain
// visual, the ordered placement list, and cached per-class views over it.
type Segment struct {
	Key        SegmentKey
	Terrain    *scene.Node
	Placements []*Placement

	// Derived views, rebuilt at load and maintained incrementally by every
	// later mutation (collection, removal).
	Collectibles []*Placement
	Collidables  []*Placement
	Hazards      []*Placement
	Enemies      []*scene.Node
}

// rebuildViews recomputes the derived per-class collections from the raw
// placement list. Enemies are tracked separately because their instances
// are owned by the enemy subsystem, not the placement records.
func (s *Segment) rebuildViews() {
	s.Collectibles = s.Collectibles[:0]
	s.Collidables = s.Collidables[:0]
	s.Hazards = s.Hazards[:0]
	for _, p := range s.Placements {
		switch p.Class {
		case ClassCollectible:
			if !p.Collected {
				s.Collectibles = append(s.Collectibles, p)
			}
		case ClassCollidable:
			s.Collidables = append(s.Collidables, p)
		case ClassHazard:
			s.Hazards = append(s.Hazards, p)
		}
	}
}

// dropCollectible removes one collected placement from the collectibles
// view without touching the raw list.
func (s *Segment) dropCollectible(p *Placement) {
	for i, c := range s.Collectibles {
		if c == p {
			s.Collectibles = append(s.Collectibles[:i], s.Collectibles[i+1:]...)
			return
		}
	}
}
