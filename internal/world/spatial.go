package world

import "github.com/dustrun/engine/internal/scene"

// Index is the broad-phase contract the engine fulfills for every active
// instance: Add exactly once per activation, Remove exactly once per
// deactivation, Update on every frame an active instance moves. Proximity
// queries are consumed by collision/aggro logic outside this module.
type Index interface {
	Add(id uint64, pos scene.Vec3)
	Remove(id uint64, pos scene.Vec3)
	Update(id uint64, old, new scene.Vec3)
	// NearbyInto appends the IDs in the 3x3 cell neighbourhood of pos to
	// buf and returns it. Callers do fine-grained distance filtering.
	NearbyInto(pos scene.Vec3, buf []uint64) []uint64
}

// Grid implements Index as a cell-hash over the XZ plane. Cell size is
// chosen so a 3x3 neighbourhood fully covers the widest query radius.
// Accessed only from the game loop goroutine, no locks.
type Grid struct {
	cellSize float64
	cells    map[gridCell]map[uint64]struct{}
}

type gridCell struct {
	cx, cz int32
}

// NewGrid creates an empty grid with the given cell size.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 16
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[gridCell]map[uint64]struct{}),
	}
}

func (g *Grid) cellOf(pos scene.Vec3) gridCell {
	return gridCell{
		cx: floorDiv(pos.X, g.cellSize),
		cz: floorDiv(pos.Z, g.cellSize),
	}
}

// floorDiv maps a coordinate to its cell index, rounding toward negative
// infinity so cells tile seamlessly across zero.
func floorDiv(v, size float64) int32 {
	q := v / size
	i := int32(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}

// Add places an instance into the grid.
func (g *Grid) Add(id uint64, pos scene.Vec3) {
	k := g.cellOf(pos)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[uint64]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an instance out of the grid.
func (g *Grid) Remove(id uint64, pos scene.Vec3) {
	k := g.cellOf(pos)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Update re-syncs an instance's cell after a position change.
func (g *Grid) Update(id uint64, old, new scene.Vec3) {
	oldK := g.cellOf(old)
	newK := g.cellOf(new)
	if oldK == newK {
		return
	}
	g.Remove(id, old)
	g.Add(id, new)
}

// NearbyInto appends all instance IDs in the 3x3 neighbourhood around pos.
// The buffer is reused across frames by callers to avoid allocation.
func (g *Grid) NearbyInto(pos scene.Vec3, buf []uint64) []uint64 {
	buf = buf[:0]
	c := g.cellOf(pos)
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			k := gridCell{cx: c.cx + dx, cz: c.cz + dz}
			for id := range g.cells[k] {
				buf = append(buf, id)
			}
		}
	}
	return buf
}

// Count returns the total number of indexed instances. Test/diagnostic use.
func (g *Grid) Count() int {
	total := 0
	for _, cell := range g.cells {
		total += len(cell)
	}
	return total
}

// Contains reports whether an instance is indexed at the given position's
// cell. Test/diagnostic use.
func (g *Grid) Contains(id uint64, pos scene.Vec3) bool {
	cell := g.cells[g.cellOf(pos)]
	if cell == nil {
		return false
	}
	_, ok := cell[id]
	return ok
}
