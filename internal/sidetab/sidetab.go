// Package sidetab provides typed side-tables keyed by scene-instance ID.
// Anything the engine needs to know about a live instance beyond its
// transform (owning segment, motion state, category) lives here instead of
// being hung off the visual node as untyped metadata.
package sidetab

// Removable lets a Registry bulk-remove one instance from every table when
// the instance leaves the world.
type Removable interface {
	Remove(id uint64)
}

// Table is a generic typed map store. No reflect, no interface{}.
type Table[T any] struct {
	data map[uint64]*T
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{data: make(map[uint64]*T, 128)}
}

func (t *Table[T]) Set(id uint64, v *T) {
	t.data[id] = v
}

func (t *Table[T]) Get(id uint64) (*T, bool) {
	v, ok := t.data[id]
	return v, ok
}

func (t *Table[T]) Remove(id uint64) {
	delete(t.data, id)
}

func (t *Table[T]) Has(id uint64) bool {
	_, ok := t.data[id]
	return ok
}

func (t *Table[T]) Len() int { return len(t.data) }

func (t *Table[T]) Each(fn func(uint64, *T)) {
	for id, v := range t.data {
		fn(id, v)
	}
}

// Registry tracks tables for bulk cleanup on instance teardown.
type Registry struct {
	tables []Removable
}

func NewRegistry() *Registry {
	return &Registry{tables: make([]Removable, 0, 8)}
}

func (r *Registry) Register(t Removable) {
	r.tables = append(r.tables, t)
}

// RemoveAll clears the instance from every registered table.
func (r *Registry) RemoveAll(id uint64) {
	for _, t := range r.tables {
		t.Remove(id)
	}
}
