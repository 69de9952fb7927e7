// Package scene models the renderer-side contract the engine talks to:
// visual nodes with transforms, composite nodes with named sub-parts, GPU
// resource handles with explicit disposal, and a root container. The real
// renderer lives outside this module; everything here is the minimal shape
// the streaming core needs to own lifecycles and stay headless-testable.
package scene

// instance IDs are handed out from a package counter. The engine is
// single-goroutine by contract, so a plain int is fine.
var nextInstanceID uint64

// Resource is a handle to a renderer-owned allocation (geometry or material
// buffer). Freeing twice is a lifecycle bug we want tests to catch, so the
// free count is observable.
type Resource struct {
	Label     string
	freeCount int
}

func NewResource(label string) *Resource {
	return &Resource{Label: label}
}

// Free releases the allocation. Safe to call on nil.
func (r *Resource) Free() {
	if r == nil {
		return
	}
	r.freeCount++
}

func (r *Resource) Freed() bool   { return r != nil && r.freeCount > 0 }
func (r *Resource) FreeCount() int {
	if r == nil {
		return 0
	}
	return r.freeCount
}

// Node is one visual instance. Simple nodes own a geometry and a material;
// composite nodes additionally own named sub-parts (themselves nodes).
type Node struct {
	ID   uint64
	Kind string
	Name string // part name within a composite, "" for top-level nodes

	Position Vec3
	Scale    float64
	Yaw      float64
	Visible  bool

	Geometry *Resource
	Material *Resource
	Parts    []*Node

	// OnDispose is an instance-specific teardown hook, run once from Dispose
	// after resources are freed.
	OnDispose func()

	disposed     bool
	disposeCount int
}

// NewNode creates a simple visible instance of the given kind.
func NewNode(kind string) *Node {
	nextInstanceID++
	return &Node{
		ID:       nextInstanceID,
		Kind:     kind,
		Scale:    1,
		Visible:  true,
		Geometry: NewResource(kind + "/geometry"),
		Material: NewResource(kind + "/material"),
	}
}

// NewComposite creates a multi-part instance with one sub-part per name.
// The top node carries no geometry of its own.
func NewComposite(kind string, partNames ...string) *Node {
	nextInstanceID++
	n := &Node{
		ID:      nextInstanceID,
		Kind:    kind,
		Scale:   1,
		Visible: true,
	}
	for _, name := range partNames {
		p := NewNode(kind + "/" + name)
		p.Name = name
		n.Parts = append(n.Parts, p)
	}
	return n
}

// Part returns the named sub-part, or nil.
func (n *Node) Part(name string) *Node {
	for _, p := range n.Parts {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// RemovePart detaches and returns the named sub-part. Used only by tests and
// corruption-recovery paths; regular gameplay never dismembers composites.
func (n *Node) RemovePart(name string) *Node {
	for i, p := range n.Parts {
		if p != nil && p.Name == name {
			n.Parts = append(n.Parts[:i], n.Parts[i+1:]...)
			return p
		}
	}
	return nil
}

// Dispose frees the node's resources and its parts' resources, then runs the
// OnDispose hook. Subsequent calls only bump the dispose count.
func (n *Node) Dispose() {
	n.disposeCount++
	if n.disposed {
		return
	}
	n.disposed = true
	n.Geometry.Free()
	n.Material.Free()
	for _, p := range n.Parts {
		if p != nil {
			p.Dispose()
		}
	}
	if n.OnDispose != nil {
		n.OnDispose()
	}
}

func (n *Node) Disposed() bool     { return n.disposed }
func (n *Node) DisposeCount() int  { return n.disposeCount }
