package scene

// Root is the live scene container. Attachment here is what "on screen"
// means to the engine: an instance is either attached or pooled, never both.
type Root struct {
	nodes map[uint64]*Node
}

func NewRoot() *Root {
	return &Root{nodes: make(map[uint64]*Node, 256)}
}

// Add attaches a node. Re-adding an attached node is a no-op.
func (r *Root) Add(n *Node) {
	if n == nil {
		return
	}
	r.nodes[n.ID] = n
}

// Remove detaches a node. Removing an unattached node is a no-op.
func (r *Root) Remove(n *Node) {
	if n == nil {
		return
	}
	delete(r.nodes, n.ID)
}

func (r *Root) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	_, ok := r.nodes[n.ID]
	return ok
}

func (r *Root) Len() int { return len(r.nodes) }

// Each visits every attached node.
func (r *Root) Each(fn func(*Node)) {
	for _, n := range r.nodes {
		fn(n)
	}
}
