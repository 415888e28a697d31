package network

// ArcReader gives read access to a value per arc, e.g. capacities.
type ArcReader[V any] interface {
	Get(arc int) V
}

// ArcStore is a readable and writable value per arc, e.g. flows.
type ArcStore[V any] interface {
	ArcReader[V]
	Set(arc int, v V)
}

// NodeWriter receives a value per node, e.g. the side of a cut.
type NodeWriter[V any] interface {
	Set(node int, v V)
}

// ArcMap is a slice-backed ArcStore.
type ArcMap[V any] []V

// NewArcMap allocates a zeroed ArcMap for g.
func NewArcMap[V any](g Graph) ArcMap[V] {
	return make(ArcMap[V], g.ArcCount())
}

// Get returns the value stored for arc.
func (m ArcMap[V]) Get(arc int) V { return m[arc] }

// Set stores v for arc.
func (m ArcMap[V]) Set(arc int, v V) { m[arc] = v }

// NodeMap is a slice-backed per-node store.
type NodeMap[V any] []V

// NewNodeMap allocates a zeroed NodeMap for g.
func NewNodeMap[V any](g Graph) NodeMap[V] {
	return make(NodeMap[V], g.NodeCount())
}

// Get returns the value stored for node.
func (m NodeMap[V]) Get(node int) V { return m[node] }

// Set stores v for node.
func (m NodeMap[V]) Set(node int, v V) { m[node] = v }

// Fill sets every arc of m to v.
func (m ArcMap[V]) Fill(v V) {
	for i := range m {
		m[i] = v
	}
}
