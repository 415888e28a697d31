package network

// =============================================================================
// Queue
// =============================================================================

// Queue is a FIFO of node ids backed by a slice with a head pointer.
// The storage is reused between Reset calls.
type Queue struct {
	data []int
	head int
}

// NewQueue creates a queue with room for capacity elements.
func NewQueue(capacity int) *Queue {
	return &Queue{data: make([]int, 0, capacity)}
}

// Push appends v.
func (q *Queue) Push(v int) {
	q.data = append(q.data, v)
}

// Pop removes and returns the front element. Panics on an empty queue.
func (q *Queue) Pop() int {
	v := q.data[q.head]
	q.head++
	return v
}

// Empty reports whether no element is queued.
func (q *Queue) Empty() bool {
	return q.head >= len(q.data)
}

// Len returns the number of queued elements.
func (q *Queue) Len() int {
	return len(q.data) - q.head
}

// Reset empties the queue keeping its capacity.
func (q *Queue) Reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Reachability
// =============================================================================

// ArcFilter decides whether an arc may be traversed in the given direction.
// forward is true when the arc is walked from Tail to Head.
type ArcFilter func(arc int, forward bool) bool

// Reachable returns the nodes reachable from start. Out-arcs are walked
// forward and in-arcs backward, each only if filter allows it. A nil filter
// only walks out-arcs.
func Reachable(g Graph, start int, filter ArcFilter) []bool {
	seen := make([]bool, g.NodeCount())
	if start < 0 || start >= g.NodeCount() {
		return seen
	}
	if filter == nil {
		filter = func(_ int, forward bool) bool { return forward }
	}

	q := NewQueue(g.NodeCount())
	seen[start] = true
	q.Push(start)
	for !q.Empty() {
		n := q.Pop()
		for _, a := range g.OutArcs(n) {
			if v := g.Head(a); !seen[v] && filter(a, true) {
				seen[v] = true
				q.Push(v)
			}
		}
		for _, a := range g.InArcs(n) {
			if u := g.Tail(a); !seen[u] && filter(a, false) {
				seen[u] = true
				q.Push(u)
			}
		}
	}
	return seen
}
