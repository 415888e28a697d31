// Package network provides the read-only directed graph and the arc/node
// storage used by the flow solvers.
//
// Nodes and arcs are dense integer ids: nodes are [0, NodeCount()) and arcs
// are [0, ArcCount()). Parallel arcs and anti-parallel arc pairs are allowed.
//
// # Graph capability
//
// Solvers only depend on the Graph interface. Digraph is the concrete static
// container shipped with the package; any type providing the same methods
// can be used instead.
//
// # Example
//
//	b := network.NewBuilder(4)
//	sa, _ := b.AddArc(0, 1)
//	at, _ := b.AddArc(1, 3)
//	g := b.Build()
//
//	capacity := network.NewArcMap[int64](g)
//	capacity.Set(sa, 10)
//	capacity.Set(at, 4)
package network

import (
	"fmt"

	"maxflow/pkg/apperror"
)

// Graph is the read-only view of a directed multigraph.
//
// OutArcs and InArcs return slices owned by the graph; callers must not
// modify them.
type Graph interface {
	NodeCount() int
	ArcCount() int
	// Tail returns u for arc (u, v).
	Tail(arc int) int
	// Head returns v for arc (u, v).
	Head(arc int) int
	OutArcs(node int) []int
	InArcs(node int) []int
}

// =============================================================================
// Digraph
// =============================================================================

// Digraph is an immutable directed multigraph with compressed adjacency.
//
// Arc ids follow insertion order, and adjacency lists keep that order too, so
// every traversal of a Digraph is deterministic.
type Digraph struct {
	tail []int
	head []int

	// outStart[n]..outStart[n+1] indexes outArcs for node n; same for in.
	outStart []int
	outArcs  []int
	inStart  []int
	inArcs   []int
}

// NodeCount returns the number of nodes.
func (g *Digraph) NodeCount() int {
	return len(g.outStart) - 1
}

// ArcCount returns the number of arcs.
func (g *Digraph) ArcCount() int {
	return len(g.tail)
}

// Tail returns the start node of arc.
func (g *Digraph) Tail(arc int) int {
	return g.tail[arc]
}

// Head returns the end node of arc.
func (g *Digraph) Head(arc int) int {
	return g.head[arc]
}

// OutArcs returns the arcs leaving node.
func (g *Digraph) OutArcs(node int) []int {
	return g.outArcs[g.outStart[node]:g.outStart[node+1]]
}

// InArcs returns the arcs entering node.
func (g *Digraph) InArcs(node int) []int {
	return g.inArcs[g.inStart[node]:g.inStart[node+1]]
}

// ValidNode reports whether node is an id of g.
func (g *Digraph) ValidNode(node int) bool {
	return node >= 0 && node < g.NodeCount()
}

// =============================================================================
// Builder
// =============================================================================

// Builder accumulates nodes and arcs for a Digraph.
// A Builder is not safe for concurrent use.
type Builder struct {
	nodes int
	tail  []int
	head  []int
}

// NewBuilder creates a builder with the given number of nodes.
func NewBuilder(nodes int) *Builder {
	if nodes < 0 {
		nodes = 0
	}
	return &Builder{nodes: nodes}
}

// AddNode appends a node and returns its id.
func (b *Builder) AddNode() int {
	b.nodes++
	return b.nodes - 1
}

// NodeCount returns the number of nodes added so far.
func (b *Builder) NodeCount() int {
	return b.nodes
}

// AddArc appends arc (tail, head) and returns its id.
func (b *Builder) AddArc(tail, head int) (int, error) {
	if tail < 0 || tail >= b.nodes {
		return -1, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("arc tail %d out of range [0, %d)", tail, b.nodes), "tail")
	}
	if head < 0 || head >= b.nodes {
		return -1, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("arc head %d out of range [0, %d)", head, b.nodes), "head")
	}
	b.tail = append(b.tail, tail)
	b.head = append(b.head, head)
	return len(b.tail) - 1, nil
}

// MustAddArc is AddArc that panics on invalid endpoints.
// Intended for tests and fixed fixtures.
func (b *Builder) MustAddArc(tail, head int) int {
	a, err := b.AddArc(tail, head)
	if err != nil {
		panic(err)
	}
	return a
}

// Build freezes the builder into a Digraph. The builder can keep being used
// afterwards; later additions do not affect graphs already built.
func (b *Builder) Build() *Digraph {
	n, m := b.nodes, len(b.tail)
	g := &Digraph{
		tail:     append([]int(nil), b.tail...),
		head:     append([]int(nil), b.head...),
		outStart: make([]int, n+1),
		outArcs:  make([]int, m),
		inStart:  make([]int, n+1),
		inArcs:   make([]int, m),
	}

	for a := 0; a < m; a++ {
		g.outStart[g.tail[a]+1]++
		g.inStart[g.head[a]+1]++
	}
	for i := 0; i < n; i++ {
		g.outStart[i+1] += g.outStart[i]
		g.inStart[i+1] += g.inStart[i]
	}

	outPos := append([]int(nil), g.outStart[:n]...)
	inPos := append([]int(nil), g.inStart[:n]...)
	for a := 0; a < m; a++ {
		u, v := g.tail[a], g.head[a]
		g.outArcs[outPos[u]] = a
		outPos[u]++
		g.inArcs[inPos[v]] = a
		inPos[v]++
	}

	return g
}
