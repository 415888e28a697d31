package preflow

import "maxflow/pkg/network"

// FlowValue returns the excess of the target. After StartFirstPhase this is
// the maximum flow value.
func (p *Preflow[V]) FlowValue() V {
	if p.excess == nil {
		var zero V
		return zero
	}
	return p.excess[p.target]
}

// Flow returns the flow on arc.
func (p *Preflow[V]) Flow(arc int) V {
	if p.flow == nil {
		var zero V
		return zero
	}
	return p.flow.Get(arc)
}

// FlowMap returns the flow store written by the solver.
func (p *Preflow[V]) FlowMap() network.ArcStore[V] {
	return p.flow
}

// Excess returns inflow minus outflow of node.
func (p *Preflow[V]) Excess(node int) V {
	if p.excess == nil {
		var zero V
		return zero
	}
	return p.excess[node]
}

// MinCut reports whether node is on the source side of the minimum cut.
// It is valid after either phase: first-phase levels measure distance to the
// target, second-phase levels distance to the source, and the phase flag
// flips the reading accordingly.
func (p *Preflow[V]) MinCut(node int) bool {
	if p.elevator == nil || p.state == StateUninitialized {
		return false
	}
	return (p.elevator.Level(node) == p.elevator.MaxLevel()) != p.secondPhase
}

// MinCutMap writes MinCut for every node into cut.
func (p *Preflow[V]) MinCutMap(cut network.NodeWriter[bool]) {
	for n := 0; n < p.graph.NodeCount(); n++ {
		cut.Set(n, p.MinCut(n))
	}
}
