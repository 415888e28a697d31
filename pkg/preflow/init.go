package preflow

import "maxflow/pkg/network"

// Init resets flow and excess to zero, labels every node with its residual
// distance to the target and saturates the source arcs whose head can still
// reach the target.
func (p *Preflow[V]) Init() {
	p.createStructures()

	var zero V
	for n := range p.excess {
		p.excess[n] = zero
	}
	for a := 0; a < p.graph.ArcCount(); a++ {
		p.flow.Set(a, zero)
	}

	p.labelFromTarget()

	for _, a := range p.graph.OutArcs(p.source) {
		c := p.capacity.Get(a)
		if !p.tol.Positive(c) {
			continue
		}
		u := p.graph.Head(a)
		if p.elevator.Level(u) == p.elevator.MaxLevel() {
			continue
		}
		p.flow.Set(a, c)
		p.excess[u] += c
		p.excess[p.source] -= c
		if u != p.target {
			p.elevator.Activate(u)
		}
	}

	p.secondPhase = false
	p.state = StateInitialized
}

// InitFlow starts from an existing flow instead of the zero flow. It returns
// false when existing is not a preflow: an arc value outside [0, capacity] or
// a node other than the source losing more than it receives. After a false
// return the solver must be initialized again before use.
func (p *Preflow[V]) InitFlow(existing network.ArcReader[V]) bool {
	p.createStructures()

	var zero V
	for n := range p.excess {
		p.excess[n] = zero
	}
	for a := 0; a < p.graph.ArcCount(); a++ {
		f := existing.Get(a)
		if p.tol.Negative(f) || p.tol.Less(p.capacity.Get(a), f) {
			p.state = StateUninitialized
			return false
		}
		p.flow.Set(a, f)
		p.excess[p.graph.Head(a)] += f
		p.excess[p.graph.Tail(a)] -= f
	}
	for n, e := range p.excess {
		if n != p.source && p.tol.Negative(e) {
			p.state = StateUninitialized
			return false
		}
	}

	p.labelFromTargetResidual()

	for _, a := range p.graph.OutArcs(p.source) {
		rem := p.capacity.Get(a) - p.flow.Get(a)
		if !p.tol.Positive(rem) {
			continue
		}
		u := p.graph.Head(a)
		if p.elevator.Level(u) == p.elevator.MaxLevel() {
			continue
		}
		p.flow.Set(a, p.capacity.Get(a))
		p.excess[u] += rem
		p.excess[p.source] -= rem
	}
	for _, a := range p.graph.InArcs(p.source) {
		rem := p.flow.Get(a)
		if !p.tol.Positive(rem) {
			continue
		}
		v := p.graph.Tail(a)
		if p.elevator.Level(v) == p.elevator.MaxLevel() {
			continue
		}
		p.flow.Set(a, zero)
		p.excess[v] += rem
		p.excess[p.source] -= rem
	}

	for n, e := range p.excess {
		if n == p.source || n == p.target {
			continue
		}
		if p.elevator.Level(n) < p.elevator.MaxLevel() && p.tol.Positive(e) {
			p.elevator.Activate(n)
		}
	}

	p.secondPhase = false
	p.state = StateInitialized
	return true
}

// labelFromTarget runs a reverse BFS from the target over arcs with positive
// capacity. The source is never labeled.
func (p *Preflow[V]) labelFromTarget() {
	n := p.graph.NodeCount()
	reached := make([]bool, n)
	reached[p.source] = true
	reached[p.target] = true

	p.elevator.InitStart()
	p.elevator.InitAddItem(p.target)

	queue := []int{p.target}
	for len(queue) > 0 {
		p.elevator.InitNewLevel()
		var next []int
		for _, v := range queue {
			for _, a := range p.graph.InArcs(v) {
				u := p.graph.Tail(a)
				if !reached[u] && p.tol.Positive(p.capacity.Get(a)) {
					reached[u] = true
					p.elevator.InitAddItem(u)
					next = append(next, u)
				}
			}
		}
		queue = next
	}
	p.elevator.InitFinish()
}

// labelFromTargetResidual is labelFromTarget for a non-zero starting flow:
// a node is one level above v if it can push to v either along an arc with
// residual capacity or back along an arc carrying flow from v.
func (p *Preflow[V]) labelFromTargetResidual() {
	n := p.graph.NodeCount()
	reached := make([]bool, n)
	reached[p.source] = true
	reached[p.target] = true

	p.elevator.InitStart()
	p.elevator.InitAddItem(p.target)

	queue := []int{p.target}
	for len(queue) > 0 {
		p.elevator.InitNewLevel()
		var next []int
		for _, v := range queue {
			for _, a := range p.graph.InArcs(v) {
				u := p.graph.Tail(a)
				if !reached[u] && p.tol.Positive(p.capacity.Get(a)-p.flow.Get(a)) {
					reached[u] = true
					p.elevator.InitAddItem(u)
					next = append(next, u)
				}
			}
			for _, a := range p.graph.OutArcs(v) {
				u := p.graph.Head(a)
				if !reached[u] && p.tol.Positive(p.flow.Get(a)) {
					reached[u] = true
					p.elevator.InitAddItem(u)
					next = append(next, u)
				}
			}
		}
		queue = next
	}
	p.elevator.InitFinish()
}
