package preflow

// discharge pushes the excess of n, which sits on level, to lower neighbours.
// Out-arcs are scanned first, then in-arcs carrying flow. terminal is the node
// that never gets activated in the current phase.
//
// It returns whether the excess was drained and the lowest level among the
// neighbours n still has residual capacity towards (MaxLevel() if none).
func (p *Preflow[V]) discharge(n, level, terminal int) (bool, int) {
	p.stats.Discharges++

	excess := p.excess[n]
	newLevel := p.elevator.MaxLevel()
	if !p.tol.Positive(excess) {
		return true, newLevel
	}

	for _, a := range p.graph.OutArcs(n) {
		f := p.flow.Get(a)
		rem := p.capacity.Get(a) - f
		if !p.tol.Positive(rem) {
			continue
		}
		v := p.graph.Head(a)
		lv := p.elevator.Level(v)
		if lv >= level {
			if lv < newLevel {
				newLevel = lv
			}
			continue
		}

		p.stats.Pushes++
		if v != terminal {
			p.elevator.Activate(v)
		}
		if !p.tol.Less(rem, excess) {
			delta := excess
			if rem < delta {
				delta = rem
			}
			p.flow.Set(a, f+delta)
			p.excess[v] += delta
			p.excess[n] = excess - delta
			return true, newLevel
		}
		p.flow.Set(a, f+rem)
		p.excess[v] += rem
		excess -= rem
	}

	for _, a := range p.graph.InArcs(n) {
		rem := p.flow.Get(a)
		if !p.tol.Positive(rem) {
			continue
		}
		v := p.graph.Tail(a)
		lv := p.elevator.Level(v)
		if lv >= level {
			if lv < newLevel {
				newLevel = lv
			}
			continue
		}

		p.stats.Pushes++
		if v != terminal {
			p.elevator.Activate(v)
		}
		if !p.tol.Less(rem, excess) {
			delta := excess
			if rem < delta {
				delta = rem
			}
			p.flow.Set(a, rem-delta)
			p.excess[v] += delta
			p.excess[n] = excess - delta
			return true, newLevel
		}
		var zero V
		p.flow.Set(a, zero)
		p.excess[v] += rem
		excess -= rem
	}

	p.excess[n] = excess
	return false, newLevel
}
