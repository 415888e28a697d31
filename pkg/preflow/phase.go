package preflow

import (
	"context"
	"errors"

	"maxflow/pkg/apperror"
)

// StartFirstPhase computes a maximum preflow. Afterwards FlowValue() is the
// maximum flow value and MinCut() describes a minimum cut.
//
// Selection alternates between a highest-active loop and a cheaper loop that
// walks downward from the last discharged level. The order only affects
// running time. Calling it again without Init is a no-op.
func (p *Preflow[V]) StartFirstPhase(ctx context.Context) error {
	switch p.state {
	case StateUninitialized:
		return apperror.New(apperror.CodeInvalidState, "first phase requires Init")
	case StateSecondPhaseDone:
		return apperror.New(apperror.CodeInvalidState, "first phase cannot follow the second phase")
	}
	p.secondPhase = false

	nodes := p.graph.NodeCount()
	for {
		p.stats.Rounds++

		level := -1
		for num := p.opts.PrimaryBudget * nodes; num > 0; num-- {
			n, ok := p.elevator.HighestActive()
			if !ok {
				return p.finishFirstPhase()
			}
			level = p.elevator.HighestActiveLevel()
			if err := p.checkContext(ctx); err != nil {
				return err
			}

			drained, newLevel := p.discharge(n, level, p.target)
			if drained {
				p.elevator.Deactivate(n)
				continue
			}
			p.relabelHighest(level, newLevel)
		}

		for num := p.opts.SecondaryBudget * nodes; num > 0; num-- {
			for level >= 0 && p.elevator.ActiveFree(level) {
				level--
			}

			var n int
			if level == -1 {
				var ok bool
				n, ok = p.elevator.HighestActive()
				if !ok {
					return p.finishFirstPhase()
				}
				level = p.elevator.HighestActiveLevel()
			} else {
				n, _ = p.elevator.ActiveOn(level)
			}
			if err := p.checkContext(ctx); err != nil {
				return err
			}

			drained, newLevel := p.discharge(n, level, p.target)
			if drained {
				p.elevator.Deactivate(n)
				continue
			}
			p.stats.Relabels++
			if newLevel+1 < p.elevator.MaxLevel() {
				p.elevator.LiftActiveOn(level, newLevel+1)
			} else {
				p.elevator.LiftActiveToTop(level)
			}
			p.gap(level)
		}

		if _, ok := p.elevator.HighestActive(); !ok {
			return p.finishFirstPhase()
		}
	}
}

func (p *Preflow[V]) finishFirstPhase() error {
	p.state = StateFirstPhaseDone
	p.debug("preflow first phase finished",
		"flow_value", p.excess[p.target],
		"discharges", p.stats.Discharges,
		"relabels", p.stats.Relabels,
		"gap_lifts", p.stats.GapLifts,
		"rounds", p.stats.Rounds,
	)
	return nil
}

// StartSecondPhase turns the maximum preflow into a maximum flow by sending
// the remaining excess back to the source. Levels are recomputed as residual
// distances to the source and only the highest-active loop is used.
func (p *Preflow[V]) StartSecondPhase(ctx context.Context) error {
	switch p.state {
	case StateSecondPhaseDone:
		return nil
	case StateFirstPhaseDone:
	default:
		return apperror.New(apperror.CodeInvalidState, "second phase requires a finished first phase")
	}

	if !p.secondPhase {
		p.labelFromSource()
		p.secondPhase = true
	}

	for {
		n, ok := p.elevator.HighestActive()
		if !ok {
			break
		}
		level := p.elevator.HighestActiveLevel()
		if err := p.checkContext(ctx); err != nil {
			return err
		}

		drained, newLevel := p.discharge(n, level, p.source)
		if drained {
			p.elevator.Deactivate(n)
			continue
		}
		p.relabelHighest(level, newLevel)
	}

	p.state = StateSecondPhaseDone
	p.debug("preflow second phase finished",
		"flow_value", p.excess[p.target],
		"discharges", p.stats.Discharges,
	)
	return nil
}

// labelFromSource relabels for the second phase. Nodes that could reach the
// target after the first phase keep the top level; the rest get their
// residual BFS distance to the source, or are parked just below the top if
// the source is unreachable.
func (p *Preflow[V]) labelFromSource() {
	n := p.graph.NodeCount()
	reached := make([]bool, n)
	for v := 0; v < n; v++ {
		reached[v] = p.elevator.Level(v) < p.elevator.MaxLevel()
	}

	p.elevator.InitStart()
	p.elevator.InitAddItem(p.source)
	reached[p.source] = true

	queue := []int{p.source}
	for len(queue) > 0 {
		p.elevator.InitNewLevel()
		var next []int
		for _, u := range queue {
			for _, a := range p.graph.OutArcs(u) {
				v := p.graph.Head(a)
				if !reached[v] && p.tol.Positive(p.flow.Get(a)) {
					reached[v] = true
					p.elevator.InitAddItem(v)
					next = append(next, v)
				}
			}
			for _, a := range p.graph.InArcs(u) {
				v := p.graph.Tail(a)
				if !reached[v] && p.tol.Positive(p.capacity.Get(a)-p.flow.Get(a)) {
					reached[v] = true
					p.elevator.InitAddItem(v)
					next = append(next, v)
				}
			}
		}
		queue = next
	}
	p.elevator.InitFinish()

	for v := 0; v < n; v++ {
		switch {
		case !reached[v]:
			p.elevator.DirtyTopButOne(v)
		case v != p.source && v != p.target && p.tol.Positive(p.excess[v]):
			p.elevator.Activate(v)
		}
	}
}

// Run computes a maximum flow: Init, StartFirstPhase, StartSecondPhase.
func (p *Preflow[V]) Run(ctx context.Context) error {
	p.Init()
	if err := p.StartFirstPhase(ctx); err != nil {
		return err
	}
	return p.StartSecondPhase(ctx)
}

// RunMinCut computes the maximum flow value and a minimum cut without
// converting the preflow into a flow: Init, StartFirstPhase.
func (p *Preflow[V]) RunMinCut(ctx context.Context) error {
	p.Init()
	return p.StartFirstPhase(ctx)
}

func (p *Preflow[V]) relabelHighest(level, newLevel int) {
	p.stats.Relabels++
	if newLevel+1 < p.elevator.MaxLevel() {
		p.elevator.LiftHighestActive(newLevel + 1)
	} else {
		p.elevator.LiftHighestActiveToTop()
	}
	p.gap(level)
}

func (p *Preflow[V]) gap(level int) {
	if p.elevator.EmptyLevel(level) {
		p.stats.GapLifts++
		p.elevator.LiftToTop(level)
	}
}

func (p *Preflow[V]) checkContext(ctx context.Context) error {
	if p.stats.Discharges%uint64(p.opts.CheckInterval) != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperror.Wrap(err, apperror.CodeTimeout, "preflow solve timed out")
		}
		return apperror.Wrap(err, apperror.CodeCanceled, "preflow solve canceled")
	}
	return nil
}
