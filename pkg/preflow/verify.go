package preflow

import (
	"fmt"

	"maxflow/pkg/apperror"
	"maxflow/pkg/network"
	"maxflow/pkg/tolerance"
)

// CheckFeasible verifies 0 <= flow(a) <= capacity(a) for every arc.
func CheckFeasible[V tolerance.Number](g network.Graph, capacity, flow network.ArcReader[V], tol tolerance.Tolerance[V]) error {
	for a := 0; a < g.ArcCount(); a++ {
		f, c := flow.Get(a), capacity.Get(a)
		if tol.Negative(f) || tol.Less(c, f) {
			return apperror.New(apperror.CodeFlowViolation,
				fmt.Sprintf("arc %d (%d->%d) carries %v outside [0, %v]", a, g.Tail(a), g.Head(a), f, c)).
				WithDetails("arc", a)
		}
	}
	return nil
}

// CheckConservation verifies that every node other than source and target
// has zero excess.
func CheckConservation[V tolerance.Number](g network.Graph, flow network.ArcReader[V], source, target int, tol tolerance.Tolerance[V]) error {
	excess := Excesses(g, flow)
	for n, e := range excess {
		if n == source || n == target {
			continue
		}
		if tol.NonZero(e) {
			return apperror.New(apperror.CodeConservationViolation,
				fmt.Sprintf("node %d has excess %v", n, e)).
				WithDetails("node", n)
		}
	}
	return nil
}

// Verify checks that flow is a feasible flow from source to target.
func Verify[V tolerance.Number](g network.Graph, capacity, flow network.ArcReader[V], source, target int, tol tolerance.Tolerance[V]) error {
	if err := CheckFeasible(g, capacity, flow, tol); err != nil {
		return err
	}
	return CheckConservation(g, flow, source, target, tol)
}

// Excesses returns inflow minus outflow for every node.
func Excesses[V tolerance.Number](g network.Graph, flow network.ArcReader[V]) []V {
	excess := make([]V, g.NodeCount())
	for a := 0; a < g.ArcCount(); a++ {
		f := flow.Get(a)
		excess[g.Head(a)] += f
		excess[g.Tail(a)] -= f
	}
	return excess
}

// CutCapacity sums the capacities of arcs leaving the source side.
func CutCapacity[V tolerance.Number](g network.Graph, capacity network.ArcReader[V], sourceSide []bool) V {
	var sum V
	for _, a := range CutArcs(g, sourceSide) {
		sum += capacity.Get(a)
	}
	return sum
}

// CutArcs returns the arcs going from the source side to the target side.
func CutArcs(g network.Graph, sourceSide []bool) []int {
	var arcs []int
	for a := 0; a < g.ArcCount(); a++ {
		if sourceSide[g.Tail(a)] && !sourceSide[g.Head(a)] {
			arcs = append(arcs, a)
		}
	}
	return arcs
}

// CheckCut verifies that sourceSide separates source from target and that
// its capacity equals value.
func CheckCut[V tolerance.Number](g network.Graph, capacity network.ArcReader[V], sourceSide []bool, source, target int, value V, tol tolerance.Tolerance[V]) error {
	if !sourceSide[source] || sourceSide[target] {
		return apperror.New(apperror.CodeCutMismatch, "cut does not separate source from target")
	}
	if c := CutCapacity(g, capacity, sourceSide); tol.Different(c, value) {
		return apperror.New(apperror.CodeCutMismatch,
			fmt.Sprintf("cut capacity %v differs from flow value %v", c, value)).
			WithDetails("cut_capacity", c)
	}
	return nil
}
