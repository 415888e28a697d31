// Package preflow computes maximum flows and minimum cuts with the
// Goldberg-Tarjan preflow push-relabel algorithm using highest-label
// selection and the gap heuristic.
//
// # Phases
//
// The first phase builds a maximum preflow: once it returns, FlowValue()
// is the maximum flow value and MinCut() describes a minimum cut, but
// interior nodes may still hold excess. The second phase returns that excess
// to the source and leaves a feasible maximum flow.
//
//	Uninitialized -> Init -> StartFirstPhase -> StartSecondPhase
//
// Run performs all three steps, RunMinCut skips the second phase.
//
// # Numeric values
//
// The engine is generic over integer and floating point value types. Every
// comparison against zero and every "less than" goes through a
// tolerance.Tolerance; integer types default to exact comparisons.
//
// # Thread Safety
//
// A Preflow owns its excess, flow and elevator state for the duration of a
// solve and is NOT safe for concurrent use. Independent solves on separate
// Preflow values may run concurrently.
//
// # Context Support
//
// StartFirstPhase and StartSecondPhase poll the context every
// Options.CheckInterval discharges. A canceled solve leaves a valid preflow
// and can be resumed by calling the same phase again.
//
// # Example Usage
//
//	b := network.NewBuilder(2)
//	arc := b.MustAddArc(0, 1)
//	g := b.Build()
//	capacity := network.NewArcMap[int64](g)
//	capacity.Set(arc, 5)
//
//	pf, err := preflow.New[int64](g, capacity, 0, 1)
//	if err != nil {
//	    return err
//	}
//	if err := pf.Run(ctx); err != nil {
//	    return err
//	}
//	fmt.Println(pf.FlowValue()) // 5
package preflow

import (
	"fmt"
	"log/slog"

	"maxflow/pkg/apperror"
	"maxflow/pkg/elevator"
	"maxflow/pkg/network"
	"maxflow/pkg/tolerance"
)

// =============================================================================
// Collaborators
// =============================================================================

// Elevator is the level structure driven by the engine.
// *elevator.Elevator is the default implementation.
type Elevator interface {
	MaxLevel() int
	Level(n int) int
	Active(n int) bool

	InitStart()
	InitAddItem(n int)
	InitNewLevel()
	InitFinish()

	Activate(n int)
	Deactivate(n int)
	HighestActive() (int, bool)
	HighestActiveLevel() int
	ActiveOn(level int) (int, bool)
	ActiveFree(level int) bool

	LiftHighestActive(newLevel int)
	LiftHighestActiveToTop()
	LiftActiveOn(level, newLevel int)
	LiftActiveToTop(level int)
	LiftToTop(level int)
	EmptyLevel(level int) bool
	DirtyTopButOne(n int)
}

var _ Elevator = (*elevator.Elevator)(nil)

// =============================================================================
// State
// =============================================================================

// State is the position of a Preflow in its solve lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateFirstPhaseDone
	StateSecondPhaseDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateFirstPhaseDone:
		return "first_phase_done"
	case StateSecondPhaseDone:
		return "second_phase_done"
	default:
		return "unknown"
	}
}

// Stats counts the work done since the last Init.
type Stats struct {
	Discharges uint64
	Pushes     uint64
	Relabels   uint64
	GapLifts   uint64
	// Rounds counts alternations between the two first-phase schedulers.
	Rounds uint64
}

// =============================================================================
// Options
// =============================================================================

// Options tune scheduling and observability. None of them affects the
// computed flow value.
type Options struct {
	// PrimaryBudget times the node count bounds the discharges of the
	// highest-active loop per first-phase round.
	PrimaryBudget int

	// SecondaryBudget times the node count bounds the discharges of the
	// bound-decrease loop per round. Zero disables that loop.
	SecondaryBudget int

	// CheckInterval is the number of discharges between context checks.
	CheckInterval int

	// Logger receives debug records at phase boundaries. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns the default scheduling budgets.
func DefaultOptions() Options {
	return Options{
		PrimaryBudget:   1,
		SecondaryBudget: 20,
		CheckInterval:   100,
	}
}

// WithBudgets returns a copy with the given scheduler budgets.
func (o Options) WithBudgets(primary, secondary int) Options {
	o.PrimaryBudget = primary
	o.SecondaryBudget = secondary
	return o
}

// WithCheckInterval returns a copy with the given context check interval.
func (o Options) WithCheckInterval(n int) Options {
	o.CheckInterval = n
	return o
}

// WithLogger returns a copy that logs to l.
func (o Options) WithLogger(l *slog.Logger) Options {
	o.Logger = l
	return o
}

func (o Options) normalized() Options {
	if o.PrimaryBudget <= 0 {
		o.PrimaryBudget = 1
	}
	if o.SecondaryBudget < 0 {
		o.SecondaryBudget = 0
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = DefaultOptions().CheckInterval
	}
	return o
}

// =============================================================================
// Preflow
// =============================================================================

// Preflow is a push-relabel max-flow solver over a static graph.
type Preflow[V tolerance.Number] struct {
	graph    network.Graph
	capacity network.ArcReader[V]
	flow     network.ArcStore[V]
	elevator Elevator
	tol      tolerance.Tolerance[V]
	opts     Options

	source int
	target int

	excess      []V
	secondPhase bool
	state       State
	stats       Stats
}

// New creates a solver for the maximum flow from source to target.
// It fails with CodeInvalidArgument if source equals target or either is not
// a node of g.
func New[V tolerance.Number](g network.Graph, capacity network.ArcReader[V], source, target int) (*Preflow[V], error) {
	if g == nil {
		return nil, apperror.ErrNilGraph
	}
	if capacity == nil {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "capacity map is nil", "capacity")
	}

	p := &Preflow[V]{
		graph:    g,
		capacity: capacity,
		tol:      tolerance.Default[V](),
		opts:     DefaultOptions(),
		source:   source,
		target:   target,
	}
	if err := p.checkTerminals(source, target); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Preflow[V]) checkTerminals(source, target int) error {
	n := p.graph.NodeCount()
	if source < 0 || source >= n {
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("source %d out of range [0, %d)", source, n), "source")
	}
	if target < 0 || target >= n {
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("target %d out of range [0, %d)", target, n), "target")
	}
	if source == target {
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			"source and target must differ", "target")
	}
	return nil
}

// SetCapacityMap replaces the capacities. The solver must be initialized
// again before running.
func (p *Preflow[V]) SetCapacityMap(capacity network.ArcReader[V]) *Preflow[V] {
	p.capacity = capacity
	p.state = StateUninitialized
	return p
}

// SetFlowMap makes the solver write flows into flow instead of an internal map.
func (p *Preflow[V]) SetFlowMap(flow network.ArcStore[V]) *Preflow[V] {
	p.flow = flow
	p.state = StateUninitialized
	return p
}

// SetSource changes the source node.
func (p *Preflow[V]) SetSource(source int) error {
	if err := p.checkTerminals(source, p.target); err != nil {
		return err
	}
	p.source = source
	p.state = StateUninitialized
	return nil
}

// SetTarget changes the target node.
func (p *Preflow[V]) SetTarget(target int) error {
	if err := p.checkTerminals(p.source, target); err != nil {
		return err
	}
	p.target = target
	p.state = StateUninitialized
	return nil
}

// SetElevator makes the solver use e for level bookkeeping.
// e.MaxLevel() must equal the node count.
func (p *Preflow[V]) SetElevator(e Elevator) error {
	if e == nil {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "elevator is nil", "elevator")
	}
	if e.MaxLevel() != p.graph.NodeCount() {
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("elevator max level %d does not match node count %d", e.MaxLevel(), p.graph.NodeCount()),
			"elevator")
	}
	p.elevator = e
	p.state = StateUninitialized
	return nil
}

// SetTolerance sets the comparator used for all numeric decisions.
func (p *Preflow[V]) SetTolerance(tol tolerance.Tolerance[V]) *Preflow[V] {
	p.tol = tol
	return p
}

// SetOptions replaces the scheduling options.
func (p *Preflow[V]) SetOptions(opts Options) *Preflow[V] {
	p.opts = opts
	return p
}

// Source returns the source node.
func (p *Preflow[V]) Source() int { return p.source }

// Target returns the target node.
func (p *Preflow[V]) Target() int { return p.target }

// Tolerance returns the comparator in use.
func (p *Preflow[V]) Tolerance() tolerance.Tolerance[V] { return p.tol }

// State returns the lifecycle state.
func (p *Preflow[V]) State() State { return p.state }

// Stats returns the work counters since the last Init.
func (p *Preflow[V]) Stats() Stats { return p.stats }

func (p *Preflow[V]) createStructures() {
	n := p.graph.NodeCount()
	if p.flow == nil {
		p.flow = network.NewArcMap[V](p.graph)
	}
	if p.elevator == nil {
		p.elevator = elevator.New(n)
	}
	if len(p.excess) != n {
		p.excess = make([]V, n)
	}
	p.opts = p.opts.normalized()
	p.stats = Stats{}
}

func (p *Preflow[V]) debug(msg string, args ...any) {
	if p.opts.Logger != nil {
		p.opts.Logger.Debug(msg, args...)
	}
}
