// Package converter переводит сети из формата API в network.Digraph и обратно.
package converter

import (
	"fmt"
	"math"
	"slices"

	"maxflow/pkg/apperror"
	"maxflow/pkg/network"
	"maxflow/pkg/solverapi"
)

// Limits ограничения на размер входной сети; 0 снимает ограничение
type Limits struct {
	MaxNodes int
	MaxArcs  int
}

// Network сеть в индексах движка
type Network struct {
	Graph    *network.Digraph
	Capacity network.ArcMap[float64]
	Source   int
	Target   int

	// NodeIDs[i] исходный id узла с индексом i
	NodeIDs []int64
	index   map[int64]int
}

// Index возвращает индекс узла по исходному id
func (n *Network) Index(id int64) (int, bool) {
	i, ok := n.index[id]
	return i, ok
}

// ToNetwork проверяет сеть и строит граф. Индексы узлов следуют порядку
// Nodes, индексы дуг совпадают с индексами Arcs. При ошибках сеть не строится;
// предупреждения (петли, нулевые ёмкости, изолированные полюса) не мешают решению.
func ToNetwork(in *solverapi.Network, limits Limits) (*Network, *apperror.ValidationErrors) {
	v := apperror.NewValidationErrors()

	if in == nil {
		v.Add(apperror.ErrNilGraph)
		return nil, v
	}
	if len(in.Nodes) == 0 {
		v.Add(apperror.ErrEmptyGraph)
		return nil, v
	}
	if limits.MaxNodes > 0 && len(in.Nodes) > limits.MaxNodes {
		v.Add(apperror.New(apperror.CodeGraphTooLarge,
			fmt.Sprintf("network has %d nodes, limit is %d", len(in.Nodes), limits.MaxNodes)).
			WithDetails("node_count", len(in.Nodes)))
	}
	if limits.MaxArcs > 0 && len(in.Arcs) > limits.MaxArcs {
		v.Add(apperror.New(apperror.CodeGraphTooLarge,
			fmt.Sprintf("network has %d arcs, limit is %d", len(in.Arcs), limits.MaxArcs)).
			WithDetails("arc_count", len(in.Arcs)))
	}
	if v.HasErrors() {
		return nil, v
	}

	index := make(map[int64]int, len(in.Nodes))
	for i, id := range in.Nodes {
		if _, dup := index[id]; dup {
			v.Add(apperror.NewWithField(apperror.CodeInvalidGraph,
				fmt.Sprintf("duplicate node id %d", id), "nodes").
				WithDetails("node_id", id))
			continue
		}
		index[id] = i
	}

	source, okS := index[in.Source]
	target, okT := index[in.Target]
	switch {
	case in.Source == in.Target:
		v.Add(apperror.ErrSourceEqualsSink)
	default:
		if !okS {
			v.Add(apperror.NewWithField(apperror.CodeInvalidSource,
				fmt.Sprintf("source node %d not found", in.Source), "source"))
		}
		if !okT {
			v.Add(apperror.NewWithField(apperror.CodeInvalidSink,
				fmt.Sprintf("target node %d not found", in.Target), "target"))
		}
	}

	b := network.NewBuilder(len(in.Nodes))
	capacity := make(network.ArcMap[float64], 0, len(in.Arcs))
	for i, a := range in.Arcs {
		field := fmt.Sprintf("arcs[%d]", i)
		u, okU := index[a.From]
		w, okW := index[a.To]
		if !okU || !okW {
			v.Add(apperror.NewWithField(apperror.CodeDanglingArc,
				fmt.Sprintf("arc %d (%d->%d) references an unknown node", i, a.From, a.To), field))
			continue
		}
		switch {
		case math.IsNaN(a.Capacity) || math.IsInf(a.Capacity, 0):
			v.Add(apperror.NewWithField(apperror.CodeInvalidCapacity,
				fmt.Sprintf("arc %d has non-finite capacity", i), field))
			continue
		case a.Capacity < 0:
			v.Add(apperror.NewWithField(apperror.CodeNegativeCapacity,
				fmt.Sprintf("arc %d has negative capacity %g", i, a.Capacity), field))
			continue
		case a.Capacity == 0:
			v.Add(apperror.NewWarning(apperror.CodeZeroCapacity,
				fmt.Sprintf("arc %d (%d->%d) has zero capacity", i, a.From, a.To)).WithField(field))
		}
		if u == w {
			v.Add(apperror.NewWarning(apperror.CodeSelfLoop,
				fmt.Sprintf("arc %d is a self-loop on node %d", i, a.From)).WithField(field))
		}
		if v.HasErrors() {
			// дальше только собираем ошибки
			continue
		}
		b.MustAddArc(u, w)
		capacity = append(capacity, a.Capacity)
	}

	if v.HasErrors() {
		return nil, v
	}

	g := b.Build()
	out := &Network{
		Graph:    g,
		Capacity: capacity,
		Source:   source,
		Target:   target,
		NodeIDs:  append([]int64(nil), in.Nodes...),
		index:    index,
	}
	if !hasPositive(g.OutArcs(source), capacity) {
		v.Add(apperror.NewWarning(apperror.CodeIsolatedTerminal,
			fmt.Sprintf("source %d has no outgoing capacity", in.Source)).WithField("source"))
	}
	if !hasPositive(g.InArcs(target), capacity) {
		v.Add(apperror.NewWarning(apperror.CodeIsolatedTerminal,
			fmt.Sprintf("target %d has no incoming capacity", in.Target)).WithField("target"))
	}
	return out, v
}

func hasPositive(arcs []int, capacity network.ArcMap[float64]) bool {
	for _, a := range arcs {
		if capacity[a] > 0 {
			return true
		}
	}
	return false
}

// InitialFlow проверяет длину и конечность начального потока
func InitialFlow(n *Network, flow []float64) (network.ArcMap[float64], error) {
	if len(flow) != n.Graph.ArcCount() {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("initial_flow has %d entries, network has %d arcs", len(flow), n.Graph.ArcCount()),
			"initial_flow")
	}
	for i, f := range flow {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("initial_flow[%d] is not finite", i), "initial_flow")
		}
	}
	return append(network.ArcMap[float64](nil), flow...), nil
}

// ArcFlows возвращает поток по каждой дуге запроса
func ArcFlows(in *solverapi.Network, flow network.ArcReader[float64]) []solverapi.ArcFlow {
	out := make([]solverapi.ArcFlow, len(in.Arcs))
	for i, a := range in.Arcs {
		out[i] = solverapi.ArcFlow{
			Index:    i,
			From:     a.From,
			To:       a.To,
			Flow:     flow.Get(i),
			Capacity: a.Capacity,
		}
	}
	return out
}

// SourceSide переводит разрез в исходные id узлов по возрастанию.
// Порядок не зависит от порядка Nodes: кэш считает узлы множеством.
func SourceSide(n *Network, cut []bool) []int64 {
	ids := make([]int64, 0, len(cut))
	for i, in := range cut {
		if in {
			ids = append(ids, n.NodeIDs[i])
		}
	}
	slices.Sort(ids)
	return ids
}

// CutArcs дуги разреза в формате API; Flow заполняется из flow, если он задан
func CutArcs(in *solverapi.Network, arcs []int, flow network.ArcReader[float64]) []solverapi.ArcFlow {
	out := make([]solverapi.ArcFlow, 0, len(arcs))
	for _, i := range arcs {
		a := in.Arcs[i]
		af := solverapi.ArcFlow{Index: i, From: a.From, To: a.To, Capacity: a.Capacity}
		if flow != nil {
			af.Flow = flow.Get(i)
		}
		out = append(out, af)
	}
	return out
}
