package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сеть
	AttrNetworkNodes  = "network.nodes"
	AttrNetworkArcs   = "network.arcs"
	AttrNetworkSource = "network.source_id"
	AttrNetworkTarget = "network.target_id"

	// Решение
	AttrSolveID     = "solve.id"
	AttrSolveMode   = "solve.mode"
	AttrFlowValue   = "solve.flow_value"
	AttrCutSize     = "solve.cut_size"
	AttrCached      = "solve.cached"
	AttrWarmStarted = "solve.warm_started"

	// Движок preflow
	AttrDischarges = "preflow.discharges"
	AttrPushes     = "preflow.pushes"
	AttrRelabels   = "preflow.relabels"
	AttrGapLifts   = "preflow.gap_lifts"
)

// NetworkAttributes возвращает атрибуты сети
func NetworkAttributes(nodes, arcs int, sourceID, targetID int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrNetworkNodes, nodes),
		attribute.Int(AttrNetworkArcs, arcs),
		attribute.Int64(AttrNetworkSource, sourceID),
		attribute.Int64(AttrNetworkTarget, targetID),
	}
}

// SolveAttributes возвращает атрибуты результата
func SolveAttributes(id, mode string, flowValue float64, cutSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolveID, id),
		attribute.String(AttrSolveMode, mode),
		attribute.Float64(AttrFlowValue, flowValue),
		attribute.Int(AttrCutSize, cutSize),
	}
}

// EngineAttributes возвращает счётчики работы движка
func EngineAttributes(discharges, pushes, relabels, gapLifts int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrDischarges, discharges),
		attribute.Int64(AttrPushes, pushes),
		attribute.Int64(AttrRelabels, relabels),
		attribute.Int64(AttrGapLifts, gapLifts),
	}
}
