// Package solverapi describes the wire contract of maxflow.solver.v1.SolverService.
//
// Messages are plain Go structs carried over gRPC with a JSON codec, so the
// service can be called without generated stubs.
package solverapi

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how far the solver runs.
type Mode string

const (
	// ModeMaxFlow runs both phases and returns a feasible maximum flow.
	ModeMaxFlow Mode = "MAX_FLOW"
	// ModeMinCut stops after the first phase; only the value and the cut are valid.
	ModeMinCut Mode = "MIN_CUT"
)

// ParseMode accepts the canonical names case-insensitively. Empty means MAX_FLOW.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ModeMaxFlow), "MAXFLOW":
		return ModeMaxFlow, nil
	case string(ModeMinCut), "MINCUT":
		return ModeMinCut, nil
	default:
		return "", fmt.Errorf("unknown solve mode %q", s)
	}
}

// ReportFormat is the output format of ExportReport.
type ReportFormat string

const (
	FormatXLSX ReportFormat = "XLSX"
	FormatPDF  ReportFormat = "PDF"
)

// Arc is a directed arc between two caller node ids.
type Arc struct {
	From     int64   `json:"from"`
	To       int64   `json:"to"`
	Capacity float64 `json:"capacity"`
}

// Network is a capacitated network with distinguished source and target.
// Node ids are arbitrary and need not be contiguous.
type Network struct {
	Nodes  []int64 `json:"nodes"`
	Arcs   []Arc   `json:"arcs"`
	Source int64   `json:"source"`
	Target int64   `json:"target"`
}

type SolveRequest struct {
	Network *Network `json:"network"`
	Mode    Mode     `json:"mode,omitempty"`
	// Epsilon overrides the server's comparison tolerance when positive.
	Epsilon float64 `json:"epsilon,omitempty"`
	// InitialFlow, indexed like Network.Arcs, seeds the engine. A flow that is
	// not a valid preflow is ignored and the solve starts from zero.
	InitialFlow []float64 `json:"initial_flow,omitempty"`
	ReturnFlows bool      `json:"return_flows,omitempty"`
	ReturnCut   bool      `json:"return_cut,omitempty"`
}

// ArcFlow is the flow on one request arc; Index refers to Network.Arcs.
type ArcFlow struct {
	Index    int     `json:"index"`
	From     int64   `json:"from"`
	To       int64   `json:"to"`
	Flow     float64 `json:"flow"`
	Capacity float64 `json:"capacity"`
}

type SolveStats struct {
	Discharges int64 `json:"discharges"`
	Pushes     int64 `json:"pushes"`
	Relabels   int64 `json:"relabels"`
	GapLifts   int64 `json:"gap_lifts"`
	Rounds     int64 `json:"rounds"`
}

type SolveResponse struct {
	SolveID     string     `json:"solve_id"`
	Mode        Mode       `json:"mode"`
	FlowValue   float64    `json:"flow_value"`
	Flows       []ArcFlow  `json:"flows,omitempty"`
	SourceSide  []int64    `json:"source_side,omitempty"`
	CutArcs     []ArcFlow  `json:"cut_arcs,omitempty"`
	CutCapacity float64    `json:"cut_capacity"`
	NodeCount   int        `json:"node_count"`
	ArcCount    int        `json:"arc_count"`
	Stats       SolveStats `json:"stats"`
	DurationMs  float64    `json:"duration_ms"`
	Cached      bool       `json:"cached"`
	WarmStarted bool       `json:"warm_started"`
	CreatedAt   time.Time  `json:"created_at"`
}

type GetSolveRequest struct {
	SolveID string `json:"solve_id"`
}

// SolveRecord is the persisted summary of a solve.
type SolveRecord struct {
	SolveID     string    `json:"solve_id"`
	Mode        Mode      `json:"mode"`
	FlowValue   float64   `json:"flow_value"`
	CutCapacity float64   `json:"cut_capacity"`
	NodeCount   int       `json:"node_count"`
	ArcCount    int       `json:"arc_count"`
	SourceSide  []int64   `json:"source_side,omitempty"`
	DurationMs  float64   `json:"duration_ms"`
	WarmStarted bool      `json:"warm_started"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListSolvesRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListSolvesResponse struct {
	Solves []SolveRecord `json:"solves"`
	Total  int64         `json:"total"`
}

type ExportReportRequest struct {
	Solve  *SolveRequest `json:"solve"`
	Format ReportFormat  `json:"format"`
}

type ExportReportResponse struct {
	SolveID     string `json:"solve_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}
