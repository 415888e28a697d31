package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"maxflow/pkg/logger"
	"maxflow/pkg/network"
	"maxflow/pkg/preflow"
	"maxflow/pkg/report"
	"maxflow/pkg/solverapi"
	"maxflow/pkg/tolerance"
)

type solveOptions struct {
	minCut  bool
	epsilon float64
	flows   bool
	xlsx    string
	timeout time.Duration
	verify  bool
}

func newSolveCmd() *cobra.Command {
	var o solveOptions

	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve a DIMACS max-flow file locally",
		Long: `Solve reads a DIMACS max-flow instance and prints the solution in DIMACS
form: "s VALUE" followed by "f FROM TO FLOW" lines when --flows is set.

With --min-cut only the first phase runs: the value and a minimum cut are
exact, but the arc values are a preflow and are not printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), cmd.OutOrStdout(), args[0], o)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.minCut, "min-cut", false, "stop after the first phase and print the source side of a minimum cut")
	f.Float64Var(&o.epsilon, "epsilon", 0, "comparison tolerance for capacities (0 = default)")
	f.BoolVar(&o.flows, "flows", false, "print the flow on every arc that carries flow")
	f.StringVar(&o.xlsx, "xlsx", "", "write an xlsx report to this path")
	f.DurationVar(&o.timeout, "timeout", 0, "abort the solve after this duration (0 = no limit)")
	f.BoolVar(&o.verify, "verify", true, "check the flow and the cut before printing")
	return cmd
}

func runSolve(ctx context.Context, out io.Writer, path string, o solveOptions) error {
	if o.minCut && o.flows {
		return errors.New("--flows is not available with --min-cut: the first phase leaves a preflow")
	}
	if o.epsilon < 0 {
		return errors.New("--epsilon must be >= 0")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	p, err := readProblem(path)
	if err != nil {
		return err
	}

	tol := tolerance.Default[float64]()
	if o.epsilon > 0 {
		tol = tolerance.New(o.epsilon)
	}

	solver, err := preflow.New[float64](p.Graph, p.Capacity, p.Source, p.Target)
	if err != nil {
		return err
	}
	flow := network.NewArcMap[float64](p.Graph)
	solver.SetFlowMap(flow).
		SetTolerance(tol).
		SetOptions(preflow.DefaultOptions().WithLogger(logger.Log))

	mode := solverapi.ModeMaxFlow
	start := time.Now()
	if o.minCut {
		mode = solverapi.ModeMinCut
		err = solver.RunMinCut(ctx)
	} else {
		err = solver.Run(ctx)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	cut := network.NewNodeMap[bool](p.Graph)
	solver.MinCutMap(cut)
	value := solver.FlowValue()

	if o.verify {
		if !o.minCut {
			if err := preflow.Verify[float64](p.Graph, p.Capacity, flow, p.Source, p.Target, tol); err != nil {
				return err
			}
		}
		if err := preflow.CheckCut[float64](p.Graph, p.Capacity, cut, p.Source, p.Target, value, tol); err != nil {
			return err
		}
	}

	stats := solver.Stats()
	logger.Log.Info("solved",
		"file", path,
		"mode", mode,
		"nodes", p.Graph.NodeCount(),
		"arcs", p.Graph.ArcCount(),
		"flow_value", value,
		"discharges", stats.Discharges,
		"duration", elapsed,
	)

	fmt.Fprintf(out, "c nodes %d arcs %d\n", p.Graph.NodeCount(), p.Graph.ArcCount())
	if o.minCut {
		fmt.Fprintf(out, "c source-side %s\n", joinSide(cut))
	}
	if o.flows {
		err = network.WriteDIMACSFlow[float64](out, p.Graph, flow, value)
	} else {
		_, err = fmt.Fprintf(out, "s %v\n", value)
	}
	if err != nil {
		return err
	}

	if o.xlsx != "" {
		return writeXLSX(ctx, o.xlsx, p, mode, value, flow, cut, stats, elapsed)
	}
	return nil
}

func joinSide(cut []bool) string {
	var ids []string
	for n, in := range cut {
		if in {
			ids = append(ids, fmt.Sprint(dimacsID(n)))
		}
	}
	return strings.Join(ids, " ")
}

func writeXLSX(ctx context.Context, path string, p *network.Problem, mode solverapi.Mode, value float64,
	flow network.ArcMap[float64], cut []bool, stats preflow.Stats, elapsed time.Duration) error {
	net := toNetwork(p)
	cutArcs := preflow.CutArcs(p.Graph, cut)

	resp := &solverapi.SolveResponse{
		Mode:        mode,
		FlowValue:   value,
		CutCapacity: preflow.CutCapacity[float64](p.Graph, p.Capacity, cut),
		NodeCount:   p.Graph.NodeCount(),
		ArcCount:    p.Graph.ArcCount(),
		Stats: solverapi.SolveStats{
			Discharges: int64(stats.Discharges),
			Pushes:     int64(stats.Pushes),
			Relabels:   int64(stats.Relabels),
			GapLifts:   int64(stats.GapLifts),
			Rounds:     int64(stats.Rounds),
		},
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}
	for n, in := range cut {
		if in {
			resp.SourceSide = append(resp.SourceSide, dimacsID(n))
		}
	}
	for _, a := range cutArcs {
		resp.CutArcs = append(resp.CutArcs, solverapi.ArcFlow{
			Index: a, From: net.Arcs[a].From, To: net.Arcs[a].To, Capacity: net.Arcs[a].Capacity,
		})
	}
	if mode == solverapi.ModeMaxFlow {
		for a, arc := range net.Arcs {
			resp.Flows = append(resp.Flows, solverapi.ArcFlow{
				Index: a, From: arc.From, To: arc.To, Flow: flow[a], Capacity: arc.Capacity,
			})
		}
	}

	content, err := report.NewExcelGenerator(report.Options{}).Generate(ctx, &report.Data{
		Title:       "Maximum Flow Report: " + path,
		Network:     net,
		Result:      resp,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}
