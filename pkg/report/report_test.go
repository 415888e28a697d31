package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"maxflow/pkg/apperror"
	"maxflow/pkg/config"
	"maxflow/pkg/solverapi"
)

func sampleData() *Data {
	net := &solverapi.Network{
		Nodes: []int64{1, 2, 3, 4},
		Arcs: []solverapi.Arc{
			{From: 1, To: 2, Capacity: 3},
			{From: 1, To: 3, Capacity: 2},
			{From: 2, To: 4, Capacity: 2},
			{From: 3, To: 4, Capacity: 3},
			{From: 2, To: 3, Capacity: 1},
		},
		Source: 1,
		Target: 4,
	}
	return &Data{
		Network: net,
		Result: &solverapi.SolveResponse{
			SolveID:   "0b6f6a4e-5c1e-4d8f-9d3a-3d7a2c1b0e11",
			Mode:      solverapi.ModeMaxFlow,
			FlowValue: 5,
			Flows: []solverapi.ArcFlow{
				{Index: 0, From: 1, To: 2, Flow: 3, Capacity: 3},
				{Index: 1, From: 1, To: 3, Flow: 2, Capacity: 2},
				{Index: 2, From: 2, To: 4, Flow: 2, Capacity: 2},
				{Index: 3, From: 3, To: 4, Flow: 3, Capacity: 3},
				{Index: 4, From: 2, To: 3, Flow: 1, Capacity: 1},
			},
			SourceSide:  []int64{1},
			CutArcs:     []solverapi.ArcFlow{{Index: 0, From: 1, To: 2, Capacity: 3}, {Index: 1, From: 1, To: 3, Capacity: 2}},
			CutCapacity: 5,
			NodeCount:   4,
			ArcCount:    5,
			Stats:       solverapi.SolveStats{Discharges: 7, Pushes: 9, Relabels: 4},
			DurationMs:  0.4,
		},
		Warnings:    []string{"arc 4 (2->3) has zero capacity"},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Options{})

	g, err := r.Get(solverapi.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", g.Extension())

	g, err = r.Get("pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", g.ContentType())

	_, err = r.Get("CSV")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}

func TestFilename(t *testing.T) {
	d := sampleData()
	assert.Equal(t, "maxflow-0b6f6a4e-5c1e-4d8f-9d3a-3d7a2c1b0e11.pdf", Filename(d, NewPDFGenerator(Options{})))

	d.Result.SolveID = ""
	assert.Equal(t, "maxflow-local.xlsx", Filename(d, NewExcelGenerator(Options{})))
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(config.ReportConfig{
		MaxArcsInTable: 50,
		CompanyName:    "ACME",
		PDF:            config.PDFConfig{PageSize: "Letter"},
	})
	assert.Equal(t, 50, opts.MaxArcsInTable)
	assert.Equal(t, "ACME", opts.CompanyName)
	assert.Equal(t, "Letter", opts.PDF.PageSize)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleData().Network)
	assert.Equal(t, 4, s.NodeCount)
	assert.Equal(t, 5, s.ArcCount)
	assert.InDelta(t, 11.0, s.TotalCapacity, 1e-12)
	assert.InDelta(t, 5.0, s.SourceCapacity, 1e-12)
	assert.InDelta(t, 5.0, s.TargetCapacity, 1e-12)
	assert.InDelta(t, 2.2, s.AverageCapacity, 1e-12)
	assert.InDelta(t, 5.0/12.0, s.Density, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestFlowRows(t *testing.T) {
	flows := []solverapi.ArcFlow{{Flow: 1}, {Flow: 0}, {Flow: 2}, {Flow: 3}}

	rows, omitted := flowRows(flows, 0)
	assert.Len(t, rows, 3)
	assert.Zero(t, omitted)

	rows, omitted = flowRows(flows, 2)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, omitted)
}

func TestFormatIDs(t *testing.T) {
	assert.Equal(t, "1, 2, 3", formatIDs([]int64{1, 2, 3}, 0))
	assert.Equal(t, "1, 2, ... (2 more)", formatIDs([]int64{1, 2, 3, 4}, 2))
	assert.Equal(t, "", formatIDs(nil, 5))
}

func TestUtilization(t *testing.T) {
	assert.InDelta(t, 0.5, Utilization(solverapi.ArcFlow{Flow: 1, Capacity: 2}), 1e-12)
	assert.Zero(t, Utilization(solverapi.ArcFlow{Flow: 0, Capacity: 0}))
}

func TestExcelGenerator_Generate(t *testing.T) {
	g := NewExcelGenerator(Options{CompanyName: "ACME", MaxArcsInTable: 3})

	content, err := g.Generate(context.Background(), sampleData())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetFlows, SheetCut, SheetWarnings}, f.GetSheetList())

	v, err := f.GetCellValue(SheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Maximum Flow Report", v)

	v, _ = f.GetCellValue(SheetSummary, "A2")
	assert.Equal(t, "ACME", v)

	// три строки данных и строка о пропущенных дугах
	v, _ = f.GetCellValue(SheetFlows, "B2")
	assert.Equal(t, "1", v)
	v, _ = f.GetCellValue(SheetFlows, "A5")
	assert.Equal(t, "... and 2 more arcs", v)

	v, _ = f.GetCellValue(SheetCut, "A2")
	assert.Equal(t, "1", v)
	v, _ = f.GetCellValue(SheetCut, "E3")
	assert.Equal(t, "3", v)

	v, _ = f.GetCellValue(SheetWarnings, "A2")
	assert.Equal(t, "arc 4 (2->3) has zero capacity", v)
}

func TestExcelGenerator_MinCutOnly(t *testing.T) {
	d := sampleData()
	d.Result.Mode = solverapi.ModeMinCut
	d.Result.Flows = nil
	d.Warnings = nil

	content, err := NewExcelGenerator(Options{}).Generate(context.Background(), d)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetCut}, f.GetSheetList())
	v, _ := f.GetCellValue(SheetSummary, "A1")
	assert.Equal(t, "Minimum Cut Report", v)
}

func TestPDFGenerator_Generate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"defaults", Options{}},
		{"landscape letter", Options{PDF: config.PDFConfig{PageSize: "Letter", Orientation: "landscape", EnablePageNumbers: true}}},
		{"row limit", Options{MaxArcsInTable: 1, CompanyName: "ACME"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := NewPDFGenerator(tt.opts).Generate(context.Background(), sampleData())
			require.NoError(t, err)
			require.Greater(t, len(content), 5)
			assert.Equal(t, "%PDF-", string(content[:5]))
		})
	}
}

func TestGenerate_NilResult(t *testing.T) {
	ctx := context.Background()
	for _, g := range []Generator{NewExcelGenerator(Options{}), NewPDFGenerator(Options{})} {
		_, err := g.Generate(ctx, &Data{})
		assert.True(t, apperror.Is(err, apperror.CodeNilInput), g.Extension())
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExcelGenerator(Options{}).Generate(ctx, sampleData())
	assert.ErrorIs(t, err, context.Canceled)
}
