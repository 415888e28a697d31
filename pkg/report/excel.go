package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"maxflow/pkg/apperror"
	"maxflow/pkg/solverapi"
)

const (
	SheetSummary  = "Summary"
	SheetFlows    = "Arc Flows"
	SheetCut      = "Min Cut"
	SheetWarnings = "Warnings"
)

// ExcelGenerator генератор xlsx отчётов
type ExcelGenerator struct {
	opts Options
}

func NewExcelGenerator(opts Options) *ExcelGenerator {
	return &ExcelGenerator{opts: opts}
}

func (g *ExcelGenerator) Format() solverapi.ReportFormat { return solverapi.FormatXLSX }

func (g *ExcelGenerator) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (g *ExcelGenerator) Extension() string { return "xlsx" }

// Generate генерирует xlsx отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if data == nil || data.Result == nil {
		return nil, apperror.New(apperror.CodeNilInput, "report requires a solve result")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	// Sheet1 переименовываем, чтобы не оставлять пустой лист
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	g.writeSummary(f, data, headerStyle)

	if len(data.Result.Flows) > 0 {
		if err := g.writeFlows(f, data, headerStyle); err != nil {
			return nil, err
		}
	}
	if len(data.Result.SourceSide) > 0 || len(data.Result.CutArcs) > 0 {
		if err := g.writeCut(f, data, headerStyle); err != nil {
			return nil, err
		}
	}
	if len(data.Warnings) > 0 {
		if _, err := f.NewSheet(SheetWarnings); err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
		f.SetCellValue(SheetWarnings, "A1", "Warning")
		f.SetCellStyle(SheetWarnings, "A1", "A1", headerStyle)
		for i, w := range data.Warnings {
			f.SetCellValue(SheetWarnings, cellAddr("A", i+2), w)
		}
		f.SetColWidth(SheetWarnings, "A", "A", 80)
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *Data, headerStyle int) {
	sheet := SheetSummary
	res := data.Result
	row := 1

	f.SetCellValue(sheet, cellAddr("A", row), title(data))
	f.MergeCell(sheet, cellAddr("A", row), cellAddr("B", row))
	row++
	if g.opts.CompanyName != "" {
		f.SetCellValue(sheet, cellAddr("A", row), g.opts.CompanyName)
		row++
	}
	f.SetCellValue(sheet, cellAddr("A", row), "Generated")
	f.SetCellValue(sheet, cellAddr("B", row), generatedAt(data).UTC().Format("2006-01-02 15:04:05"))
	row += 2

	if data.Network != nil {
		s := Summarize(data.Network)
		f.SetCellValue(sheet, cellAddr("A", row), "Network")
		f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++
		for _, kv := range []struct {
			k string
			v any
		}{
			{"Nodes", s.NodeCount},
			{"Arcs", s.ArcCount},
			{"Source", data.Network.Source},
			{"Target", data.Network.Target},
			{"Total Capacity", s.TotalCapacity},
			{"Source Capacity", s.SourceCapacity},
			{"Target Capacity", s.TargetCapacity},
			{"Density", s.Density},
		} {
			f.SetCellValue(sheet, cellAddr("A", row), kv.k)
			f.SetCellValue(sheet, cellAddr("B", row), kv.v)
			row++
		}
		row++
	}

	f.SetCellValue(sheet, cellAddr("A", row), "Result")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++
	for _, kv := range []struct {
		k string
		v any
	}{
		{"Solve ID", res.SolveID},
		{"Mode", string(res.Mode)},
		{"Flow Value", res.FlowValue},
		{"Cut Capacity", res.CutCapacity},
		{"Warm Started", res.WarmStarted},
		{"Duration (ms)", res.DurationMs},
		{"Discharges", res.Stats.Discharges},
		{"Pushes", res.Stats.Pushes},
		{"Relabels", res.Stats.Relabels},
		{"Gap Lifts", res.Stats.GapLifts},
	} {
		f.SetCellValue(sheet, cellAddr("A", row), kv.k)
		f.SetCellValue(sheet, cellAddr("B", row), kv.v)
		row++
	}

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 40)
}

func (g *ExcelGenerator) writeFlows(f *excelize.File, data *Data, headerStyle int) error {
	sheet := SheetFlows
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"Arc", "From", "To", "Flow", "Capacity", "Utilization"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheet, "A1", "F1", headerStyle)

	rows, omitted := flowRows(data.Result.Flows, g.opts.MaxArcsInTable)
	row := 2
	for _, af := range rows {
		f.SetCellValue(sheet, cellAddr("A", row), af.Index)
		f.SetCellValue(sheet, cellAddr("B", row), af.From)
		f.SetCellValue(sheet, cellAddr("C", row), af.To)
		f.SetCellValue(sheet, cellAddr("D", row), af.Flow)
		f.SetCellValue(sheet, cellAddr("E", row), af.Capacity)
		f.SetCellValue(sheet, cellAddr("F", row), Utilization(af))
		row++
	}
	if omitted > 0 {
		f.SetCellValue(sheet, cellAddr("A", row), fmt.Sprintf("... and %d more arcs", omitted))
	}

	f.SetColWidth(sheet, "A", "F", 14)
	return nil
}

func (g *ExcelGenerator) writeCut(f *excelize.File, data *Data, headerStyle int) error {
	sheet := SheetCut
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Source Side")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	for i, id := range data.Result.SourceSide {
		f.SetCellValue(sheet, cellAddr("A", i+2), id)
	}

	headers := []string{"Arc", "From", "To", "Capacity"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('C'+i)), 1), h)
	}
	f.SetCellStyle(sheet, "C1", "F1", headerStyle)
	for i, af := range data.Result.CutArcs {
		row := i + 2
		f.SetCellValue(sheet, cellAddr("C", row), af.Index)
		f.SetCellValue(sheet, cellAddr("D", row), af.From)
		f.SetCellValue(sheet, cellAddr("E", row), af.To)
		f.SetCellValue(sheet, cellAddr("F", row), af.Capacity)
	}

	f.SetColWidth(sheet, "A", "F", 14)
	return nil
}
