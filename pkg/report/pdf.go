package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"maxflow/pkg/apperror"
	"maxflow/pkg/solverapi"
)

// pdfMaxRows ограничение таблиц в PDF, если MaxArcsInTable не задан
const pdfMaxRows = 30

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	opts Options
}

func NewPDFGenerator(opts Options) *PDFGenerator {
	return &PDFGenerator{opts: opts}
}

func (g *PDFGenerator) Format() solverapi.ReportFormat { return solverapi.FormatPDF }

func (g *PDFGenerator) ContentType() string { return "application/pdf" }

func (g *PDFGenerator) Extension() string { return "pdf" }

var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}
	warningColor   = &props.Color{Red: 243, Green: 156, Blue: 18}
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241}
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141}

	titleStyle = props.Text{
		Size:  22,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	normalStyle = props.Text{Size: 10}

	boldStyle = props.Text{Size: 10, Style: fontstyle.Bold}

	smallStyle = props.Text{Size: 8, Color: darkGrayColor}

	metricValueStyle = props.Text{
		Size:  18,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{BackgroundColor: primaryColor}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{Size: 9, Align: align.Center}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if data == nil || data.Result == nil {
		return nil, apperror.New(apperror.CodeNilInput, "report requires a solve result")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := maroto.New(g.buildConfig())

	g.addHeader(m, data)
	g.addResult(m, data)
	if data.Network != nil {
		g.addNetwork(m, data.Network)
	}
	if len(data.Result.Flows) > 0 {
		g.addSection(m, "Arc Flows")
		g.addFlowTable(m, data.Result.Flows)
	}
	if len(data.Result.CutArcs) > 0 || len(data.Result.SourceSide) > 0 {
		g.addSection(m, "Minimum Cut")
		g.addCut(m, data.Result)
	}
	if len(data.Warnings) > 0 {
		g.addSection(m, "Warnings")
		for _, w := range data.Warnings {
			m.AddRow(6, text.NewCol(12, w, props.Text{Size: 9, Color: warningColor}))
		}
	}
	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *PDFGenerator) buildConfig() *entity.Config {
	pdf := g.opts.PDF
	b := config.NewBuilder().
		WithPageSize(pageSize(pdf.PageSize)).
		WithLeftMargin(orDefault(pdf.MarginLeft, 15)).
		WithTopMargin(orDefault(pdf.MarginTop, 15)).
		WithRightMargin(orDefault(pdf.MarginRight, 15))
	if strings.EqualFold(pdf.Orientation, "landscape") {
		b = b.WithOrientation(orientation.Horizontal)
	}
	if pdf.EnablePageNumbers {
		b = b.WithPageNumber()
	}
	return b.Build()
}

func pageSize(name string) pagesize.Type {
	switch strings.ToUpper(name) {
	case "LETTER":
		return pagesize.Letter
	case "LEGAL":
		return pagesize.Legal
	case "A3":
		return pagesize.A3
	default:
		return pagesize.A4
	}
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *Data) {
	m.AddRow(15, text.NewCol(12, title(data), titleStyle))
	m.AddRow(5, line.NewCol(12))

	author := g.opts.CompanyName
	if author == "" {
		author = "maxflow"
	}
	m.AddRow(6,
		text.NewCol(6, author, smallStyle),
		text.NewCol(6, "Generated: "+generatedAt(data).UTC().Format("2006-01-02 15:04:05"),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(8)
}

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addResult(m core.Maroto, data *Data) {
	res := data.Result
	g.addSection(m, "Result")

	valueLabel := "Maximum Flow"
	if res.Mode == solverapi.ModeMinCut {
		valueLabel = "Minimum Cut"
	}
	g.addMetricCards(m, []metricCard{
		{Label: valueLabel, Value: formatFloat(res.FlowValue, 4), Highlight: true},
		{Label: "Cut Capacity", Value: formatFloat(res.CutCapacity, 4), Highlight: true},
	})
	m.AddRow(5)
	g.addMetricCards(m, []metricCard{
		{Label: "Mode", Value: string(res.Mode)},
		{Label: "Duration", Value: formatDuration(res.DurationMs)},
		{Label: "Discharges", Value: fmt.Sprintf("%d", res.Stats.Discharges)},
		{Label: "Relabels", Value: fmt.Sprintf("%d", res.Stats.Relabels)},
	})

	if res.SolveID != "" {
		m.AddRow(6, text.NewCol(4, "Solve ID", boldStyle), text.NewCol(8, res.SolveID, normalStyle))
	}
	if res.WarmStarted {
		m.AddRow(6, text.NewCol(12, "Started from the supplied initial flow.", smallStyle))
	}
}

func (g *PDFGenerator) addNetwork(m core.Maroto, n *solverapi.Network) {
	s := Summarize(n)
	g.addSection(m, "Network")
	for _, kv := range [][2]string{
		{"Nodes", fmt.Sprintf("%d", s.NodeCount)},
		{"Arcs", fmt.Sprintf("%d", s.ArcCount)},
		{"Source / Target", fmt.Sprintf("%d / %d", n.Source, n.Target)},
		{"Total Capacity", formatFloat(s.TotalCapacity, 2)},
		{"Source Capacity", formatFloat(s.SourceCapacity, 2)},
		{"Target Capacity", formatFloat(s.TargetCapacity, 2)},
		{"Density", formatFloat(s.Density, 4)},
	} {
		m.AddRow(6,
			text.NewCol(6, kv[0], boldStyle),
			text.NewCol(6, kv[1], normalStyle),
		)
	}
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}
	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 12
		}
		cols = append(cols, col.New(colSize).Add(
			text.New(card.Value, valueStyle),
			text.New(card.Label, metricLabelStyle),
		))
	}
	m.AddRow(20, cols...)
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10, text.NewCol(12, title, h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(4)
}

func (g *PDFGenerator) rowLimit() int {
	if g.opts.MaxArcsInTable > 0 {
		return g.opts.MaxArcsInTable
	}
	return pdfMaxRows
}

func (g *PDFGenerator) addFlowTable(m core.Maroto, flows []solverapi.ArcFlow) {
	m.AddRow(8,
		text.NewCol(2, "Arc", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Flow", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Capacity", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Utilization", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	rows, omitted := flowRows(flows, g.rowLimit())
	for _, af := range rows {
		m.AddRow(6,
			text.NewCol(2, fmt.Sprintf("%d", af.Index), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, fmt.Sprintf("%d", af.From), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, fmt.Sprintf("%d", af.To), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, formatFloat(af.Flow, 4), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, formatFloat(af.Capacity, 4), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, formatPercent(Utilization(af)), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
	if omitted > 0 {
		m.AddRow(6, text.NewCol(12, fmt.Sprintf("... and %d more arcs", omitted), smallStyle))
	}
}

func (g *PDFGenerator) addCut(m core.Maroto, res *solverapi.SolveResponse) {
	if len(res.SourceSide) > 0 {
		m.AddRow(6, text.NewCol(12, "Source side", boldStyle))
		m.AddRow(10, text.NewCol(12, formatIDs(res.SourceSide, 100), normalStyle))
	}
	if len(res.CutArcs) == 0 {
		return
	}

	m.AddRow(8,
		text.NewCol(3, "Arc", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Capacity", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)
	limit := g.rowLimit()
	for i, af := range res.CutArcs {
		if i == limit {
			m.AddRow(6, text.NewCol(12, fmt.Sprintf("... and %d more arcs", len(res.CutArcs)-limit), smallStyle))
			break
		}
		m.AddRow(6,
			text.NewCol(3, fmt.Sprintf("%d", af.Index), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, fmt.Sprintf("%d", af.From), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, fmt.Sprintf("%d", af.To), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, formatFloat(af.Capacity, 4), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *Data) {
	m.AddRow(10)
	m.AddRow(2, line.NewCol(12, props.Line{Color: lightGrayColor}))
	m.AddRow(6, text.NewCol(12,
		fmt.Sprintf("Generated by maxflow | %s", generatedAt(data).UTC().Format("2006-01-02 15:04:05")),
		props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
	))
}
