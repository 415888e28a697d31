// Package report renders solve results as xlsx or pdf documents.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maxflow/pkg/apperror"
	"maxflow/pkg/config"
	"maxflow/pkg/solverapi"
)

// Data данные для генерации отчёта
type Data struct {
	Title       string
	Network     *solverapi.Network
	Result      *solverapi.SolveResponse
	Warnings    []string
	GeneratedAt time.Time
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *Data) ([]byte, error)
	Format() solverapi.ReportFormat
	ContentType() string
	Extension() string
}

// Options общие настройки генераторов
type Options struct {
	// MaxArcsInTable ограничивает таблицу потоков; 0 - без ограничения
	MaxArcsInTable int
	CompanyName    string
	PDF            config.PDFConfig
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg config.ReportConfig) Options {
	return Options{
		MaxArcsInTable: cfg.MaxArcsInTable,
		CompanyName:    cfg.CompanyName,
		PDF:            cfg.PDF,
	}
}

// Registry генераторы по форматам
type Registry struct {
	generators map[solverapi.ReportFormat]Generator
}

// NewRegistry регистрирует xlsx и pdf генераторы
func NewRegistry(opts Options) *Registry {
	r := &Registry{generators: make(map[solverapi.ReportFormat]Generator)}
	r.Register(NewExcelGenerator(opts))
	r.Register(NewPDFGenerator(opts))
	return r
}

func (r *Registry) Register(g Generator) {
	r.generators[g.Format()] = g
}

// Get возвращает генератор; формат сравнивается без учёта регистра
func (r *Registry) Get(format solverapi.ReportFormat) (Generator, error) {
	g, ok := r.generators[solverapi.ReportFormat(strings.ToUpper(string(format)))]
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unsupported report format %q", format), "format")
	}
	return g, nil
}

// Filename имя файла отчёта
func Filename(data *Data, g Generator) string {
	id := "local"
	if data.Result != nil && data.Result.SolveID != "" {
		id = data.Result.SolveID
	}
	return fmt.Sprintf("maxflow-%s.%s", id, g.Extension())
}

// Summary сводка по входной сети
type Summary struct {
	NodeCount       int
	ArcCount        int
	TotalCapacity   float64
	SourceCapacity  float64
	TargetCapacity  float64
	AverageCapacity float64
	Density         float64
}

// Summarize считает сводку по сети. Петли в ёмкость полюсов не входят.
func Summarize(n *solverapi.Network) Summary {
	var s Summary
	if n == nil {
		return s
	}
	s.NodeCount = len(n.Nodes)
	s.ArcCount = len(n.Arcs)

	for _, a := range n.Arcs {
		s.TotalCapacity += a.Capacity
		if a.From == n.Source && a.To != n.Source {
			s.SourceCapacity += a.Capacity
		}
		if a.To == n.Target && a.From != n.Target {
			s.TargetCapacity += a.Capacity
		}
	}

	if s.ArcCount > 0 {
		s.AverageCapacity = s.TotalCapacity / float64(s.ArcCount)
	}
	if s.NodeCount > 1 {
		maxArcs := s.NodeCount * (s.NodeCount - 1)
		s.Density = float64(s.ArcCount) / float64(maxArcs)
	}
	return s
}

// Utilization доля использованной ёмкости дуги
func Utilization(af solverapi.ArcFlow) float64 {
	if af.Capacity <= 0 {
		return 0
	}
	return af.Flow / af.Capacity
}

func title(data *Data) string {
	if data.Title != "" {
		return data.Title
	}
	if data.Result != nil && data.Result.Mode == solverapi.ModeMinCut {
		return "Minimum Cut Report"
	}
	return "Maximum Flow Report"
}

func generatedAt(data *Data) time.Time {
	if data.GeneratedAt.IsZero() {
		return time.Now()
	}
	return data.GeneratedAt
}

// flowRows дуги с ненулевым потоком, не больше limit
func flowRows(flows []solverapi.ArcFlow, limit int) (rows []solverapi.ArcFlow, omitted int) {
	for _, f := range flows {
		if f.Flow == 0 {
			continue
		}
		if limit > 0 && len(rows) >= limit {
			omitted++
			continue
		}
		rows = append(rows, f)
	}
	return rows, omitted
}

func formatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

func formatIDs(ids []int64, limit int) string {
	var b strings.Builder
	for i, id := range ids {
		if limit > 0 && i == limit {
			fmt.Fprintf(&b, ", ... (%d more)", len(ids)-limit)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

// cellAddr формирует адрес ячейки
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
