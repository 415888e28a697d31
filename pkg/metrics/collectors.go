package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineSample работа движка за одно решение
type EngineSample struct {
	Nodes      int
	Arcs       int
	Discharges int64
	Pushes     int64
	Relabels   int64
	GapLifts   int64
	Duration   time.Duration
}

// EngineCollector отдаёт число идущих решений и работу последнего решения по режимам
type EngineCollector struct {
	mu      sync.Mutex
	running map[string]int
	last    map[string]EngineSample

	runningDesc  *prometheus.Desc
	workDesc     *prometheus.Desc
	perNodeDesc  *prometheus.Desc
	durationDesc *prometheus.Desc
}

// NewEngineCollector создаёт коллектор движка preflow
func NewEngineCollector(namespace, subsystem string) *EngineCollector {
	return &EngineCollector{
		running: make(map[string]int),
		last:    make(map[string]EngineSample),
		runningDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "engine_solves_running"),
			"Solves currently inside the preflow engine",
			[]string{"mode"}, nil,
		),
		workDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "engine_last_solve_operations"),
			"Engine operations of the last completed solve",
			[]string{"mode", "operation"}, nil,
		),
		perNodeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "engine_last_solve_discharges_per_node"),
			"Discharges per node of the last completed solve",
			[]string{"mode"}, nil,
		),
		durationDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "engine_last_solve_seconds"),
			"Engine time of the last completed solve",
			[]string{"mode"}, nil,
		),
	}
}

// Begin отмечает вход решения в движок
func (c *EngineCollector) Begin(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[mode]++
}

// End отмечает выход из движка; sample == nil для неуспешного решения
func (c *EngineCollector) End(mode string, sample *EngineSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running[mode] > 0 {
		c.running[mode]--
	}
	if sample != nil {
		c.last[mode] = *sample
	}
}

// Running возвращает число решений режима внутри движка
func (c *EngineCollector) Running(mode string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running[mode]
}

// Describe implements prometheus.Collector
func (c *EngineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runningDesc
	ch <- c.workDesc
	ch <- c.perNodeDesc
	ch <- c.durationDesc
}

// Collect implements prometheus.Collector
func (c *EngineCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for mode, n := range c.running {
		ch <- prometheus.MustNewConstMetric(c.runningDesc, prometheus.GaugeValue, float64(n), mode)
	}
	for mode, s := range c.last {
		ch <- prometheus.MustNewConstMetric(c.workDesc, prometheus.GaugeValue, float64(s.Discharges), mode, "discharge")
		ch <- prometheus.MustNewConstMetric(c.workDesc, prometheus.GaugeValue, float64(s.Pushes), mode, "push")
		ch <- prometheus.MustNewConstMetric(c.workDesc, prometheus.GaugeValue, float64(s.Relabels), mode, "relabel")
		ch <- prometheus.MustNewConstMetric(c.workDesc, prometheus.GaugeValue, float64(s.GapLifts), mode, "gap_lift")
		ch <- prometheus.MustNewConstMetric(c.durationDesc, prometheus.GaugeValue, s.Duration.Seconds(), mode)
		if s.Nodes > 0 {
			ch <- prometheus.MustNewConstMetric(c.perNodeDesc, prometheus.GaugeValue, float64(s.Discharges)/float64(s.Nodes), mode)
		}
	}
}

// RequestTracker отслеживает активные запросы
type RequestTracker struct {
	mu       sync.Mutex
	active   map[string]int
	inFlight prometheus.Gauge
}

// NewRequestTracker создаёт новый трекер запросов
func NewRequestTracker(inFlight prometheus.Gauge) *RequestTracker {
	return &RequestTracker{
		active:   make(map[string]int),
		inFlight: inFlight,
	}
}

// Start отмечает начало запроса
func (t *RequestTracker) Start(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[method]++
	t.inFlight.Inc()
}

// End отмечает завершение запроса
func (t *RequestTracker) End(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[method] > 0 {
		t.active[method]--
		t.inFlight.Dec()
	}
}

// Active возвращает число незавершённых запросов метода
func (t *RequestTracker) Active(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[method]
}

// Timer для измерения времени выполнения
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer создаёт новый таймер
func NewTimer(histogram *prometheus.HistogramVec, labels ...string) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram.WithLabelValues(labels...),
	}
}

// ObserveDuration записывает длительность
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	t.observer.Observe(duration.Seconds())
	return duration
}
