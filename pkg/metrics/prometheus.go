package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// gRPC метрики
	GRPCRequestsTotal    *prometheus.CounterVec
	GRPCRequestDuration  *prometheus.HistogramVec
	GRPCRequestsInFlight prometheus.Gauge

	// Решения
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	FlowValue            *prometheus.GaugeVec
	NetworkNodes         *prometheus.HistogramVec
	NetworkArcs          *prometheus.HistogramVec
	WarmStartsTotal      *prometheus.CounterVec

	// Работа движка preflow
	DischargesTotal prometheus.Counter
	PushesTotal     prometheus.Counter
	RelabelsTotal   prometheus.Counter
	GapLiftsTotal   prometheus.Counter
	Engine          *EngineCollector

	// Кэш и БД
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	DBQueryDuration  *prometheus.HistogramVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var (
	defaultMetrics *Metrics
	defaultMu      sync.Mutex
)

// InitMetrics регистрирует метрики в prometheus.DefaultRegisterer
func InitMetrics(namespace, subsystem string) *Metrics {
	m := NewMetrics(prometheus.DefaultRegisterer, namespace, subsystem)

	defaultMu.Lock()
	defaultMetrics = m
	defaultMu.Unlock()
	return m
}

// NewMetrics создаёт набор метрик в указанном реестре
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		GRPCRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "grpc_requests_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "status"},
		),

		GRPCRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "grpc_request_duration_seconds",
				Help:      "Duration of gRPC requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),

		GRPCRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "grpc_requests_in_flight",
				Help:      "Current number of gRPC requests being processed",
			},
		),

		SolveOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"mode", "status"},
		),

		SolveDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),

		FlowValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "flow_value",
				Help:      "Last computed maximum flow value",
			},
			[]string{"mode"},
		),

		NetworkNodes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_nodes",
				Help:      "Number of nodes in solved networks",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 9),
			},
			[]string{"mode"},
		),

		NetworkArcs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_arcs",
				Help:      "Number of arcs in solved networks",
				Buckets:   prometheus.ExponentialBuckets(20, 4, 9),
			},
			[]string{"mode"},
		),

		WarmStartsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warm_starts_total",
				Help:      "Solves seeded with a caller supplied flow",
			},
			[]string{"result"}, // accepted, rejected
		),

		DischargesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "discharges_total",
			Help:      "Node discharges performed by the preflow engine",
		}),

		PushesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pushes_total",
			Help:      "Pushes performed by the preflow engine",
		}),

		RelabelsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "relabels_total",
			Help:      "Relabel operations performed by the preflow engine",
		}),

		GapLiftsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gap_lifts_total",
			Help:      "Gap heuristic activations",
		}),

		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_hits_total",
				Help:      "Solve result cache hits",
			},
			[]string{"backend"},
		),

		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_misses_total",
				Help:      "Solve result cache misses",
			},
			[]string{"backend"},
		),

		DBQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "db_query_duration_seconds",
				Help:      "Duration of solve history queries",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),

		ServiceInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	m.Engine = NewEngineCollector(namespace, subsystem)
	reg.MustRegister(m.Engine)

	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	defaultMu.Lock()
	m := defaultMetrics
	defaultMu.Unlock()

	if m == nil {
		return InitMetrics("maxflow", "")
	}
	return m
}

// RecordGRPCRequest записывает метрики gRPC запроса
func (m *Metrics) RecordGRPCRequest(method string, status string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSolveOperation записывает метрики операции решения
func (m *Metrics) RecordSolveOperation(mode string, success bool, duration time.Duration, flowValue float64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SolveOperationsTotal.WithLabelValues(mode, status).Inc()
	m.SolveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if success {
		m.FlowValue.WithLabelValues(mode).Set(flowValue)
	}
}

// RecordNetworkSize записывает размер сети
func (m *Metrics) RecordNetworkSize(mode string, nodes, arcs int) {
	m.NetworkNodes.WithLabelValues(mode).Observe(float64(nodes))
	m.NetworkArcs.WithLabelValues(mode).Observe(float64(arcs))
}

// RecordEngineWork добавляет счётчики работы движка за одно решение
func (m *Metrics) RecordEngineWork(discharges, pushes, relabels, gapLifts int64) {
	m.DischargesTotal.Add(float64(discharges))
	m.PushesTotal.Add(float64(pushes))
	m.RelabelsTotal.Add(float64(relabels))
	m.GapLiftsTotal.Add(float64(gapLifts))
}

// SolveStarted отмечает вход решения в движок
func (m *Metrics) SolveStarted(mode string) {
	m.Engine.Begin(mode)
}

// SolveFinished отмечает выход из движка и добавляет работу успешного решения
func (m *Metrics) SolveFinished(mode string, sample *EngineSample) {
	m.Engine.End(mode, sample)
	if sample != nil {
		m.RecordEngineWork(sample.Discharges, sample.Pushes, sample.Relabels, sample.GapLifts)
	}
}

// RecordWarmStart отмечает принятую или отклонённую начальную поток-функцию
func (m *Metrics) RecordWarmStart(accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.WarmStartsTotal.WithLabelValues(result).Inc()
}

// RecordCacheHit записывает попадание в кэш
func (m *Metrics) RecordCacheHit(backend string) {
	m.CacheHitsTotal.WithLabelValues(backend).Inc()
}

// RecordCacheMiss записывает промах кэша
func (m *Metrics) RecordCacheMiss(backend string) {
	m.CacheMissesTotal.WithLabelValues(backend).Inc()
}

// DBTimer начинает замер запроса к БД
func (m *Metrics) DBTimer(operation string) *Timer {
	return NewTimer(m.DBQueryDuration, operation)
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer собирает HTTP сервер для метрик без запуска
func NewMetricsServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint
	})

	return &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
