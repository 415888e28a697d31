// Package service реализует maxflow.solver.v1.SolverService.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"maxflow/pkg/apperror"
	"maxflow/pkg/cache"
	"maxflow/pkg/config"
	"maxflow/pkg/logger"
	"maxflow/pkg/metrics"
	"maxflow/pkg/network"
	"maxflow/pkg/preflow"
	"maxflow/pkg/report"
	"maxflow/pkg/solverapi"
	"maxflow/pkg/telemetry"
	"maxflow/pkg/tolerance"
	"maxflow/services/solver-svc/internal/converter"
	"maxflow/services/solver-svc/internal/repository"
)

// Deps необязательные зависимости сервиса; nil отключает соответствующую функцию
type Deps struct {
	Cache        *cache.SolverCache
	CacheBackend string
	Repository   repository.SolveRepository
	Reports      *report.Registry
	Metrics      *metrics.Metrics
}

type SolverService struct {
	solverapi.UnimplementedSolverServiceServer

	version      string
	cfg          config.SolverConfig
	metrics      *metrics.Metrics
	solverCache  *cache.SolverCache
	cacheBackend string
	repo         repository.SolveRepository
	reports      *report.Registry
}

func NewSolverService(version string, cfg config.SolverConfig, deps Deps) *SolverService {
	m := deps.Metrics
	if m == nil {
		m = metrics.Get()
	}
	reports := deps.Reports
	if reports == nil {
		reports = report.NewRegistry(report.Options{})
	}
	backend := deps.CacheBackend
	if backend == "" {
		backend = cache.BackendMemory
	}
	return &SolverService{
		version:      version,
		cfg:          cfg,
		metrics:      m,
		solverCache:  deps.Cache,
		cacheBackend: backend,
		repo:         deps.Repository,
		reports:      reports,
	}
}

// outcome полный результат решения до обрезки по флагам запроса
type outcome struct {
	resp     *solverapi.SolveResponse
	warnings []string
}

func (s *SolverService) Solve(ctx context.Context, req *solverapi.SolveRequest) (*solverapi.SolveResponse, error) {
	out, err := s.solve(ctx, req)
	if err != nil {
		return nil, err
	}
	return shape(out.resp, req), nil
}

func (s *SolverService) solve(ctx context.Context, req *solverapi.SolveRequest) (*outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.Solve")
	defer span.End()

	if err := req.Validate(); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	// Validate уже проверил режим
	mode, _ := solverapi.ParseMode(string(req.Mode))
	eps := s.epsilon(req)
	span.SetAttributes(
		attribute.String(telemetry.AttrSolveMode, string(mode)),
		attribute.Float64("solve.epsilon", eps),
	)

	net, verrs := converter.ToNetwork(req.Network, converter.Limits{
		MaxNodes: s.cfg.MaxNodes,
		MaxArcs:  s.cfg.MaxArcs,
	})
	if verrs.HasErrors() {
		err := validationError(verrs)
		telemetry.SetError(ctx, err)
		return nil, err
	}
	warnings := verrs.WarningMessages()
	telemetry.SetAttributes(ctx, telemetry.NetworkAttributes(
		net.Graph.NodeCount(), net.Graph.ArcCount(), req.Network.Source, req.Network.Target)...)

	log := logger.FromContext(ctx)
	if len(warnings) > 0 {
		log.Debug("network accepted with warnings", "warnings", warnings)
	}

	// Проверяем кэш
	if s.solverCache != nil && cache.Cacheable(req) {
		cached, found, err := s.solverCache.Get(ctx, req, eps)
		switch {
		case err != nil:
			telemetry.RecordError(ctx, err)
			log.Warn("solve cache lookup failed", "error", err)
		case found:
			s.metrics.RecordCacheHit(s.cacheBackend)
			telemetry.AddEvent(ctx, "cache_hit", attribute.Float64(telemetry.AttrFlowValue, cached.FlowValue))
			span.SetAttributes(attribute.Bool(telemetry.AttrCached, true))
			cached.Cached = true
			return &outcome{resp: cached, warnings: warnings}, nil
		default:
			s.metrics.RecordCacheMiss(s.cacheBackend)
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCached, false))

	var initial network.ArcMap[float64]
	if len(req.InitialFlow) > 0 {
		var err error
		if initial, err = converter.InitialFlow(net, req.InitialFlow); err != nil {
			telemetry.SetError(ctx, err)
			return nil, err
		}
	}

	s.metrics.SolveStarted(string(mode))
	start := time.Now()
	res, err := s.run(ctx, net, mode, tolerance.New(eps), initial)
	elapsed := time.Since(start)

	s.metrics.RecordNetworkSize(string(mode), net.Graph.NodeCount(), net.Graph.ArcCount())
	if err != nil {
		s.metrics.SolveFinished(string(mode), nil)
		s.metrics.RecordSolveOperation(string(mode), false, elapsed, 0)
		telemetry.SetError(ctx, err)
		log.Warn("solve failed", "mode", mode, "error", err, "duration", elapsed)
		return nil, err
	}

	resp := &solverapi.SolveResponse{
		SolveID:     uuid.NewString(),
		Mode:        mode,
		FlowValue:   res.value,
		SourceSide:  converter.SourceSide(net, res.cut),
		CutCapacity: res.cutCapacity,
		NodeCount:   net.Graph.NodeCount(),
		ArcCount:    net.Graph.ArcCount(),
		Stats: solverapi.SolveStats{
			Discharges: int64(res.stats.Discharges),
			Pushes:     int64(res.stats.Pushes),
			Relabels:   int64(res.stats.Relabels),
			GapLifts:   int64(res.stats.GapLifts),
			Rounds:     int64(res.stats.Rounds),
		},
		DurationMs:  float64(elapsed.Microseconds()) / 1000,
		WarmStarted: res.warm,
		CreatedAt:   time.Now().UTC(),
	}
	// preflow после первой фазы не является потоком
	if mode == solverapi.ModeMaxFlow {
		resp.Flows = converter.ArcFlows(req.Network, res.flow)
		resp.CutArcs = converter.CutArcs(req.Network, res.cutArcs, res.flow)
	} else {
		resp.CutArcs = converter.CutArcs(req.Network, res.cutArcs, nil)
	}

	s.metrics.RecordSolveOperation(string(mode), true, elapsed, resp.FlowValue)
	s.metrics.SolveFinished(string(mode), &metrics.EngineSample{
		Nodes:      resp.NodeCount,
		Arcs:       resp.ArcCount,
		Discharges: resp.Stats.Discharges,
		Pushes:     resp.Stats.Pushes,
		Relabels:   resp.Stats.Relabels,
		GapLifts:   resp.Stats.GapLifts,
		Duration:   elapsed,
	})
	telemetry.SetAttributes(ctx, telemetry.SolveAttributes(resp.SolveID, string(mode), resp.FlowValue, len(resp.CutArcs))...)
	telemetry.SetAttributes(ctx, telemetry.EngineAttributes(
		resp.Stats.Discharges, resp.Stats.Pushes, resp.Stats.Relabels, resp.Stats.GapLifts)...)
	span.SetAttributes(attribute.Bool(telemetry.AttrWarmStarted, resp.WarmStarted))

	logger.WithSolve(ctx, resp.SolveID, resp.NodeCount, resp.ArcCount).Info("solved",
		"mode", mode,
		"flow_value", resp.FlowValue,
		"duration_ms", resp.DurationMs,
		"warm_started", resp.WarmStarted,
	)

	if s.solverCache != nil {
		if err := s.solverCache.Set(ctx, req, eps, resp, 0); err != nil {
			log.Warn("failed to cache solve result", "error", err)
		}
	}
	s.record(ctx, req.Network, resp)

	return &outcome{resp: resp, warnings: warnings}, nil
}

// result результат работы движка в индексах графа
type result struct {
	value       float64
	flow        network.ArcMap[float64]
	cut         []bool
	cutArcs     []int
	cutCapacity float64
	stats       preflow.Stats
	warm        bool
}

func (s *SolverService) run(ctx context.Context, net *converter.Network, mode solverapi.Mode, tol tolerance.Tolerance[float64], initial network.ArcMap[float64]) (*result, error) {
	ctx, span := telemetry.StartSpan(ctx, "preflow.run")
	defer span.End()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	p, err := preflow.New[float64](net.Graph, net.Capacity, net.Source, net.Target)
	if err != nil {
		return nil, err
	}
	flow := network.NewArcMap[float64](net.Graph)
	p.SetFlowMap(flow).
		SetTolerance(tol).
		SetOptions(preflow.DefaultOptions().
			WithBudgets(s.cfg.PrimaryBudget, s.cfg.SecondaryBudget).
			WithCheckInterval(s.cfg.CheckInterval).
			WithLogger(logger.FromContext(ctx)))

	warm := false
	if initial != nil {
		warm = p.InitFlow(initial)
		s.metrics.RecordWarmStart(warm)
		if !warm {
			logger.FromContext(ctx).Info("initial flow rejected, starting from zero flow")
		}
	}

	switch {
	case warm && mode == solverapi.ModeMinCut:
		err = p.StartFirstPhase(ctx)
	case warm:
		if err = p.StartFirstPhase(ctx); err == nil {
			err = p.StartSecondPhase(ctx)
		}
	case mode == solverapi.ModeMinCut:
		err = p.RunMinCut(ctx)
	default:
		err = p.Run(ctx)
	}
	if err != nil {
		return nil, err
	}
	telemetry.AddEvent(ctx, "phases_done", attribute.String(telemetry.AttrSolveMode, string(mode)))

	cut := network.NewNodeMap[bool](net.Graph)
	p.MinCutMap(cut)

	res := &result{
		value:       p.FlowValue(),
		flow:        flow,
		cut:         cut,
		cutArcs:     preflow.CutArcs(net.Graph, cut),
		cutCapacity: preflow.CutCapacity[float64](net.Graph, net.Capacity, cut),
		stats:       p.Stats(),
		warm:        warm,
	}

	if s.cfg.Verify {
		if err := s.verify(net, mode, tol, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *SolverService) verify(net *converter.Network, mode solverapi.Mode, tol tolerance.Tolerance[float64], res *result) error {
	var err error
	if mode == solverapi.ModeMaxFlow {
		err = preflow.Verify[float64](net.Graph, net.Capacity, res.flow, net.Source, net.Target, tol)
	} else {
		err = preflow.CheckFeasible[float64](net.Graph, net.Capacity, res.flow, tol)
	}
	if err != nil {
		return err
	}
	return preflow.CheckCut[float64](net.Graph, net.Capacity, res.cut, net.Source, net.Target, res.value, tol)
}

// record сохраняет расчёт в историю; ошибки не прерывают ответ
func (s *SolverService) record(ctx context.Context, n *solverapi.Network, resp *solverapi.SolveResponse) {
	if s.repo == nil {
		return
	}
	id, err := uuid.Parse(resp.SolveID)
	if err != nil {
		return
	}
	err = s.repo.Save(ctx, &repository.Solve{
		ID:          id,
		Mode:        string(resp.Mode),
		FlowValue:   resp.FlowValue,
		CutCapacity: resp.CutCapacity,
		NodeCount:   resp.NodeCount,
		ArcCount:    resp.ArcCount,
		SourceSide:  resp.SourceSide,
		NetworkHash: cache.NetworkHash(n),
		DurationMs:  resp.DurationMs,
		WarmStarted: resp.WarmStarted,
		CreatedAt:   resp.CreatedAt,
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.FromContext(ctx).Warn("failed to save solve history", "solve_id", resp.SolveID, "error", err)
	}
}

func (s *SolverService) epsilon(req *solverapi.SolveRequest) float64 {
	if req.Epsilon > 0 {
		return req.Epsilon
	}
	if s.cfg.Epsilon > 0 {
		return s.cfg.Epsilon
	}
	return tolerance.DefaultFloatEpsilon
}

func (s *SolverService) GetSolve(ctx context.Context, req *solverapi.GetSolveRequest) (*solverapi.SolveRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.GetSolve")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errHistoryDisabled
	}
	id, err := uuid.Parse(req.SolveID)
	if err != nil {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "solve_id is not a valid UUID", "solve_id")
	}
	span.SetAttributes(attribute.String(telemetry.AttrSolveID, req.SolveID))

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSolveNotFound) {
			return nil, apperror.ErrSolveNotFound
		}
		telemetry.SetError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to load solve")
	}
	r := toRecord(rec)
	return &r, nil
}

func (s *SolverService) ListSolves(ctx context.Context, req *solverapi.ListSolvesRequest) (*solverapi.ListSolvesResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.ListSolves")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errHistoryDisabled
	}

	items, total, err := s.repo.List(ctx, repository.ListOptions{Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to list solves")
	}

	out := &solverapi.ListSolvesResponse{
		Solves: make([]solverapi.SolveRecord, 0, len(items)),
		Total:  total,
	}
	for _, it := range items {
		out.Solves = append(out.Solves, toRecord(it))
	}
	return out, nil
}

func (s *SolverService) ExportReport(ctx context.Context, req *solverapi.ExportReportRequest) (*solverapi.ExportReportResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.ExportReport")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	gen, err := s.reports.Get(req.Format)
	if err != nil {
		return nil, err
	}

	out, err := s.solve(ctx, req.Solve)
	if err != nil {
		return nil, err
	}

	data := &report.Data{
		Network:     req.Solve.Network,
		Result:      shape(out.resp, &solverapi.SolveRequest{ReturnFlows: true, ReturnCut: true}),
		Warnings:    out.warnings,
		GeneratedAt: time.Now().UTC(),
	}
	content, err := gen.Generate(ctx, data)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to render report")
	}
	span.SetAttributes(
		attribute.String("report.format", string(gen.Format())),
		attribute.Int("report.bytes", len(content)),
	)

	return &solverapi.ExportReportResponse{
		SolveID:     out.resp.SolveID,
		Filename:    report.Filename(data, gen),
		ContentType: gen.ContentType(),
		Content:     content,
	}, nil
}

var errHistoryDisabled = apperror.New(apperror.CodeUnavailable, "solve history is disabled")

// shape копирует ответ, оставляя только запрошенные части
func shape(full *solverapi.SolveResponse, req *solverapi.SolveRequest) *solverapi.SolveResponse {
	resp := *full
	if !req.ReturnFlows || resp.Mode == solverapi.ModeMinCut {
		resp.Flows = nil
	}
	if !req.ReturnCut {
		resp.SourceSide = nil
		resp.CutArcs = nil
	}
	return &resp
}

func toRecord(s *repository.Solve) solverapi.SolveRecord {
	return solverapi.SolveRecord{
		SolveID:     s.ID.String(),
		Mode:        solverapi.Mode(s.Mode),
		FlowValue:   s.FlowValue,
		CutCapacity: s.CutCapacity,
		NodeCount:   s.NodeCount,
		ArcCount:    s.ArcCount,
		SourceSide:  s.SourceSide,
		DurationMs:  s.DurationMs,
		WarmStarted: s.WarmStarted,
		CreatedAt:   s.CreatedAt,
	}
}

// validationError первая ошибка, остальные сообщения - в деталях
func validationError(v *apperror.ValidationErrors) error {
	first := v.Errors[0]
	if len(v.Errors) == 1 {
		return first
	}
	return apperror.NewWithField(first.Code, first.Message, first.Field).
		WithDetails("errors", strings.Join(v.ErrorMessages(), "; "))
}
