// Package main is the entry point for the solver-svc microservice.
//
// solver-svc computes maximum flows and minimum cuts with the preflow
// push-relabel engine and exposes them as maxflow.solver.v1.SolverService.
//
// # Service Overview
//
// The service exposes the following RPCs (JSON codec, content-subtype "json"):
//   - Solve: maximum flow (MAX_FLOW) or only the flow value and a minimum cut (MIN_CUT)
//   - GetSolve / ListSolves: solve history kept in PostgreSQL
//   - ExportReport: solve and render the result as xlsx or pdf
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: MAXFLOW_)
//  2. Config file (CONFIG_PATH, config.yaml, config/config.yaml)
//  3. Default values from pkg/config/loader.go
//
// Key configuration options (environment variable format):
//
//	# gRPC Server
//	MAXFLOW_GRPC_PORT            - gRPC server port (default: 50052)
//	MAXFLOW_GRPC_REFLECTION      - Enable reflection outside development
//
//	# Solver
//	MAXFLOW_SOLVER_EPSILON          - Comparison tolerance for float capacities
//	MAXFLOW_SOLVER_PRIMARY_BUDGET   - Highest-active discharges per round, times n
//	MAXFLOW_SOLVER_SECONDARY_BUDGET - Bound-decrease discharges per round, times n (0 disables)
//	MAXFLOW_SOLVER_TIMEOUT          - Per-solve deadline
//	MAXFLOW_SOLVER_MAX_NODES        - Reject larger networks
//	MAXFLOW_SOLVER_VERIFY           - Check feasibility, conservation and the cut after each solve
//
//	# History
//	MAXFLOW_DATABASE_ENABLED      - Store solve history in PostgreSQL (default: false, in-memory)
//	MAXFLOW_DATABASE_AUTO_MIGRATE - Apply embedded goose migrations on start
//
//	# Caching
//	MAXFLOW_CACHE_ENABLED - Enable result caching
//	MAXFLOW_CACHE_DRIVER  - memory or redis
//
//	# Auth
//	MAXFLOW_AUTH_ENABLED - Require HS256 bearer tokens (see flowctl token)
//	MAXFLOW_AUTH_SECRET  - Signing secret
//
//	# Rate limiting
//	MAXFLOW_RATELIMIT_ENABLED  - Limit calls per token subject or client IP
//	MAXFLOW_RATELIMIT_BACKEND  - memory or redis (shares the cache address)
//	MAXFLOW_RATELIMIT_REQUESTS - Calls per MAXFLOW_RATELIMIT_WINDOW
//	MAXFLOW_RATELIMIT_METHODS  - Limited methods, comma separated (empty = all)
//
// # Interceptor Chain
//
//  1. Recovery - panics become codes.Internal
//  2. Tracing - OpenTelemetry server spans (if enabled)
//  3. Logging - request id and structured request logs
//  4. Metrics - Prometheus request counters and latency
//  5. Auth - JWT validation (if enabled, health is public)
//  6. Rate limit - ResourceExhausted over the limit (if enabled)
//  7. Validation - request shape checks
//
// # Graceful Shutdown
//
// With PostgreSQL enabled the pool is pinged periodically and a failing ping
// turns the health status NOT_SERVING until the pool recovers.
//
// On SIGINT or SIGTERM the health status goes NOT_SERVING, in-flight requests
// drain up to GRPC.ShutdownTimeout, then the cache, database, tracer and rate
// limiter are closed in reverse registration order.
package main

import (
	"context"
	"errors"
	"log"

	"maxflow/migrations"
	"maxflow/pkg/cache"
	"maxflow/pkg/config"
	"maxflow/pkg/database"
	"maxflow/pkg/logger"
	"maxflow/pkg/metrics"
	"maxflow/pkg/report"
	"maxflow/pkg/server"
	"maxflow/pkg/solverapi"
	"maxflow/pkg/telemetry"
	"maxflow/services/solver-svc/internal/repository"
	"maxflow/services/solver-svc/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	if cfg.IsProduction() && !cfg.Auth.Enabled {
		logger.Log.Warn("Running in production with auth disabled")
	}

	ctx := context.Background()

	var closers []func(context.Context) error

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			closers = append(closers, tp.Shutdown)
			logger.Log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	m := metrics.InitMetrics(cfg.Metrics.Namespace, "solver")

	// История решений: PostgreSQL, если включена, иначе в памяти
	var repo repository.SolveRepository = repository.NewMemorySolveRepository()
	var healthCheck func(context.Context) error
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	switch {
	case errors.Is(err, database.ErrDisabled):
		logger.Log.Info("Database disabled, solve history is kept in memory")
	case err != nil:
		logger.Fatal("failed to connect to database", "error", err)
	default:
		if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database,
			migrations.PostgresMigrations, migrations.PostgresDir); err != nil {
			logger.Fatal("failed to run migrations", "error", err)
		}
		repo = repository.NewPostgresSolveRepository(db)
		healthCheck = db.HealthCheck
		closers = append(closers, func(context.Context) error {
			db.Close()
			return nil
		})
	}

	var solverCache *cache.SolverCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(ctx, cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			solverCache = cache.NewSolverCache(baseCache, cfg.Cache.DefaultTTL)
			closers = append(closers, func(context.Context) error { return solverCache.Close() })
			logger.Log.Info("Solver cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	srv, err := server.NewWithOptions(cfg, &server.ServerOptions{
		Metrics:     m,
		HealthCheck: healthCheck,
	})
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	for _, c := range closers {
		srv.OnShutdown(c)
	}

	solverService := service.NewSolverService(cfg.App.Version, cfg.Solver, service.Deps{
		Cache:        solverCache,
		CacheBackend: cfg.Cache.Driver,
		Repository:   repo,
		Reports:      report.NewRegistry(report.FromConfig(cfg.Report)),
		Metrics:      m,
	})
	solverapi.RegisterSolverServiceServer(srv.GetEngine(), solverService)

	logger.Info("Starting solver service",
		"port", cfg.GRPC.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"cache_enabled", solverCache != nil,
		"database_enabled", db != nil,
		"auth_enabled", cfg.Auth.Enabled,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
