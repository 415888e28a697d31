package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"maxflow/pkg/auth"
	"maxflow/pkg/config"
	"maxflow/pkg/interceptors"
	"maxflow/pkg/logger"
	"maxflow/pkg/metrics"
	"maxflow/pkg/ratelimit"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultHealthInterval  = 15 * time.Second
)

// GRPCServer обёртка над grpc.Server
type GRPCServer struct {
	server      *grpc.Server
	health      *health.Server
	metricsHTTP *http.Server
	metrics     *metrics.Metrics
	serviceName string
	config      *config.Config
	closers     []func(context.Context) error

	healthCheck    func(context.Context) error
	healthInterval time.Duration
}

// ServerOptions дополнительные опции сервера
type ServerOptions struct {
	// Auth переопределяет менеджер токенов из cfg.Auth
	Auth    *auth.Manager
	Metrics *metrics.Metrics
	// Limiter переопределяет лимитер из cfg.RateLimit; сервер закрывает его при остановке
	Limiter ratelimit.Limiter
	// HealthCheck проверяет зависимости (например, пул БД); ошибка переводит health в NOT_SERVING
	HealthCheck    func(context.Context) error
	HealthInterval time.Duration
}

// New создаёт новый gRPC сервер
func New(cfg *config.Config) (*GRPCServer, error) {
	return NewWithOptions(cfg, nil)
}

// NewWithOptions создаёт сервер с дополнительными опциями
func NewWithOptions(cfg *config.Config, opts *ServerOptions) (*GRPCServer, error) {
	if opts == nil {
		opts = &ServerOptions{}
	}

	authMgr := opts.Auth
	if authMgr == nil && cfg.Auth.Enabled {
		var err error
		authMgr, err = auth.NewManager(auth.Config{
			Secret: cfg.Auth.Secret,
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		logger.Log.Info("Token authentication enabled", "issuer", cfg.Auth.Issuer)
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Get()
	}

	limiter := opts.Limiter
	if limiter == nil && cfg.RateLimit.Enabled {
		var err error
		limiter, err = ratelimit.New(context.Background(), cfg.RateLimit, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		logger.Log.Info("Rate limiting enabled",
			"backend", cfg.RateLimit.Backend,
			"requests", cfg.RateLimit.Requests,
			"window", cfg.RateLimit.Window,
		)
	}

	interceptorCfg := &interceptors.ServerConfig{
		ServiceName:   cfg.App.Name,
		EnableTracing: cfg.Tracing.Enabled,
		Metrics:       m,
		Auth:          authMgr,
		PublicMethods: cfg.Auth.PublicMethods,
		Limiter:       limiter,
		LimitMethods:  cfg.RateLimit.Methods,
	}

	serverOpts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     cfg.GRPC.KeepAlive.MaxConnectionIdle,
			MaxConnectionAge:      cfg.GRPC.KeepAlive.MaxConnectionAge,
			MaxConnectionAgeGrace: cfg.GRPC.KeepAlive.MaxConnectionAgeGrace,
			Time:                  cfg.GRPC.KeepAlive.Time,
			Timeout:               cfg.GRPC.KeepAlive.Timeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(interceptors.UnaryServerInterceptors(interceptorCfg)...),
		grpc.ChainStreamInterceptor(interceptors.StreamServerInterceptors(interceptorCfg)...),
	}
	if cfg.GRPC.MaxRecvMsgSize > 0 {
		serverOpts = append(serverOpts, grpc.MaxRecvMsgSize(cfg.GRPC.MaxRecvMsgSize))
	}
	if cfg.GRPC.MaxSendMsgSize > 0 {
		serverOpts = append(serverOpts, grpc.MaxSendMsgSize(cfg.GRPC.MaxSendMsgSize))
	}
	if cfg.GRPC.MaxConcurrentConn > 0 {
		serverOpts = append(serverOpts, grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentConn)))
	}

	if cfg.GRPC.TLS.Enabled {
		creds, err := credentials.NewServerTLSFromFile(cfg.GRPC.TLS.CertFile, cfg.GRPC.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}

	s := grpc.NewServer(serverOpts...)

	h := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, h)

	if cfg.GRPC.Reflection || cfg.IsDevelopment() {
		reflection.Register(s)
		logger.Log.Debug("gRPC reflection enabled")
	}

	srv := &GRPCServer{
		server:      s,
		health:      h,
		metrics:     m,
		serviceName: cfg.App.Name,
		config:      cfg,

		healthCheck:    opts.HealthCheck,
		healthInterval: opts.HealthInterval,
	}
	if srv.healthInterval <= 0 {
		srv.healthInterval = defaultHealthInterval
	}
	if limiter != nil {
		srv.OnShutdown(func(context.Context) error { return limiter.Close() })
	}
	if cfg.Metrics.Enabled {
		srv.metricsHTTP = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}
	return srv, nil
}

// GetEngine возвращает *grpc.Server для регистрации сервисов
func (s *GRPCServer) GetEngine() *grpc.Server {
	return s.server
}

// OnShutdown регистрирует функцию, вызываемую при остановке (в обратном порядке)
func (s *GRPCServer) OnShutdown(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Run слушает порт из конфигурации до SIGINT/SIGTERM
func (s *GRPCServer) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.config.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve обслуживает lis до отмены ctx, затем выполняет graceful shutdown
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	if s.metricsHTTP != nil {
		go func() {
			logger.Log.Info("Starting metrics server", "addr", s.metricsHTTP.Addr)
			if err := s.metricsHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	s.SetServingStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	s.metrics.SetServiceInfo(s.config.App.Version, s.config.App.Environment)

	healthCtx, stopHealth := context.WithCancel(ctx)
	var healthWG sync.WaitGroup
	defer healthWG.Wait()
	defer stopHealth()
	if s.healthCheck != nil {
		healthWG.Add(1)
		go func() {
			defer healthWG.Done()
			s.watchHealth(healthCtx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting gRPC server",
			"service", s.serviceName,
			"addr", lis.Addr().String(),
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		errCh <- s.server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		s.runClosers(context.Background())
		return err
	case <-ctx.Done():
		logger.Log.Info("Shutting down", "reason", context.Cause(ctx))
	}

	stopHealth()
	healthWG.Wait()
	return s.Shutdown(context.Background())
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckHealth(ctx)
		}
	}
}

// CheckHealth выполняет HealthCheck и обновляет статус; возвращает итоговый статус
func (s *GRPCServer) CheckHealth(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if s.healthCheck == nil {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.healthCheck(ctx); err != nil {
		if ctx.Err() != nil {
			return status
		}
		logger.Log.Warn("Health check failed", "error", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.SetServingStatus(status)
	return status
}

// Shutdown переводит health в NOT_SERVING, дожидается активных запросов
// не дольше ShutdownTimeout и закрывает зарегистрированные ресурсы
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	timeout := s.config.GRPC.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("Server stopped gracefully")
	case <-ctx.Done():
		logger.Log.Warn("Forcing server stop")
		s.server.Stop()
		<-done
	}

	if s.metricsHTTP != nil {
		if err := s.metricsHTTP.Shutdown(ctx); err != nil {
			logger.Log.Warn("Failed to stop metrics server", "error", err)
		}
	}

	s.runClosers(ctx)
	return nil
}

func (s *GRPCServer) runClosers(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Log.Warn("Shutdown hook failed", "error", err)
		}
	}
	s.closers = nil
}

// SetServingStatus устанавливает статус сервиса и общий статус сервера
func (s *GRPCServer) SetServingStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.serviceName, status)
}

// Stop останавливает сервер немедленно
func (s *GRPCServer) Stop() {
	s.server.Stop()
}
