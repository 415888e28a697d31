package interceptors

import (
	"google.golang.org/grpc"

	"maxflow/pkg/auth"
	"maxflow/pkg/metrics"
	"maxflow/pkg/ratelimit"
	"maxflow/pkg/telemetry"
)

// ServerConfig конфигурация серверных интерсепторов
type ServerConfig struct {
	ServiceName   string
	EnableTracing bool
	Metrics       *metrics.Metrics
	// Auth nil отключает проверку токенов
	Auth          *auth.Manager
	PublicMethods []string
	// Limiter nil отключает rate limiting
	Limiter      ratelimit.Limiter
	LimitMethods []string
}

func (c *ServerConfig) metrics() *metrics.Metrics {
	if c.Metrics != nil {
		return c.Metrics
	}
	return metrics.Get()
}

// UnaryServerInterceptors возвращает unary интерсепторы в порядке применения:
// recovery, tracing, logging, metrics, auth, rate limit, validation
func UnaryServerInterceptors(cfg *ServerConfig) []grpc.UnaryServerInterceptor {
	interceptors := []grpc.UnaryServerInterceptor{
		RecoveryInterceptor(),
	}

	if cfg.EnableTracing {
		interceptors = append(interceptors, telemetry.UnaryServerInterceptor())
	}

	interceptors = append(interceptors,
		LoggingInterceptor(),
		MetricsInterceptor(cfg.metrics()),
	)

	if cfg.Auth != nil {
		interceptors = append(interceptors, AuthInterceptor(cfg.Auth, cfg.PublicMethods...))
	}

	if cfg.Limiter != nil {
		interceptors = append(interceptors, RateLimitInterceptor(cfg.Limiter, cfg.LimitMethods, cfg.PublicMethods))
	}

	// Validation последним: до handler'а доходят только корректные запросы
	interceptors = append(interceptors, ValidationInterceptor())

	return interceptors
}

// StreamServerInterceptors возвращает stream интерсепторы (используются health Watch)
func StreamServerInterceptors(cfg *ServerConfig) []grpc.StreamServerInterceptor {
	interceptors := []grpc.StreamServerInterceptor{
		StreamRecoveryInterceptor(),
	}

	if cfg.EnableTracing {
		interceptors = append(interceptors, telemetry.StreamServerInterceptor())
	}

	interceptors = append(interceptors,
		StreamLoggingInterceptor(),
		StreamMetricsInterceptor(cfg.metrics()),
	)

	if cfg.Auth != nil {
		interceptors = append(interceptors, StreamAuthInterceptor(cfg.Auth, cfg.PublicMethods...))
	}

	return interceptors
}
