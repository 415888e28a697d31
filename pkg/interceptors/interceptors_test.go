package interceptors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"maxflow/pkg/apperror"
	"maxflow/pkg/auth"
	"maxflow/pkg/logger"
	"maxflow/pkg/metrics"
)

func init() {
	logger.Init("error")
}

func mockHandler(_ context.Context, _ any) (any, error) {
	return "response", nil
}

func mockErrorHandler(_ context.Context, _ any) (any, error) {
	return nil, status.Error(codes.Internal, "internal error")
}

func mockPanicHandler(_ context.Context, _ any) (any, error) {
	panic("test panic")
}

func info(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: method}
}

// chain применяет интерсепторы так же, как grpc.ChainUnaryInterceptor
func chain(interceptors []grpc.UnaryServerInterceptor, method string, handler grpc.UnaryHandler) grpc.UnaryHandler {
	h := handler
	for i := len(interceptors) - 1; i >= 0; i-- {
		next, ic := h, interceptors[i]
		h = func(ctx context.Context, req any) (any, error) {
			return ic(ctx, req, info(method), next)
		}
	}
	return h
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry(), "test", "")
}

func newTestAuth(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(auth.Config{Secret: "s3cret", Issuer: "maxflow"})
	require.NoError(t, err)
	return m
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor()

	resp, err := interceptor(context.Background(), "request", info("/test"), mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "response", resp)

	_, err = interceptor(context.Background(), "request", info("/test"), mockPanicHandler)
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestLoggingInterceptor_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Log
	logger.Log = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { logger.Log = prev })

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDKey, "req-42"))

	var inner *slog.Logger
	_, err := LoggingInterceptor()(ctx, "request", info("/maxflow.solver.v1.SolverService/Solve"),
		func(ctx context.Context, _ any) (any, error) {
			inner = logger.FromContext(ctx)
			return "ok", nil
		})
	require.NoError(t, err)
	require.NotNil(t, inner)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/maxflow.solver.v1.SolverService/Solve", entry["method"])
	assert.Equal(t, "OK", entry["code"])
}

func TestLoggingInterceptor_Error(t *testing.T) {
	_, err := LoggingInterceptor()(context.Background(), "request", info("/test.Service/Method"), mockErrorHandler)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestRequestID_Generated(t *testing.T) {
	a, b := requestID(context.Background()), requestID(context.Background())
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestMetricsInterceptor(t *testing.T) {
	m := newTestMetrics()
	interceptor := MetricsInterceptor(m)

	_, _ = interceptor(context.Background(), nil, info("/svc/Ok"), mockHandler)
	_, _ = interceptor(context.Background(), nil, info("/svc/Ok"), mockHandler)
	_, _ = interceptor(context.Background(), nil, info("/svc/Fail"), mockErrorHandler)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues("/svc/Ok", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues("/svc/Fail", "Internal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GRPCRequestsInFlight))
}

type mockValidatable struct {
	err error
}

func (m *mockValidatable) Validate() error { return m.err }

func TestValidationInterceptor(t *testing.T) {
	interceptor := ValidationInterceptor()

	tests := []struct {
		name string
		req  any
		want codes.Code
	}{
		{"valid request", &mockValidatable{}, codes.OK},
		{"plain error", &mockValidatable{err: errors.New("limit must be >= 0")}, codes.InvalidArgument},
		{"app error keeps code", &mockValidatable{err: apperror.ErrSolveNotFound}, codes.NotFound},
		{"non-validatable request", "string request", codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := interceptor(context.Background(), tt.req, info("/test"), mockHandler)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestAuthInterceptor(t *testing.T) {
	mgr := newTestAuth(t)
	token, err := mgr.Issue("flowctl", "", time.Minute)
	require.NoError(t, err)

	interceptor := AuthInterceptor(mgr, "/grpc.health.v1.Health/Check")

	t.Run("public method", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, info("/grpc.health.v1.Health/Check"), mockHandler)
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, info("/svc/Solve"), mockHandler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("bad token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.MetadataKey, "Bearer nope"))
		_, err := interceptor(ctx, nil, info("/svc/Solve"), mockHandler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("valid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.MetadataKey, "Bearer "+token))
		var subject string
		_, err := interceptor(ctx, nil, info("/svc/Solve"), func(ctx context.Context, _ any) (any, error) {
			c, ok := auth.FromContext(ctx)
			if ok {
				subject = c.Subject
			}
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "flowctl", subject)
	})
}

func TestUnaryServerInterceptors_Order(t *testing.T) {
	cfg := &ServerConfig{ServiceName: "solver-svc", Metrics: newTestMetrics()}
	assert.Len(t, UnaryServerInterceptors(cfg), 4, "recovery, logging, metrics, validation")
	assert.Len(t, StreamServerInterceptors(cfg), 3)

	cfg.EnableTracing = true
	cfg.Auth = newTestAuth(t)
	assert.Len(t, UnaryServerInterceptors(cfg), 6)
	assert.Len(t, StreamServerInterceptors(cfg), 5)
}

func TestUnaryServerInterceptors_PanicBehindAuth(t *testing.T) {
	mgr := newTestAuth(t)
	cfg := &ServerConfig{Metrics: newTestMetrics(), Auth: mgr}
	token, err := mgr.Issue("svc", "", 0)
	require.NoError(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.MetadataKey, "Bearer "+token))
	h := chain(UnaryServerInterceptors(cfg), "/svc/Solve", mockPanicHandler)

	_, err = h(ctx, "req")
	assert.Equal(t, codes.Internal, status.Code(err))

	// без токена до handler'а не доходит
	_, err = h(context.Background(), "req")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
