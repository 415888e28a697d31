package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"maxflow/pkg/config"
	"maxflow/pkg/logger"
	"maxflow/pkg/metrics"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "solver-svc", Environment: "test"},
		GRPC: config.GRPCConfig{Port: 0, ShutdownTimeout: 2 * time.Second},
		Auth: config.AuthConfig{
			Secret:        "s3cret",
			Issuer:        "maxflow",
			PublicMethods: []string{"/grpc.health.v1.Health/Check"},
		},
	}
}

func testOptions() *ServerOptions {
	return &ServerOptions{Metrics: metrics.NewMetrics(prometheus.NewRegistry(), "test", "")}
}

func startBuf(t *testing.T, srv *GRPCServer) (*grpc.ClientConn, context.CancelFunc, <-chan error) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	return conn, cancel, done
}

func TestNewServer(t *testing.T) {
	srv, err := NewWithOptions(testConfig(), testOptions())
	require.NoError(t, err)
	assert.NotNil(t, srv.GetEngine())
	assert.Nil(t, srv.metricsHTTP)
	srv.Stop()
}

func TestNewServer_AuthWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = ""

	_, err := NewWithOptions(cfg, testOptions())
	assert.Error(t, err)
}

func TestNewServer_BadTLS(t *testing.T) {
	cfg := testConfig()
	cfg.GRPC.TLS = config.TLSConfig{Enabled: true, CertFile: "missing.crt", KeyFile: "missing.key"}

	_, err := NewWithOptions(cfg, testOptions())
	assert.Error(t, err)
}

func TestServe_HealthAndGracefulShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true

	srv, err := NewWithOptions(cfg, testOptions())
	require.NoError(t, err)

	closed := false
	srv.OnShutdown(func(context.Context) error {
		closed = true
		return nil
	})

	conn, cancel, done := startBuf(t, srv)
	health := grpc_health_v1.NewHealthClient(conn)

	ctx, cancelReq := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelReq()

	// Check публичный, токен не нужен
	resp, err := health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "solver-svc"}, grpc.WaitForReady(true))
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	// Watch не в списке публичных
	stream, err := health.Watch(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	require.NoError(t, conn.Close())
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, closed)
}

func TestNewServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Backend: "memory", Requests: 1, Window: time.Minute}

	srv, err := NewWithOptions(cfg, testOptions())
	require.NoError(t, err)
	assert.Len(t, srv.closers, 1)
	srv.Stop()

	cfg.RateLimit.Backend = "etcd"
	_, err = NewWithOptions(cfg, testOptions())
	assert.ErrorContains(t, err, "rate limit")
}

func TestCheckHealth(t *testing.T) {
	var failing atomic.Bool
	opts := testOptions()
	opts.HealthCheck = func(context.Context) error {
		if failing.Load() {
			return errors.New("pool exhausted")
		}
		return nil
	}

	srv, err := NewWithOptions(testConfig(), opts)
	require.NoError(t, err)
	defer srv.Stop()
	assert.Equal(t, defaultHealthInterval, srv.healthInterval)

	ctx := context.Background()
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, srv.CheckHealth(ctx))

	failing.Store(true)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, srv.CheckHealth(ctx))
	resp, err := srv.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "solver-svc"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)

	// отменённая проверка статус не меняет
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	srv.healthCheck = func(ctx context.Context) error { return ctx.Err() }
	srv.CheckHealth(canceled)
	resp, err = srv.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "solver-svc"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestServe_HealthCheck(t *testing.T) {
	var failing atomic.Bool
	opts := testOptions()
	opts.HealthInterval = 10 * time.Millisecond
	opts.HealthCheck = func(context.Context) error {
		if failing.Load() {
			return errors.New("connection refused")
		}
		return nil
	}

	srv, err := NewWithOptions(testConfig(), opts)
	require.NoError(t, err)

	conn, cancel, done := startBuf(t, srv)
	health := grpc_health_v1.NewHealthClient(conn)

	statusOf := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		ctx, cancelReq := context.WithTimeout(context.Background(), time.Second)
		defer cancelReq()
		resp, err := health.Check(ctx, &grpc_health_v1.HealthCheckRequest{}, grpc.WaitForReady(true))
		if err != nil {
			return grpc_health_v1.HealthCheckResponse_UNKNOWN
		}
		return resp.Status
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, statusOf())

	failing.Store(true)
	assert.Eventually(t, func() bool {
		return statusOf() == grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	failing.Store(false)
	assert.Eventually(t, func() bool {
		return statusOf() == grpc_health_v1.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
