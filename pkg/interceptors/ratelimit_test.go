package interceptors

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"maxflow/pkg/auth"
	"maxflow/pkg/ratelimit"
)

const solveMethod = "/maxflow.solver.v1.SolverService/Solve"

func fromPeer(ip string) context.Context {
	return peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000},
	})
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "unknown", clientKey(context.Background()))
	assert.Equal(t, "ip:10.0.0.1", clientKey(fromPeer("10.0.0.1")))

	ctx := auth.IntoContext(fromPeer("10.0.0.1"), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "planner"},
	})
	assert.Equal(t, "sub:planner", clientKey(ctx))
}

func TestRateLimitInterceptor(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(ratelimit.Config{Requests: 1, Window: time.Minute})
	t.Cleanup(func() { _ = l.Close() })

	interceptor := RateLimitInterceptor(l, []string{solveMethod}, []string{"/grpc.health.v1.Health/Check"})
	ctx := fromPeer("10.0.0.1")

	_, err := interceptor(ctx, nil, info(solveMethod), mockHandler)
	require.NoError(t, err)

	_, err = interceptor(ctx, nil, info(solveMethod), mockHandler)
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "retry after")

	t.Run("other client", func(t *testing.T) {
		_, err := interceptor(fromPeer("10.0.0.2"), nil, info(solveMethod), mockHandler)
		assert.NoError(t, err)
	})

	t.Run("unlimited method", func(t *testing.T) {
		_, err := interceptor(ctx, nil, info("/maxflow.solver.v1.SolverService/GetSolve"), mockHandler)
		assert.NoError(t, err)
	})

	t.Run("public method", func(t *testing.T) {
		_, err := interceptor(ctx, nil, info("/grpc.health.v1.Health/Check"), mockHandler)
		assert.NoError(t, err)
	})
}

func TestRateLimitInterceptor_FailOpen(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(ratelimit.Config{})
	require.NoError(t, l.Close())

	resp, err := RateLimitInterceptor(l, nil, nil)(fromPeer("10.0.0.1"), nil, info(solveMethod), mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "response", resp)
}

func TestUnaryServerInterceptors_WithLimiter(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(ratelimit.Config{Requests: 1, Window: time.Minute})
	t.Cleanup(func() { _ = l.Close() })

	cfg := &ServerConfig{Metrics: newTestMetrics(), Limiter: l}
	ics := UnaryServerInterceptors(cfg)
	assert.Len(t, ics, 5)

	h := chain(ics, solveMethod, mockHandler)
	_, err := h(fromPeer("10.0.0.9"), "req")
	require.NoError(t, err)
	_, err = h(fromPeer("10.0.0.9"), "req")
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
