package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func newTestProvider(t *testing.T) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	p, err := InitWithExporter(Config{
		Enabled:     true,
		ServiceName: "solver-svc-test",
		Version:     "test",
		Environment: "test",
		SampleRate:  1.0,
	}, exp)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
		globalProvider = nil
	})
	return p, exp
}

func TestInit_Disabled(t *testing.T) {
	provider, err := Init(context.Background(), Config{Enabled: false, ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer(), "tracer should not be nil even when disabled")
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.ForceFlush(context.Background()))
}

func TestGet_Uninitialized(t *testing.T) {
	globalProvider = nil

	provider := Get()
	require.NotNil(t, provider)
	assert.NotNil(t, provider.tracer)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStartSpan_Recorded(t *testing.T) {
	p, exp := newTestProvider(t)

	ctx, span := StartSpan(context.Background(), "preflow.run",
		WithAttributes(NetworkAttributes(4, 5, 1, 4)...))
	AddEvent(ctx, "first_phase_done", attribute.Int("discharges", 12))
	SetAttributes(ctx, EngineAttributes(12, 20, 6, 0)...)
	SetError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, p.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)

	got := spans[0]
	assert.Equal(t, "preflow.run", got.Name)
	assert.Equal(t, codes.Error, got.Status.Code)
	assert.Equal(t, "boom", got.Status.Description)
	require.NotEmpty(t, got.Events)
	assert.Equal(t, "first_phase_done", got.Events[0].Name)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range got.Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(4), attrs[AttrNetworkNodes].AsInt64())
	assert.Equal(t, int64(6), attrs[AttrRelabels].AsInt64())
}

func TestRecordError_KeepsStatus(t *testing.T) {
	p, exp := newTestProvider(t)

	ctx, span := StartSpan(context.Background(), "cache.get")
	RecordError(ctx, errors.New("redis down"))
	span.End()

	require.NoError(t, p.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestSpanFromContext(t *testing.T) {
	span := SpanFromContext(context.Background())
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid())
}

func TestAttributes(t *testing.T) {
	assert.Len(t, NetworkAttributes(10, 20, 1, 2), 4)
	assert.Len(t, SolveAttributes("id", "MAX_FLOW", 13, 2), 4)
	assert.Len(t, EngineAttributes(1, 2, 3, 4), 4)
}

func TestUnaryInterceptors_PropagateTrace(t *testing.T) {
	p, exp := newTestProvider(t)

	var serverSpan trace.SpanContext
	server := UnaryServerInterceptor()

	// клиентский invoker передаёт исходящие metadata прямо в серверный interceptor
	invoker := func(ctx context.Context, method string, req, reply any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		srvCtx := metadata.NewIncomingContext(context.Background(), md)
		_, err := server(srvCtx, req, &grpc.UnaryServerInfo{FullMethod: method},
			func(ctx context.Context, _ any) (any, error) {
				serverSpan = trace.SpanContextFromContext(ctx)
				return "ok", nil
			})
		return err
	}

	client := UnaryClientInterceptor()
	err := client(context.Background(), "/maxflow.solver.v1.SolverService/Solve", "req", nil, nil, invoker)
	require.NoError(t, err)

	require.NoError(t, p.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 2)

	// сервер завершился первым
	srv, cli := spans[0], spans[1]
	assert.Equal(t, trace.SpanKindServer, srv.SpanKind)
	assert.Equal(t, trace.SpanKindClient, cli.SpanKind)
	assert.Equal(t, cli.SpanContext.TraceID(), srv.SpanContext.TraceID())
	assert.Equal(t, cli.SpanContext.SpanID(), srv.Parent.SpanID())
	assert.Equal(t, serverSpan.SpanID(), srv.SpanContext.SpanID())
}

func TestUnaryServerInterceptor_Error(t *testing.T) {
	p, exp := newTestProvider(t)

	_, err := UnaryServerInterceptor()(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/svc/Fail"},
		func(context.Context, any) (any, error) { return nil, errors.New("fail") })
	require.Error(t, err)

	require.NoError(t, p.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestStreamServerInterceptor(t *testing.T) {
	assert.NotNil(t, StreamServerInterceptor())
}
