package solverapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoServer struct {
	UnimplementedSolverServiceServer
}

func (echoServer) Solve(_ context.Context, req *SolveRequest) (*SolveResponse, error) {
	if req.Network == nil {
		return nil, status.Error(codes.InvalidArgument, "network is required")
	}
	var total float64
	for _, a := range req.Network.Arcs {
		total += a.Capacity
	}
	return &SolveResponse{
		SolveID:   "echo",
		Mode:      req.Mode,
		FlowValue: total,
		NodeCount: len(req.Network.Nodes),
		ArcCount:  len(req.Network.Arcs),
	}, nil
}

func dialBuf(t *testing.T, srv SolverServiceServer) SolverServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterSolverServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewSolverServiceClient(conn)
}

func TestSolverService_RoundTrip(t *testing.T) {
	client := dialBuf(t, echoServer{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Solve(ctx, &SolveRequest{
		Network: &Network{
			Nodes:  []int64{10, 20},
			Arcs:   []Arc{{From: 10, To: 20, Capacity: 3}, {From: 10, To: 20, Capacity: 4}},
			Source: 10,
			Target: 20,
		},
		Mode: ModeMinCut,
	})
	require.NoError(t, err)
	assert.Equal(t, "echo", resp.SolveID)
	assert.Equal(t, ModeMinCut, resp.Mode)
	assert.InDelta(t, 7.0, resp.FlowValue, 1e-12)
	assert.Equal(t, 2, resp.NodeCount)
	assert.Equal(t, 2, resp.ArcCount)
}

func TestSolverService_ErrorStatus(t *testing.T) {
	client := dialBuf(t, echoServer{})

	_, err := client.Solve(context.Background(), &SolveRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSolverService_Unimplemented(t *testing.T) {
	client := dialBuf(t, echoServer{})
	ctx := context.Background()

	_, err := client.GetSolve(ctx, &GetSolveRequest{SolveID: "x"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	_, err = client.ListSolves(ctx, &ListSolvesRequest{Limit: 1})
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	_, err = client.ExportReport(ctx, &ExportReportRequest{Format: FormatPDF})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	in := &ExportReportResponse{Filename: "r.xlsx", Content: []byte{0, 1, 2}}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out ExportReportResponse
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in.Content, out.Content)

	// пустое тело - пустое сообщение
	require.NoError(t, c.Unmarshal(nil, &out))
	assert.Error(t, c.Unmarshal([]byte("{"), &out))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeMaxFlow, false},
		{"max_flow", ModeMaxFlow, false},
		{"MAXFLOW", ModeMaxFlow, false},
		{" min_cut ", ModeMinCut, false},
		{"mincut", ModeMinCut, false},
		{"min-cost", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
