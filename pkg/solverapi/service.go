package solverapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "maxflow.solver.v1.SolverService"

const (
	SolverService_Solve_FullMethodName        = "/" + ServiceName + "/Solve"
	SolverService_GetSolve_FullMethodName     = "/" + ServiceName + "/GetSolve"
	SolverService_ListSolves_FullMethodName   = "/" + ServiceName + "/ListSolves"
	SolverService_ExportReport_FullMethodName = "/" + ServiceName + "/ExportReport"
)

// SolverServiceClient is the client API for SolverService.
type SolverServiceClient interface {
	Solve(ctx context.Context, in *SolveRequest, opts ...grpc.CallOption) (*SolveResponse, error)
	GetSolve(ctx context.Context, in *GetSolveRequest, opts ...grpc.CallOption) (*SolveRecord, error)
	ListSolves(ctx context.Context, in *ListSolvesRequest, opts ...grpc.CallOption) (*ListSolvesResponse, error)
	ExportReport(ctx context.Context, in *ExportReportRequest, opts ...grpc.CallOption) (*ExportReportResponse, error)
}

type solverServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSolverServiceClient(cc grpc.ClientConnInterface) SolverServiceClient {
	return &solverServiceClient{cc}
}

func (c *solverServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := append([]grpc.CallOption{CallOption()}, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}

func (c *solverServiceClient) Solve(ctx context.Context, in *SolveRequest, opts ...grpc.CallOption) (*SolveResponse, error) {
	out := new(SolveResponse)
	if err := c.invoke(ctx, SolverService_Solve_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *solverServiceClient) GetSolve(ctx context.Context, in *GetSolveRequest, opts ...grpc.CallOption) (*SolveRecord, error) {
	out := new(SolveRecord)
	if err := c.invoke(ctx, SolverService_GetSolve_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *solverServiceClient) ListSolves(ctx context.Context, in *ListSolvesRequest, opts ...grpc.CallOption) (*ListSolvesResponse, error) {
	out := new(ListSolvesResponse)
	if err := c.invoke(ctx, SolverService_ListSolves_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *solverServiceClient) ExportReport(ctx context.Context, in *ExportReportRequest, opts ...grpc.CallOption) (*ExportReportResponse, error) {
	out := new(ExportReportResponse)
	if err := c.invoke(ctx, SolverService_ExportReport_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// SolverServiceServer is the server API for SolverService.
// Implementations must embed UnimplementedSolverServiceServer.
type SolverServiceServer interface {
	Solve(context.Context, *SolveRequest) (*SolveResponse, error)
	GetSolve(context.Context, *GetSolveRequest) (*SolveRecord, error)
	ListSolves(context.Context, *ListSolvesRequest) (*ListSolvesResponse, error)
	ExportReport(context.Context, *ExportReportRequest) (*ExportReportResponse, error)
	mustEmbedUnimplementedSolverServiceServer()
}

type UnimplementedSolverServiceServer struct{}

func (UnimplementedSolverServiceServer) Solve(context.Context, *SolveRequest) (*SolveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Solve not implemented")
}
func (UnimplementedSolverServiceServer) GetSolve(context.Context, *GetSolveRequest) (*SolveRecord, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSolve not implemented")
}
func (UnimplementedSolverServiceServer) ListSolves(context.Context, *ListSolvesRequest) (*ListSolvesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSolves not implemented")
}
func (UnimplementedSolverServiceServer) ExportReport(context.Context, *ExportReportRequest) (*ExportReportResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExportReport not implemented")
}
func (UnimplementedSolverServiceServer) mustEmbedUnimplementedSolverServiceServer() {}

func RegisterSolverServiceServer(s grpc.ServiceRegistrar, srv SolverServiceServer) {
	s.RegisterService(&SolverService_ServiceDesc, srv)
}

func _SolverService_Solve_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SolveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServiceServer).Solve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SolverService_Solve_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SolverServiceServer).Solve(ctx, req.(*SolveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SolverService_GetSolve_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetSolveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServiceServer).GetSolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SolverService_GetSolve_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SolverServiceServer).GetSolve(ctx, req.(*GetSolveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SolverService_ListSolves_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListSolvesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServiceServer).ListSolves(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SolverService_ListSolves_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SolverServiceServer).ListSolves(ctx, req.(*ListSolvesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SolverService_ExportReport_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExportReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServiceServer).ExportReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SolverService_ExportReport_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SolverServiceServer).ExportReport(ctx, req.(*ExportReportRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SolverService_ServiceDesc is the grpc.ServiceDesc for SolverService.
var SolverService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SolverServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Solve", Handler: _SolverService_Solve_Handler},
		{MethodName: "GetSolve", Handler: _SolverService_GetSolve_Handler},
		{MethodName: "ListSolves", Handler: _SolverService_ListSolves_Handler},
		{MethodName: "ExportReport", Handler: _SolverService_ExportReport_Handler},
	},
	Streams: []grpc.StreamDesc{},
}
