package interceptors

import (
	"context"
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"maxflow/pkg/logger"
)

func recoveryHandler(ctx context.Context, p any) error {
	logger.FromContext(ctx).Error("panic recovered",
		"panic", p,
		"stack", string(debug.Stack()),
	)
	return status.Errorf(codes.Internal, "internal error")
}

// RecoveryInterceptor превращает панику handler'а в codes.Internal
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(recoveryHandler))
}

func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(recoveryHandler))
}
