package interceptors

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"maxflow/pkg/logger"
)

// RequestIDKey ключ metadata с идентификатором запроса
const RequestIDKey = "x-request-id"

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

// health check'и логируются на debug, чтобы не засорять лог
func isHealthCheck(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}

// LoggingInterceptor кладёт в контекст логгер с request_id и method и логирует итог запроса
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := requestID(ctx)
		log := logger.WithRequestID(reqID).With("method", info.FullMethod)
		ctx = logger.IntoContext(ctx, log)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, reqID))

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		code := status.Code(err).String()

		switch {
		case err != nil:
			log.Error("gRPC request failed",
				"duration_ms", duration.Milliseconds(),
				"code", code,
				"error", err.Error(),
			)
		case isHealthCheck(info.FullMethod):
			log.Debug("gRPC request completed", "duration_ms", duration.Milliseconds())
		default:
			log.Info("gRPC request completed",
				"duration_ms", duration.Milliseconds(),
				"code", code,
			)
		}

		return resp, err
	}
}

type loggedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *loggedStream) Context() context.Context { return s.ctx }

// StreamLoggingInterceptor логирует streaming запросы
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		log := logger.WithRequestID(requestID(ss.Context())).With("method", info.FullMethod)

		err := handler(srv, &loggedStream{ServerStream: ss, ctx: logger.IntoContext(ss.Context(), log)})

		duration := time.Since(start)
		if err != nil {
			log.Error("gRPC stream failed",
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			log.Debug("gRPC stream completed", "duration_ms", duration.Milliseconds())
		}

		return err
	}
}
