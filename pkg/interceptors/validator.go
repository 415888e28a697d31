package interceptors

import (
	"context"
	"errors"

	"google.golang.org/grpc"

	"maxflow/pkg/apperror"
)

// Validator интерфейс для валидируемых сообщений
type Validator interface {
	Validate() error
}

// ValidationInterceptor отклоняет запросы, не прошедшие Validate().
// *apperror.Error сохраняет свой код, прочие ошибки становятся InvalidArgument.
func ValidationInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if v, ok := req.(Validator); ok {
			if err := v.Validate(); err != nil {
				var appErr *apperror.Error
				if !errors.As(err, &appErr) {
					appErr = apperror.Wrap(err, apperror.CodeInvalidArgument, "validation error: "+err.Error())
				}
				return nil, apperror.ToGRPC(appErr)
			}
		}
		return handler(ctx, req)
	}
}
