package interceptors

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"maxflow/pkg/auth"
	"maxflow/pkg/logger"
)

func authorize(ctx context.Context, mgr *auth.Manager) (context.Context, error) {
	token, err := auth.TokenFromContext(ctx)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	claims, err := mgr.Validate(token)
	if err != nil {
		logger.FromContext(ctx).Warn("token rejected", "error", err)
		msg := "invalid token"
		if errors.Is(err, auth.ErrInvalidToken) {
			msg = err.Error()
		}
		return ctx, status.Error(codes.Unauthenticated, msg)
	}
	ctx = auth.IntoContext(ctx, claims)
	ctx = logger.IntoContext(ctx, logger.FromContext(ctx).With("subject", claims.Subject))
	return ctx, nil
}

func publicSet(methods []string) map[string]struct{} {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		set[m] = struct{}{}
	}
	return set
}

// AuthInterceptor требует валидный bearer токен для всех методов, кроме public
func AuthInterceptor(mgr *auth.Manager, public ...string) grpc.UnaryServerInterceptor {
	skip := publicSet(public)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		ctx, err := authorize(ctx, mgr)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func StreamAuthInterceptor(mgr *auth.Manager, public ...string) grpc.StreamServerInterceptor {
	skip := publicSet(public)

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(srv, ss)
		}
		ctx, err := authorize(ss.Context(), mgr)
		if err != nil {
			return err
		}
		return handler(srv, &loggedStream{ServerStream: ss, ctx: ctx})
	}
}
