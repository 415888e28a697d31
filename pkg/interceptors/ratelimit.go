package interceptors

import (
	"context"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"maxflow/pkg/auth"
	"maxflow/pkg/logger"
	"maxflow/pkg/ratelimit"
)

// clientKey: subject токена, если запрос прошёл auth, иначе IP клиента
func clientKey(ctx context.Context) string {
	if c, ok := auth.FromContext(ctx); ok && c.Subject != "" {
		return "sub:" + c.Subject
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr := p.Addr.String()
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return "ip:" + host
		}
		return "ip:" + addr
	}
	return "unknown"
}

// RateLimitInterceptor отклоняет запросы сверх лимита с ResourceExhausted.
// Пустой methods ограничивает всё, кроме skip. Ошибка лимитера запрос не блокирует.
func RateLimitInterceptor(l ratelimit.Limiter, methods, skip []string) grpc.UnaryServerInterceptor {
	only := publicSet(methods)
	public := publicSet(skip)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := public[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		if len(only) > 0 {
			if _, ok := only[info.FullMethod]; !ok {
				return handler(ctx, req)
			}
		}

		key := clientKey(ctx)
		d, err := l.Allow(ctx, key)
		if err != nil {
			logger.FromContext(ctx).Warn("rate limiter unavailable", "error", err)
			return handler(ctx, req)
		}
		if !d.Allowed {
			retry := max(d.RetryAfter.Round(time.Second), time.Second)
			_ = grpc.SetHeader(ctx, metadata.Pairs("retry-after", strconv.Itoa(int(retry.Seconds()))))
			logger.FromContext(ctx).Warn("rate limit exceeded", "key", key, "method", info.FullMethod, "retry_after", retry)
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded, retry after %s", retry)
		}
		return handler(ctx, req)
	}
}
