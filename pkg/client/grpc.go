package client

import (
	"context"
	"time"

	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"

	"maxflow/pkg/auth"
	"maxflow/pkg/config"
	"maxflow/pkg/telemetry"
)

const maxMessageSize = 64 << 20

type ClientConfig struct {
	Address      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// Token отправляется как bearer в каждом вызове
	Token string
	// DialOptions добавляются после стандартных (bufconn в тестах, TLS)
	DialOptions []grpc.DialOption
}

// FromConfig переносит секцию client из конфигурации
func FromConfig(c config.ClientConfig) ClientConfig {
	return ClientConfig{
		Address:      c.Address,
		Timeout:      c.Timeout,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		Token:        c.Token,
	}
}

func tokenInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(auth.WithToken(ctx, token), method, req, reply, cc, opts...)
	}
}

// NewGRPCClient создает соединение с Retry, трассировкой и bearer токеном
func NewGRPCClient(_ context.Context, cfg ClientConfig) (*grpc.ClientConn, error) {
	retryOpts := []grpc_retry.CallOption{
		grpc_retry.WithBackoff(grpc_retry.BackoffLinear(cfg.RetryBackoff)),
		grpc_retry.WithCodes(codes.Unavailable, codes.Aborted),
		grpc_retry.WithMax(uint(max(cfg.MaxRetries, 0))),
	}

	unary := []grpc.UnaryClientInterceptor{
		telemetry.UnaryClientInterceptor(),
		grpc_retry.UnaryClientInterceptor(retryOpts...),
	}
	if cfg.Token != "" {
		unary = append(unary, tokenInterceptor(cfg.Token))
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
		grpc.WithChainUnaryInterceptor(unary...),
		grpc.WithChainStreamInterceptor(grpc_retry.StreamClientInterceptor(retryOpts...)),
	}
	dialOpts = append(dialOpts, cfg.DialOptions...)

	return grpc.NewClient(cfg.Address, dialOpts...)
}
