package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"

	"maxflow/pkg/apperror"
	"maxflow/pkg/solverapi"
)

// SolverClient клиент для solver-svc
type SolverClient struct {
	conn    *grpc.ClientConn
	client  solverapi.SolverServiceClient
	timeout time.Duration
}

// DefaultClientConfig возвращает конфигурацию по умолчанию
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:      "localhost:50052",
		Timeout:      60 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// NewSolverClient создаёт нового клиента
func NewSolverClient(ctx context.Context, cfg ClientConfig) (*SolverClient, error) {
	conn, err := NewGRPCClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to solver service: %w", err)
	}
	return &SolverClient{
		conn:    conn,
		client:  solverapi.NewSolverServiceClient(conn),
		timeout: cfg.Timeout,
	}, nil
}

// Close закрывает соединение
func (c *SolverClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *SolverClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Solve отправляет сеть на решение; ошибки сервера возвращаются как *apperror.Error
func (c *SolverClient) Solve(ctx context.Context, req *solverapi.SolveRequest) (*solverapi.SolveResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Solve(ctx, req)
	if err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return resp, nil
}

func (c *SolverClient) GetSolve(ctx context.Context, id string) (*solverapi.SolveRecord, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rec, err := c.client.GetSolve(ctx, &solverapi.GetSolveRequest{SolveID: id})
	if err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return rec, nil
}

func (c *SolverClient) ListSolves(ctx context.Context, limit, offset int) (*solverapi.ListSolvesResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.ListSolves(ctx, &solverapi.ListSolvesRequest{Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return resp, nil
}

func (c *SolverClient) ExportReport(ctx context.Context, req *solverapi.SolveRequest, format solverapi.ReportFormat) (*solverapi.ExportReportResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.ExportReport(ctx, &solverapi.ExportReportRequest{Solve: req, Format: format})
	if err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return resp, nil
}

// FlowStats сводка по загрузке дуг
type FlowStats struct {
	AverageUtilization float64
	SaturatedArcs      int
	ActiveArcs         int
}

// CalculateFlowStats считает загрузку по потокам из ответа; eps отделяет нулевой поток
func CalculateFlowStats(flows []solverapi.ArcFlow, eps float64) FlowStats {
	var stats FlowStats
	var totalUtil float64
	var withCapacity int

	for _, f := range flows {
		if f.Flow <= eps {
			continue
		}
		stats.ActiveArcs++
		if f.Capacity > 0 {
			withCapacity++
			totalUtil += f.Flow / f.Capacity
			if f.Capacity-f.Flow <= eps {
				stats.SaturatedArcs++
			}
		}
	}

	if withCapacity > 0 {
		stats.AverageUtilization = totalUtil / float64(withCapacity)
	}
	return stats
}
