package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"maxflow/pkg/solverapi"
)

// SolverCache кэш результатов решения поверх Cache
type SolverCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewSolverCache создаёт кэш для результатов solver
func NewSolverCache(cache Cache, defaultTTL time.Duration) *SolverCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolverCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Cacheable сообщает, можно ли кэшировать запрос.
// Решения с начальным потоком не кэшируются: распределение потока зависит от него.
func Cacheable(req *solverapi.SolveRequest) bool {
	return req != nil && req.Network != nil && len(req.InitialFlow) == 0
}

func keyFor(req *solverapi.SolveRequest, epsilon float64) string {
	mode := req.Mode
	if mode == "" {
		mode = solverapi.ModeMaxFlow
	}
	return BuildSolveKey(NetworkHash(req.Network), mode, epsilon)
}

// Get получает кэшированный результат. epsilon - фактически применённый допуск.
func (sc *SolverCache) Get(ctx context.Context, req *solverapi.SolveRequest, epsilon float64) (*solverapi.SolveResponse, bool, error) {
	if !Cacheable(req) {
		return nil, false, nil
	}
	key := keyFor(req, epsilon)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var resp solverapi.SolveResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// повреждённая запись
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &resp, true, nil
}

// Set сохраняет полный результат; ttl <= 0 - значение по умолчанию
func (sc *SolverCache) Set(ctx context.Context, req *solverapi.SolveRequest, epsilon float64, resp *solverapi.SolveResponse, ttl time.Duration) error {
	if !Cacheable(req) || resp == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, keyFor(req, epsilon), data, ttl)
}

// Invalidate удаляет все результаты для сети
func (sc *SolverCache) Invalidate(ctx context.Context, network *solverapi.Network) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, keyPrefix+"*"+NetworkHash(network))
}

// InvalidateAll удаляет весь кэш решений
func (sc *SolverCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, keyPrefix+"*")
}

// Stats статистика нижележащего кэша
func (sc *SolverCache) Stats(ctx context.Context) (*Stats, error) {
	return sc.cache.Stats(ctx)
}

// Close закрывает нижележащий кэш
func (sc *SolverCache) Close() error {
	return sc.cache.Close()
}
