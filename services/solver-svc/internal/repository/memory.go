package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySolveRepository in-memory реализация, используется когда база выключена
type MemorySolveRepository struct {
	mu     sync.RWMutex
	solves map[uuid.UUID]*Solve
}

func NewMemorySolveRepository() *MemorySolveRepository {
	return &MemorySolveRepository{solves: make(map[uuid.UUID]*Solve)}
}

func (r *MemorySolveRepository) Save(_ context.Context, s *Solve) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prepare(s)
	stored := *s
	stored.SourceSide = slices.Clone(s.SourceSide)
	r.solves[s.ID] = &stored
	return nil
}

func (r *MemorySolveRepository) Get(_ context.Context, id uuid.UUID) (*Solve, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.solves[id]
	if !ok {
		return nil, ErrSolveNotFound
	}
	out := *s
	out.SourceSide = slices.Clone(s.SourceSide)
	return &out, nil
}

func (r *MemorySolveRepository) List(_ context.Context, opts ListOptions) ([]*Solve, int64, error) {
	opts = opts.normalized()

	r.mu.RLock()
	matched := make([]*Solve, 0, len(r.solves))
	for _, s := range r.solves {
		if opts.Mode != "" && s.Mode != opts.Mode {
			continue
		}
		if opts.NetworkHash != "" && s.NetworkHash != opts.NetworkHash {
			continue
		}
		out := *s
		out.SourceSide = slices.Clone(s.SourceSide)
		matched = append(matched, &out)
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *Solve) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(b.ID[:], a.ID[:])
	})

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return []*Solve{}, total, nil
	}
	end := min(opts.Offset+opts.Limit, len(matched))
	return matched[opts.Offset:end], total, nil
}

func (r *MemorySolveRepository) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.solves {
		if s.CreatedAt.Before(before) {
			delete(r.solves, id)
			n++
		}
	}
	return n, nil
}
