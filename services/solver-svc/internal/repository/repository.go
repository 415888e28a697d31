// Package repository хранит историю решённых задач.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSolveNotFound = errors.New("solve not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Solve запись о выполненном расчёте
type Solve struct {
	ID          uuid.UUID
	Mode        string
	FlowValue   float64
	CutCapacity float64
	NodeCount   int
	ArcCount    int
	SourceSide  []int64
	NetworkHash string
	DurationMs  float64
	WarmStarted bool
	CreatedAt   time.Time
}

// ListOptions параметры выборки; нулевые фильтры не применяются
type ListOptions struct {
	Limit       int
	Offset      int
	Mode        string
	NetworkHash string
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = defaultListLimit
	}
	if o.Limit > maxListLimit {
		o.Limit = maxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SolveRepository хранилище расчётов
type SolveRepository interface {
	// Save сохраняет расчёт; пустой ID и CreatedAt заполняются
	Save(ctx context.Context, s *Solve) error
	Get(ctx context.Context, id uuid.UUID) (*Solve, error)
	// List возвращает страницу расчётов (новые первыми) и общее количество
	List(ctx context.Context, opts ListOptions) ([]*Solve, int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

func prepare(s *Solve) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.SourceSide == nil {
		s.SourceSide = []int64{}
	}
}
