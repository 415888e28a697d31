package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"

	"maxflow/pkg/database"
	"maxflow/pkg/telemetry"
)

// PostgresSolveRepository PostgreSQL реализация SolveRepository
type PostgresSolveRepository struct {
	db database.DB
}

func NewPostgresSolveRepository(db database.DB) *PostgresSolveRepository {
	return &PostgresSolveRepository{db: db}
}

func (r *PostgresSolveRepository) Save(ctx context.Context, s *Solve) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSolveRepository.Save")
	defer span.End()

	prepare(s)

	query := `
		INSERT INTO solves (
			id, mode, flow_value, cut_capacity,
			node_count, arc_count, source_side, network_hash,
			duration_ms, warm_started, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		s.ID, s.Mode, s.FlowValue, s.CutCapacity,
		s.NodeCount, s.ArcCount, pq.Array(s.SourceSide), s.NetworkHash,
		s.DurationMs, s.WarmStarted, s.CreatedAt,
	)
	if err != nil {
		telemetry.SetError(ctx, err)
		return fmt.Errorf("failed to insert solve: %w", err)
	}
	return nil
}

func (r *PostgresSolveRepository) Get(ctx context.Context, id uuid.UUID) (*Solve, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSolveRepository.Get")
	defer span.End()

	query := `
		SELECT
			id, mode, flow_value, cut_capacity,
			node_count, arc_count, source_side, network_hash,
			duration_ms, warm_started, created_at
		FROM solves
		WHERE id = $1`

	s, err := scanSolve(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSolveNotFound
		}
		return nil, fmt.Errorf("failed to get solve: %w", err)
	}
	return s, nil
}

// listTxOptions счётчик и страница читаются из одного снимка
var listTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type solvePage struct {
	solves []*Solve
	total  int64
}

func (r *PostgresSolveRepository) List(ctx context.Context, opts ListOptions) ([]*Solve, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSolveRepository.List")
	defer span.End()

	opts = opts.normalized()
	page, err := database.WithTransactionResult(ctx, r.db, listTxOptions, func(tx pgx.Tx) (solvePage, error) {
		return listSolves(ctx, tx, opts)
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, 0, err
	}
	return page.solves, page.total, nil
}

func listSolves(ctx context.Context, tx pgx.Tx, opts ListOptions) (solvePage, error) {
	where, args := buildWhereClause(opts)

	var page solvePage
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM solves WHERE %s`, where)
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&page.total); err != nil {
		return page, fmt.Errorf("failed to count solves: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT
			id, mode, flow_value, cut_capacity,
			node_count, arc_count, source_side, network_hash,
			duration_ms, warm_started, created_at
		FROM solves
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := tx.Query(ctx, selectQuery, args...)
	if err != nil {
		return page, fmt.Errorf("failed to list solves: %w", err)
	}
	defer rows.Close()

	page.solves = make([]*Solve, 0, opts.Limit)
	for rows.Next() {
		s, err := scanSolve(rows)
		if err != nil {
			return page, fmt.Errorf("failed to scan solve: %w", err)
		}
		page.solves = append(page.solves, s)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("rows iteration error: %w", err)
	}
	return page, nil
}

func (r *PostgresSolveRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSolveRepository.DeleteOlderThan")
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM solves WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete solves: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSolve(row pgx.Row) (*Solve, error) {
	s := &Solve{}
	var side pgtype.Array[int64]
	err := row.Scan(
		&s.ID,
		&s.Mode,
		&s.FlowValue,
		&s.CutCapacity,
		&s.NodeCount,
		&s.ArcCount,
		&side,
		&s.NetworkHash,
		&s.DurationMs,
		&s.WarmStarted,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SourceSide = side.Elements
	if s.SourceSide == nil {
		s.SourceSide = []int64{}
	}
	return s, nil
}

func buildWhereClause(opts ListOptions) (string, []any) {
	conditions := []string{"TRUE"}
	var args []any

	if opts.Mode != "" {
		args = append(args, opts.Mode)
		conditions = append(conditions, fmt.Sprintf("mode = $%d", len(args)))
	}
	if opts.NetworkHash != "" {
		args = append(args, opts.NetworkHash)
		conditions = append(conditions, fmt.Sprintf("network_hash = $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}
