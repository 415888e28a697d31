package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var solveColumns = []string{
	"id", "mode", "flow_value", "cut_capacity",
	"node_count", "arc_count", "source_side", "network_hash",
	"duration_ms", "warm_started", "created_at",
}

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *PostgresSolveRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresSolveRepository(mock)
}

func int64Array(v []int64) pgtype.Array[int64] {
	return pgtype.Array[int64]{
		Elements: v,
		Valid:    true,
		Dims:     []pgtype.ArrayDimension{{Length: int32(len(v)), LowerBound: 1}},
	}
}

func sampleRow(id uuid.UUID, created time.Time) []any {
	return []any{
		id, "MAX_FLOW", 13.0, 13.0,
		4, 5, int64Array([]int64{1, 2}), "abcd",
		1.5, false, created,
	}
}

func TestPostgresSolveRepository_Save(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectExec("INSERT INTO solves").
		WithArgs(
			pgxmock.AnyArg(), "MAX_FLOW", 13.0, 13.0,
			4, 5, pgxmock.AnyArg(), "abcd",
			1.5, true, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := &Solve{
		Mode:        "MAX_FLOW",
		FlowValue:   13,
		CutCapacity: 13,
		NodeCount:   4,
		ArcCount:    5,
		SourceSide:  []int64{1, 2},
		NetworkHash: "abcd",
		DurationMs:  1.5,
		WarmStarted: true,
	}
	require.NoError(t, repo.Save(context.Background(), s))

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.False(t, s.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSolveRepository_Save_Error(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectExec("INSERT INTO solves").WillReturnError(errors.New("disk full"))

	err := repo.Save(context.Background(), &Solve{Mode: "MIN_CUT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert solve")
}

func TestPostgresSolveRepository_Get(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("FROM solves").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(solveColumns).AddRow(sampleRow(id, created)...))

	s, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "MAX_FLOW", s.Mode)
	assert.Equal(t, []int64{1, 2}, s.SourceSide)
	assert.Equal(t, created, s.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSolveRepository_Get_NotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()

	mock.ExpectQuery("FROM solves").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrSolveNotFound)
}

func TestPostgresSolveRepository_List(t *testing.T) {
	mock, repo := setupMockDB(t)
	created := time.Now().UTC()

	mock.ExpectBeginTx(listTxOptions)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("MAX_FLOW").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("MAX_FLOW", 100, 0).
		WillReturnRows(pgxmock.NewRows(solveColumns).
			AddRow(sampleRow(uuid.New(), created)...).
			AddRow(sampleRow(uuid.New(), created.Add(-time.Minute))...))
	mock.ExpectCommit()

	solves, total, err := repo.List(context.Background(), ListOptions{Limit: 500, Mode: "MAX_FLOW"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, solves, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSolveRepository_List_CountError(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectBeginTx(listTxOptions)
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("timeout"))
	mock.ExpectRollback()

	_, _, err := repo.List(context.Background(), ListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count solves")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSolveRepository_List_BeginFails(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectBeginTx(listTxOptions).WillReturnError(errors.New("too many connections"))

	_, _, err := repo.List(context.Background(), ListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSolveRepository_DeleteOlderThan(t *testing.T) {
	mock, repo := setupMockDB(t)
	before := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec("DELETE FROM solves").
		WithArgs(before).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := repo.DeleteOlderThan(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestBuildWhereClause(t *testing.T) {
	where, args := buildWhereClause(ListOptions{})
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)

	where, args = buildWhereClause(ListOptions{Mode: "MIN_CUT", NetworkHash: "ff"})
	assert.Equal(t, "TRUE AND mode = $1 AND network_hash = $2", where)
	assert.Equal(t, []any{"MIN_CUT", "ff"}, args)
}
