package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"maxflow/pkg/config"
	"maxflow/pkg/logger"
)

// Migrator управляет миграциями goose поверх пула pgx
type Migrator struct {
	pool       *pgxpool.Pool
	migrations fs.FS
	dir        string
}

func NewMigrator(pool *pgxpool.Pool, migrations fs.FS, dir string) *Migrator {
	return &Migrator{
		pool:       pool,
		migrations: migrations,
		dir:        dir,
	}
}

func (m *Migrator) with(fn func(db *sql.DB) error) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	goose.SetBaseFS(m.migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn(db)
}

// Up применяет все миграции
func (m *Migrator) Up(ctx context.Context) error {
	err := m.with(func(db *sql.DB) error {
		return goose.UpContext(ctx, db, m.dir)
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Log.Info("Migrations applied successfully", "dir", m.dir)
	return nil
}

// Version возвращает текущую версию схемы
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.with(func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	return version, err
}

// RunMigrations запускает миграции если включено в конфигурации
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, cfg *config.DatabaseConfig, migrations fs.FS, dir string) error {
	if !cfg.AutoMigrate {
		logger.Log.Info("Auto-migration is disabled")
		return nil
	}
	m := NewMigrator(pool, migrations, dir)
	if err := m.Up(ctx); err != nil {
		return err
	}
	v, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Log.Info("Schema version", "version", v)
	return nil
}
