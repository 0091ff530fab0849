// Package repository selects and opens the configured row store.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"dptracker/internal/config"
	"dptracker/internal/domain/repositories"
	"dptracker/internal/repository/postgres"
	"dptracker/internal/repository/rest"
	"dptracker/internal/repository/sqlite"
	"dptracker/internal/schema"
)

// Store is an opened row store and the handles behind it. Pool or DB is
// set depending on the backend; seed uses them for DDL.
type Store struct {
	Rows    repositories.RowRepository
	Backend string
	Table   string
	Pool    *pgxpool.Pool
	DB      *sql.DB
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, s *schema.Schema, logger *slog.Logger) (*Store, error) {
	tables := postgres.NewTableNames(cfg.TablePrefix, s.Table)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.SupabaseDBURL == "" {
			return nil, errors.New("SUPABASE_DB_URL is required for the postgres store")
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewRowRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Schema: s,
			Logger: logger,
		}, postgres.NewTransactionManager(pool, logger))
		return &Store{Rows: repo, Backend: cfg.StoreBackend, Table: tables.Projects, Pool: pool}, nil

	case config.BackendREST:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, errors.New("SUPABASE_URL and SUPABASE_KEY are required for the rest store")
		}
		repo := rest.NewRowRepository(cfg.SupabaseURL, cfg.SupabaseKey, tables.Projects, s, logger)
		return &Store{Rows: repo, Backend: cfg.StoreBackend, Table: tables.Projects}, nil

	case config.BackendSQLite:
		db, err := sqlite.OpenDB(cfg.SQLitePath, tables.Projects, s)
		if err != nil {
			return nil, err
		}
		repo := sqlite.NewSQLiteRowRepo(db, tables.Projects, s)
		return &Store{Rows: repo, Backend: cfg.StoreBackend, Table: tables.Projects, DB: db}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
