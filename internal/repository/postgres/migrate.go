package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"dptracker/internal/schema"
)

// CreateTableSQL returns the DDL for the tracker table.
func CreateTableSQL(table string, s *schema.Schema) string {
	cols := []string{"id BIGINT PRIMARY KEY"}
	for _, f := range s.Fields {
		typ := "TEXT"
		if f.Kind == schema.KindDate {
			typ = "DATE"
		}
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, typ))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(cols, ",\n\t"))
}

// EnsureSchema creates the tracker table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, s *schema.Schema) error {
	if _, err := pool.Exec(ctx, CreateTableSQL(tables.Projects, s)); err != nil {
		return fmt.Errorf("create %s: %w", tables.Projects, err)
	}
	return nil
}

// DropTables drops the tracker table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+tables.Projects+" CASCADE"); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Projects, err)
	}
	return nil
}
