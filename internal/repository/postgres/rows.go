package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dptracker/internal/domain/models"
	"dptracker/internal/domain/repositories"
	"dptracker/internal/schema"
)

// PostgresRowRepository implements RowRepository against the Supabase
// Postgres database. Date columns are DATE and travel as text.
type PostgresRowRepository struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	schema    *schema.Schema
	txManager repositories.TransactionManager
	logger    *slog.Logger

	selectSQL string
	upsertSQL string
}

// NewRowRepository creates a new row repository
func NewRowRepository(config *RepositoryConfig, txManager repositories.TransactionManager) repositories.RowRepository {
	r := &PostgresRowRepository{
		pool:      config.Pool,
		tables:    config.Tables,
		schema:    config.Schema,
		txManager: txManager,
		logger:    config.Logger,
	}
	r.selectSQL = buildSelect(config.Tables.Projects, config.Schema)
	r.upsertSQL = buildUpsert(config.Tables.Projects, config.Schema)
	return r
}

func buildSelect(table string, s *schema.Schema) string {
	cols := []string{schema.IDColumn}
	for _, f := range s.Fields {
		if f.Kind == schema.KindDate {
			cols = append(cols, fmt.Sprintf("%s::text AS %s", f.Name, f.Name))
			continue
		}
		cols = append(cols, f.Name)
	}
	return fmt.Sprintf(`SELECT %s FROM %s ORDER BY id DESC`, strings.Join(cols, ", "), table)
}

func buildUpsert(table string, s *schema.Schema) string {
	names := []string{schema.IDColumn}
	params := []string{"$1"}
	updates := make([]string, 0, len(s.Fields))

	for i, f := range s.Fields {
		names = append(names, f.Name)
		// Cast through text so the parameter is always sent as text
		if f.Kind == schema.KindDate {
			params = append(params, fmt.Sprintf("$%d::text::date", i+2))
		} else {
			params = append(params, fmt.Sprintf("$%d", i+2))
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", f.Name, f.Name))
	}

	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (id) DO UPDATE SET %s
	`, table, strings.Join(names, ", "), strings.Join(params, ", "), strings.Join(updates, ", "))
}

// List retrieves all rows, newest id first
func (r *PostgresRowRepository) List(ctx context.Context) ([]models.Row, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, r.selectSQL)
	if err != nil {
		if isPgUndefinedTable(err) {
			return nil, fmt.Errorf("list rows: table %s does not exist (run the seed): %w", r.tables.Projects, err)
		}
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	columns := r.schema.ColumnNames()
	result := []models.Row{}
	for rows.Next() {
		var id int64
		values := make([]*string, len(columns))
		dest := make([]interface{}, 0, len(columns)+1)
		dest = append(dest, &id)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := models.NewRow(&id)
		for i, col := range columns {
			row.Set(col, values[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// Upsert writes every row in one transaction. Columns absent from a row
// are written as NULL.
func (r *PostgresRowRepository) Upsert(ctx context.Context, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := r.schema.ColumnNames()
	batch := &pgx.Batch{}
	for i, row := range rows {
		if row.ID == nil {
			return fmt.Errorf("upsert rows: row %d has no id", i)
		}
		args := make([]interface{}, 0, len(columns)+1)
		args = append(args, *row.ID)
		for _, col := range columns {
			args = append(args, row.Get(col))
		}
		batch.Queue(r.upsertSQL, args...)
	}

	return r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		br := GetExecutor(txCtx, r.pool).SendBatch(txCtx, batch)
		for i := range rows {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				if isPgInvalidDatetime(err) {
					return fmt.Errorf("upsert row id=%d: invalid date: %w", *rows[i].ID, err)
				}
				return fmt.Errorf("upsert row id=%d: %w", *rows[i].ID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("upsert rows: %w", err)
		}
		return nil
	})
}

// Delete removes rows by id
func (r *PostgresRowRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Projects)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}

	r.logger.Debug("rows deleted",
		"requested", len(ids),
		"affected", result.RowsAffected(),
	)

	return nil
}

// MaxID returns the greatest stored id
func (r *PostgresRowRepository) MaxID(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) FROM %s`, r.tables.Projects)

	var maxID int64
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("max id: %w", err)
	}
	return maxID, nil
}
