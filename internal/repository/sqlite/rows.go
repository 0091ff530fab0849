package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dptracker/internal/domain/models"
	"dptracker/internal/domain/repositories"
	"dptracker/internal/schema"
)

// SQLiteRowRepo implements RowRepository on a local SQLite file.
type SQLiteRowRepo struct {
	db     *sql.DB
	table  string
	schema *schema.Schema

	selectSQL string
	upsertSQL string
}

// NewSQLiteRowRepo creates a row repository for table.
func NewSQLiteRowRepo(db *sql.DB, table string, s *schema.Schema) repositories.RowRepository {
	columns := s.ColumnNames()
	all := append([]string{schema.IDColumn}, columns...)

	placeholders := make([]string, len(all))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	updates := make([]string, len(columns))
	for i, c := range columns {
		updates[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}

	return &SQLiteRowRepo{
		db:        db,
		table:     table,
		schema:    s,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s ORDER BY id DESC", strings.Join(all, ", "), table),
		upsertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
			table, strings.Join(all, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", ")),
	}
}

func (r *SQLiteRowRepo) List(ctx context.Context) ([]models.Row, error) {
	rows, err := r.db.QueryContext(ctx, r.selectSQL)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	columns := r.schema.ColumnNames()
	result := []models.Row{}
	for rows.Next() {
		var id int64
		values := make([]sql.NullString, len(columns))
		dest := make([]any, 0, len(columns)+1)
		dest = append(dest, &id)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := models.NewRow(&id)
		for i, col := range columns {
			if values[i].Valid {
				v := values[i].String
				row.Set(col, &v)
			} else {
				row.Set(col, nil)
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRowRepo) Upsert(ctx context.Context, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.upsertSQL)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	columns := r.schema.ColumnNames()
	for i, row := range rows {
		if row.ID == nil {
			return fmt.Errorf("upsert rows: row %d has no id", i)
		}
		args := make([]any, 0, len(columns)+1)
		args = append(args, *row.ID)
		for _, col := range columns {
			if v := row.Get(col); v != nil {
				args = append(args, *v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert row id=%d: %w", *row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

func (r *SQLiteRowRepo) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", r.table, strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	return nil
}

func (r *SQLiteRowRepo) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", r.table)
	if err := r.db.QueryRowContext(ctx, query).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("max id: %w", err)
	}
	return maxID, nil
}
