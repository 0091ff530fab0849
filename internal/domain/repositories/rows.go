package repositories

import (
	"context"

	"dptracker/internal/domain/models"
)

// RowRepository is the hosted row store holding the tracker table.
// Implementations return dates in storage format (YYYY-MM-DD).
type RowRepository interface {
	// List returns every row with the schema's column projection, ordered
	// by id. An error is distinct from an empty table.
	List(ctx context.Context) ([]models.Row, error)

	// Upsert inserts or overwrites rows by id. Every row must carry an id.
	// The batch is all-or-nothing.
	Upsert(ctx context.Context, rows []models.Row) error

	// Delete removes the rows with the given ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids []int64) error

	// MaxID returns the greatest stored id, 0 for an empty table.
	MaxID(ctx context.Context) (int64, error)
}
