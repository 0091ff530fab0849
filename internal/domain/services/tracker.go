package services

import (
	"context"

	"dptracker/internal/domain/models"
)

// SaveRowsRequest carries the full, possibly edited, grid contents.
type SaveRowsRequest struct {
	Rows []models.Row `json:"rows"`
}

// SaveRowsResult is the persisted row set after reconciliation.
type SaveRowsResult struct {
	Rows         []models.Row `json:"rows"`
	MaxID        int64        `json:"max_id"`
	AssignedIDs  []int64      `json:"assigned_ids"`
	ClearedDates int          `json:"cleared_dates"`
}

// RemoveRowsRequest carries grid positions being removed and the rows as
// they were immediately before removal.
type RemoveRowsRequest struct {
	Rows      []models.Row `json:"rows"`
	Positions []int        `json:"positions"`
}

// DeleteRowsRequest deletes rows by persisted id.
type DeleteRowsRequest struct {
	IDs []int64 `json:"ids"`
}

// ExportResult is a rendered CSV download.
type ExportResult struct {
	Filename string
	Data     []byte
}

// TrackerService defines the DP Tracker operations behind the grid.
type TrackerService interface {
	// LoadRows fetches the table with dates in display format.
	LoadRows(ctx context.Context) ([]models.Row, error)

	// SaveRows assigns ids to new rows, normalizes dates and upserts the
	// whole set. Store failures are returned, nothing is retried.
	SaveRows(ctx context.Context, req *SaveRowsRequest) (*SaveRowsResult, error)

	// RemoveRows deletes the persisted rows at the removed grid positions
	// and returns the ids that were deleted.
	RemoveRows(ctx context.Context, req *RemoveRowsRequest) ([]int64, error)

	// DeleteRows deletes rows by id.
	DeleteRows(ctx context.Context, req *DeleteRowsRequest) error

	// ExportCSV renders rows as a CSV download. Nil rows exports the
	// stored table in display format.
	ExportCSV(ctx context.Context, rows []models.Row) (*ExportResult, error)
}
