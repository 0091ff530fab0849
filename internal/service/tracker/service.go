package tracker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dptracker/internal/domain"
	"dptracker/internal/domain/models"
	"dptracker/internal/domain/repositories"
	"dptracker/internal/domain/services"
	"dptracker/internal/export"
	"dptracker/internal/reconcile"
	"dptracker/internal/schema"
)

// trackerService implements the TrackerService interface
type trackerService struct {
	rowRepo    repositories.RowRepository
	schema     *schema.Schema
	reconciler *reconcile.Reconciler
	exporter   *export.CSVExporter
	logger     *slog.Logger
	now        func() time.Time

	// Serializes saves in this process so two overlapping saves cannot
	// mint the same ids from the same max id.
	saveMu sync.Mutex
}

// NewTrackerService creates a new tracker service
func NewTrackerService(
	rowRepo repositories.RowRepository,
	s *schema.Schema,
	reconciler *reconcile.Reconciler,
	exporter *export.CSVExporter,
	logger *slog.Logger,
) services.TrackerService {
	return &trackerService{
		rowRepo:    rowRepo,
		schema:     s,
		reconciler: reconciler,
		exporter:   exporter,
		logger:     logger,
		now:        time.Now,
	}
}

// LoadRows fetches the table and converts dates for display
func (s *trackerService) LoadRows(ctx context.Context) ([]models.Row, error) {
	rows, err := s.rowRepo.List(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "fetch rows", Err: err}
	}

	return s.reconciler.NormalizeForDisplay(rows), nil
}

// SaveRows reconciles the grid contents and upserts them
func (s *trackerService) SaveRows(ctx context.Context, req *services.SaveRowsRequest) (*services.SaveRowsResult, error) {
	if err := s.validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	// Rows added by someone else since this client loaded must not collide
	floor, err := s.rowRepo.MaxID(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "read max id", Err: err}
	}

	rows, res, err := s.reconciler.Reconcile(req.Rows, floor)
	if err != nil {
		return nil, err
	}

	if err := s.rowRepo.Upsert(ctx, rows); err != nil {
		return nil, &domain.StoreError{Op: "upsert rows", Err: err}
	}

	s.logger.Info("rows saved",
		"rows", len(rows),
		"assigned", len(res.AssignedIDs),
		"max_id", res.MaxID,
		"cleared_dates", res.ClearedDates,
	)

	return &services.SaveRowsResult{
		Rows:         rows,
		MaxID:        res.MaxID,
		AssignedIDs:  res.AssignedIDs,
		ClearedDates: res.ClearedDates,
	}, nil
}

// RemoveRows deletes the rows removed from the grid
func (s *trackerService) RemoveRows(ctx context.Context, req *services.RemoveRowsRequest) ([]int64, error) {
	if err := s.validateRemoveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	ids, err := reconcile.RemovedIDs(req.Rows, req.Positions)
	if err != nil {
		return nil, err
	}

	// Only never-saved rows were removed
	if len(ids) == 0 {
		s.logger.Debug("removed rows were not persisted", "positions", len(req.Positions))
		return ids, nil
	}

	if err := s.rowRepo.Delete(ctx, ids); err != nil {
		return nil, &domain.StoreError{Op: "delete rows", Err: err}
	}

	s.logger.Info("rows removed",
		"deleted", len(ids),
		"ids", ids,
	)

	return ids, nil
}

// DeleteRows deletes rows by id
func (s *trackerService) DeleteRows(ctx context.Context, req *services.DeleteRowsRequest) error {
	if err := s.validateDeleteRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.rowRepo.Delete(ctx, req.IDs); err != nil {
		return &domain.StoreError{Op: "delete rows", Err: err}
	}

	s.logger.Info("rows deleted", "deleted", len(req.IDs), "ids", req.IDs)
	return nil
}

// ExportCSV renders the given view, or the stored table when rows is nil
func (s *trackerService) ExportCSV(ctx context.Context, rows []models.Row) (*services.ExportResult, error) {
	if rows == nil {
		loaded, err := s.LoadRows(ctx)
		if err != nil {
			return nil, err
		}
		rows = loaded
	} else if err := s.validateExportRows(rows); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, rows); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}

	return &services.ExportResult{
		Filename: s.exporter.Filename(s.now()),
		Data:     buf.Bytes(),
	}, nil
}
