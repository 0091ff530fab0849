// Package seed loads sample tracker rows for local development.
package seed

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"dptracker/internal/domain/models"
	"dptracker/internal/domain/services"
)

//go:embed fixtures/*.yaml
var fixtureFiles embed.FS

// DefaultFixtures returns the embedded sample rows.
func DefaultFixtures() ([]models.Row, error) {
	data, err := fixtureFiles.ReadFile("fixtures/dp_tracker.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes a YAML list of column maps into new rows.
// Empty strings become null. Fixture rows never carry an id.
func ParseFixtures(data []byte) ([]models.Row, error) {
	var raw []map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	rows := make([]models.Row, 0, len(raw))
	for i, m := range raw {
		if _, ok := m["id"]; ok {
			return nil, fmt.Errorf("fixture %d: id is assigned on save", i)
		}

		row := models.NewRow(nil)
		for k, v := range m {
			if v == "" {
				row.Set(k, nil)
				continue
			}
			row.Set(k, &v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Seeder saves fixture rows through the tracker service.
type Seeder struct {
	service services.TrackerService
	logger  *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(service services.TrackerService, logger *slog.Logger) *Seeder {
	return &Seeder{
		service: service,
		logger:  logger,
	}
}

// Seed appends rows to the table as one grid save. Existing rows are kept.
func (s *Seeder) Seed(ctx context.Context, rows []models.Row) (*services.SaveRowsResult, error) {
	if len(rows) == 0 {
		return &services.SaveRowsResult{}, nil
	}

	res, err := s.service.SaveRows(ctx, &services.SaveRowsRequest{Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("seed rows: %w", err)
	}

	s.logger.Info("fixtures seeded",
		"rows", len(res.AssignedIDs),
		"max_id", res.MaxID,
		"cleared_dates", res.ClearedDates,
	)
	return res, nil
}
