package tracker

import (
	"fmt"
	"unicode/utf8"

	"dptracker/internal/config"
	"dptracker/internal/domain/models"
	"dptracker/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// validateSaveRequest validates a save request. Enum cells are not checked
// against their option lists.
func (s *trackerService) validateSaveRequest(req *services.SaveRowsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Rows,
			validation.Required,
			validation.Length(1, config.MaxSaveBatchSize),
			validation.By(s.validateRows),
		),
	)
}

// validateRemoveRequest validates a grid removal request
func (s *trackerService) validateRemoveRequest(req *services.RemoveRowsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Rows, validation.Required),
		validation.Field(&req.Positions,
			validation.Required,
			validation.Length(1, config.MaxDeleteBatchSize),
			validation.Each(validation.Min(0)),
		),
	)
}

// validateDeleteRequest validates a delete-by-id request
func (s *trackerService) validateDeleteRequest(req *services.DeleteRowsRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.IDs,
			validation.Required,
			validation.Length(1, config.MaxDeleteBatchSize),
			validation.Each(validation.Min(int64(1)), validation.Max(int64(config.MaxRowID))),
		),
	)
}

func (s *trackerService) validateExportRows(rows []models.Row) error {
	return validation.Validate(rows,
		validation.Length(0, config.MaxSaveBatchSize),
		validation.By(s.validateRows),
	)
}

// validateRows checks ids are positive and distinct, columns are known and
// cells fit the text limit
func (s *trackerService) validateRows(value interface{}) error {
	rows, ok := value.([]models.Row)
	if !ok {
		return fmt.Errorf("rows must be a list of rows")
	}

	seen := make(map[int64]int, len(rows))
	for i, row := range rows {
		if row.ID != nil {
			if *row.ID <= 0 || *row.ID > config.MaxRowID {
				return fmt.Errorf("row %d: id must be between 1 and %d", i, int64(config.MaxRowID))
			}
			if prev, dup := seen[*row.ID]; dup {
				return fmt.Errorf("rows %d and %d share id %d", prev, i, *row.ID)
			}
			seen[*row.ID] = i
		}

		for name, v := range row.Values {
			if !s.schema.Has(name) {
				return fmt.Errorf("row %d: unknown column %q", i, name)
			}
			if v != nil && utf8.RuneCountInString(*v) > config.MaxTextFieldLength {
				return fmt.Errorf("row %d: column %q exceeds %d characters", i, name, config.MaxTextFieldLength)
			}
		}
	}

	return nil
}
