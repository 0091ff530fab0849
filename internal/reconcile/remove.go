package reconcile

import (
	"fmt"

	"dptracker/internal/domain"
	"dptracker/internal/domain/models"
)

// RemovedIDs maps grid positions to persisted ids using the rows as they
// were immediately before removal. Rows that were never saved have no id
// and are skipped. Duplicate positions yield one id.
func RemovedIDs(snapshot []models.Row, positions []int) ([]int64, error) {
	ids := make([]int64, 0, len(positions))
	seen := make(map[int]struct{}, len(positions))

	for _, pos := range positions {
		if pos < 0 || pos >= len(snapshot) {
			return nil, fmt.Errorf("%w: row position %d out of range [0, %d)", domain.ErrValidation, pos, len(snapshot))
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}

		if id := snapshot[pos].ID; id != nil {
			ids = append(ids, *id)
		}
	}

	return ids, nil
}
