// Package reconcile converts tracker rows between their stored shape and
// the shape the grid edits: dates are reformatted for display on load, and
// on save new rows get ids and every date column is normalized back to
// storage format.
package reconcile

import (
	"fmt"
	"math"

	"dptracker/internal/datefmt"
	"dptracker/internal/domain"
	"dptracker/internal/domain/models"
	"dptracker/internal/schema"
)

// Result summarizes a save-time reconciliation pass.
type Result struct {
	// MaxID is the greatest id in the output rows (or the floor).
	MaxID int64 `json:"max_id"`
	// AssignedIDs lists ids minted for new rows, in row order.
	AssignedIDs []int64 `json:"assigned_ids"`
	// ClearedDates counts non-null date values that were reset to null.
	ClearedDates int `json:"cleared_dates"`
}

// Reconciler applies the load and save transformations for one schema.
type Reconciler struct {
	schema *schema.Schema
	dates  *datefmt.Converter
}

// New creates a reconciler. A nil converter uses the local time zone.
func New(s *schema.Schema, dates *datefmt.Converter) *Reconciler {
	if dates == nil {
		dates = datefmt.NewConverter(nil)
	}
	return &Reconciler{schema: s, dates: dates}
}

// Reconcile returns a persistence-ready copy of rows. Rows without an id
// receive the next unused integer above max(existing ids, floor), in input
// order. Existing ids are never changed. Date columns are normalized to
// storage format or null. The input is not modified. When no integer is
// left above the maximum id the result is a validation error.
func (r *Reconciler) Reconcile(rows []models.Row, floor int64) ([]models.Row, Result, error) {
	out := models.CloneRows(rows)
	res := Result{AssignedIDs: []int64{}}

	maxID := floor
	used := make(map[int64]struct{}, len(out))
	for _, row := range out {
		if row.ID == nil {
			continue
		}
		used[*row.ID] = struct{}{}
		if *row.ID > maxID {
			maxID = *row.ID
		}
	}

	for i := range out {
		if out[i].ID != nil {
			continue
		}
		id, err := nextID(maxID, used)
		if err != nil {
			return nil, Result{}, err
		}
		out[i].ID = &id
		used[id] = struct{}{}
		maxID = id
		res.AssignedIDs = append(res.AssignedIDs, id)
	}

	dateFields := r.schema.DateFields()
	for i := range out {
		for _, name := range dateFields {
			if !out[i].Has(name) {
				continue
			}
			before := out[i].Get(name)
			after := r.dates.Normalize(before)
			if before != nil && after == nil {
				res.ClearedDates++
			}
			out[i].Set(name, after)
		}
	}

	res.MaxID = maxID
	return out, res, nil
}

// nextID returns the smallest id above after that is not in used.
func nextID(after int64, used map[int64]struct{}) (int64, error) {
	for n := after; n < math.MaxInt64; {
		n++
		if _, taken := used[n]; !taken {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: no row id available above %d", domain.ErrValidation, after)
}

// NormalizeForDisplay returns a copy of freshly fetched rows with storage
// dates rewritten in display format. Only date columns present on the
// first row are considered. A column is converted when its first non-null
// value across all rows is a valid storage date; otherwise it is left as
// is. The input is not modified.
func (r *Reconciler) NormalizeForDisplay(rows []models.Row) []models.Row {
	out := models.CloneRows(rows)
	if len(out) == 0 {
		return out
	}

	for _, name := range r.schema.DateFields() {
		if !out[0].Has(name) {
			continue
		}

		sample := firstNonNull(out, name)
		if !r.dates.IsStorageDate(sample) {
			continue
		}

		for i := range out {
			v := out[i].Get(name)
			if v == nil {
				continue
			}
			out[i].Set(name, r.dates.ToDisplay(v))
		}
	}

	return out
}

func firstNonNull(rows []models.Row, name string) *string {
	for _, row := range rows {
		if v := row.Get(name); v != nil {
			return v
		}
	}
	return nil
}
