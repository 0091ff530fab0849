// Package export renders the tracker grid as CSV the way the grid's own
// export action does: comma separated, CRLF rows, no column header line,
// a 1-based row number first, every column included.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"dptracker/internal/datefmt"
	"dptracker/internal/domain/models"
	"dptracker/internal/schema"
)

// Options controls the CSV layout.
type Options struct {
	Comma          rune
	RowHeaders     bool
	FilenamePrefix string
}

// CSVExporter writes rows in schema column order.
type CSVExporter struct {
	schema *schema.Schema
	opts   Options
}

// NewCSVExporter creates an exporter. A zero Comma means ','.
func NewCSVExporter(s *schema.Schema, opts Options) *CSVExporter {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &CSVExporter{schema: s, opts: opts}
}

// Filename returns the download name for the given day,
// e.g. DP_Tracker_16.10.2026.csv.
func (e *CSVExporter) Filename(now time.Time) string {
	return fmt.Sprintf("%s%s.csv", e.opts.FilenamePrefix, now.Format(datefmt.DisplayLayout))
}

// Write renders rows to w.
func (e *CSVExporter) Write(w io.Writer, rows []models.Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = e.opts.Comma
	cw.UseCRLF = true

	columns := e.schema.ColumnNames()
	width := len(columns) + 1
	if e.opts.RowHeaders {
		width++
	}

	record := make([]string, 0, width)
	for i, row := range rows {
		record = record[:0]
		if e.opts.RowHeaders {
			record = append(record, strconv.Itoa(i+1))
		}

		if row.ID != nil {
			record = append(record, strconv.FormatInt(*row.ID, 10))
		} else {
			record = append(record, "")
		}

		for _, col := range columns {
			if v := row.Get(col); v != nil {
				record = append(record, *v)
			} else {
				record = append(record, "")
			}
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
