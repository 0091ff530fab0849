package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is one tracked project. ID is nil for rows created in the grid that
// have never been saved. Every other column is a nullable string keyed by
// column name; a key that is absent means the column was not sent.
type Row struct {
	ID     *int64
	Values map[string]*string
}

// NewRow returns an empty row with the given id.
func NewRow(id *int64) Row {
	return Row{ID: id, Values: make(map[string]*string)}
}

// Get returns the value of a column, nil when null or absent.
func (r Row) Get(name string) *string {
	return r.Values[name]
}

// Has reports whether the column is present on the row.
func (r Row) Has(name string) bool {
	_, ok := r.Values[name]
	return ok
}

// Set stores a column value on the row.
func (r *Row) Set(name string, value *string) {
	if r.Values == nil {
		r.Values = make(map[string]*string)
	}
	r.Values[name] = value
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := Row{Values: make(map[string]*string, len(r.Values))}
	if r.ID != nil {
		id := *r.ID
		out.ID = &id
	}
	for k, v := range r.Values {
		if v != nil {
			s := *v
			v = &s
		}
		out.Values[k] = v
	}
	return out
}

// CloneRows deep copies a row slice.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// MarshalJSON flattens the row into a single object with an "id" key.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Values)+1)
	for k, v := range r.Values {
		m[k] = v
	}
	m["id"] = r.ID
	return json.Marshal(m)
}

// UnmarshalJSON accepts a flat object. Grid cells may arrive as numbers or
// booleans; those are kept as their literal text.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID = nil
	r.Values = make(map[string]*string, len(raw))

	for k, v := range raw {
		if k == "id" {
			id, err := parseID(v)
			if err != nil {
				return err
			}
			r.ID = id
			continue
		}

		value, err := parseCell(v)
		if err != nil {
			return fmt.Errorf("column %s: %w", k, err)
		}
		r.Values[k] = value
	}

	return nil
}

func parseID(data json.RawMessage) (*int64, error) {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		return nil, nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		// Numeric grid columns occasionally hand back "12".
		var s string
		if strErr := json.Unmarshal(trimmed, &s); strErr != nil {
			return nil, fmt.Errorf("id: %w", err)
		}
		if s == "" {
			return nil, nil
		}
		num = json.Number(s)
	}

	id, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		f, ferr := num.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("id %q is not an integer", num.String())
		}
		id = int64(f)
	}
	return &id, nil
}

func parseCell(data json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case '{', '[':
		return nil, fmt.Errorf("unsupported value %s", trimmed)
	default:
		s := string(trimmed)
		return &s, nil
	}
}
