// Package datefmt classifies and converts tracker date values between the
// display format used by the grid (DD.MM.YYYY) and the storage format used
// by the row store (YYYY-MM-DD).
package datefmt

import (
	"strings"
	"time"
)

const (
	DisplayLayout = "02.01.2006"
	StorageLayout = "2006-01-02"

	// DisplayPattern is DisplayLayout in the notation grid widgets use.
	DisplayPattern = "DD.MM.YYYY"
)

// State is the classification of a raw date cell value.
type State int

const (
	Empty State = iota
	ValidDisplay
	ValidStorage
	Invalid
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case ValidDisplay:
		return "valid_display"
	case ValidStorage:
		return "valid_storage"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Converter parses and formats dates in a fixed location. Parsing and
// formatting in the same location keeps the calendar date stable.
type Converter struct {
	loc *time.Location
}

// NewConverter returns a converter bound to loc. A nil loc means time.Local.
func NewConverter(loc *time.Location) *Converter {
	if loc == nil {
		loc = time.Local
	}
	return &Converter{loc: loc}
}

var std = NewConverter(nil)

// Classify returns the state of raw. time.Parse rejects impossible
// calendar dates (31.04, 29.02 outside leap years), so Valid* states
// always denote real days. Year 0000 is Invalid: the store's DATE type
// starts at year 1.
func (c *Converter) Classify(raw *string) State {
	if raw == nil {
		return Empty
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return Empty
	}
	if t, err := time.ParseInLocation(DisplayLayout, s, c.loc); err == nil {
		if t.Year() < 1 {
			return Invalid
		}
		return ValidDisplay
	}
	if t, err := time.ParseInLocation(StorageLayout, s, c.loc); err == nil {
		if t.Year() < 1 {
			return Invalid
		}
		return ValidStorage
	}
	return Invalid
}

// Normalize maps raw to its storage value. Empty and invalid input become
// nil, display dates are converted, storage dates pass through trimmed.
func (c *Converter) Normalize(raw *string) *string {
	switch c.Classify(raw) {
	case ValidDisplay:
		t, _ := time.ParseInLocation(DisplayLayout, strings.TrimSpace(*raw), c.loc)
		out := t.Format(StorageLayout)
		return &out
	case ValidStorage:
		out := strings.TrimSpace(*raw)
		return &out
	default:
		return nil
	}
}

// ToDisplay converts a storage date to display format. Any other value is
// returned unchanged.
func (c *Converter) ToDisplay(raw *string) *string {
	if c.Classify(raw) != ValidStorage {
		return raw
	}
	t, _ := time.ParseInLocation(StorageLayout, strings.TrimSpace(*raw), c.loc)
	out := t.Format(DisplayLayout)
	return &out
}

// IsStorageDate reports whether raw is a valid storage-format date.
func (c *Converter) IsStorageDate(raw *string) bool {
	return c.Classify(raw) == ValidStorage
}

// Classify uses the local time zone.
func Classify(raw *string) State { return std.Classify(raw) }

// Normalize uses the local time zone.
func Normalize(raw *string) *string { return std.Normalize(raw) }

// ToDisplay uses the local time zone.
func ToDisplay(raw *string) *string { return std.ToDisplay(raw) }
