package schema

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// IDColumn is the implicit identity column present on every row.
const IDColumn = "id"

// FieldKind tags a column with how its values are treated.
type FieldKind string

const (
	KindText FieldKind = "text"
	KindEnum FieldKind = "enum"
	KindDate FieldKind = "date"
)

// Field describes one data column of the tracker table.
type Field struct {
	Name    string    `yaml:"name" json:"name"`
	Kind    FieldKind `yaml:"kind" json:"kind"`
	Header  string    `yaml:"header" json:"header"`
	Options string    `yaml:"options,omitempty" json:"options,omitempty"`
}

// Schema is the ordered column list of the tracker table plus the option
// lists used by enum columns.
type Schema struct {
	Name        string              `yaml:"name" json:"name"`
	Table       string              `yaml:"table" json:"table"`
	Fields      []Field             `yaml:"columns" json:"columns"`
	OptionLists map[string][]string `yaml:"options" json:"options"`

	index map[string]int
}

var loadDefault = sync.OnceValues(func() (*Schema, error) {
	data, err := configFiles.ReadFile("config/dp_tracker.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}
	return Load(data)
})

// Default returns the embedded DP Tracker schema.
func Default() (*Schema, error) {
	return loadDefault()
}

// LoadFile reads a schema from a YAML file on disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Load(data)
}

// Load parses and validates a YAML schema.
func Load(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// IsDateLike reports whether a column name follows the date naming
// convention of the tracker table (suffix "deadline" or "materials").
func IsDateLike(name string) bool {
	return strings.HasSuffix(name, "deadline") || strings.HasSuffix(name, "materials")
}

func (s *Schema) validate() error {
	if s.Table == "" {
		return errors.New("schema: table is required")
	}
	if len(s.Fields) == 0 {
		return errors.New("schema: at least one column is required")
	}

	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema: column %d has no name", i)
		}
		if f.Name == IDColumn {
			return fmt.Errorf("schema: %q is implicit and must not be declared", IDColumn)
		}
		if _, dup := s.index[f.Name]; dup {
			return fmt.Errorf("schema: duplicate column %q", f.Name)
		}

		switch f.Kind {
		case KindText, KindDate:
		case KindEnum:
			if _, ok := s.OptionLists[f.Options]; !ok {
				return fmt.Errorf("schema: enum column %q references unknown option list %q", f.Name, f.Options)
			}
		default:
			return fmt.Errorf("schema: column %q has unknown kind %q", f.Name, f.Kind)
		}

		// Declared kind and naming convention must agree.
		if (f.Kind == KindDate) != IsDateLike(f.Name) {
			return fmt.Errorf("schema: column %q kind %q disagrees with date naming convention", f.Name, f.Kind)
		}

		s.index[f.Name] = i
	}

	return nil
}

// Field returns the column with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Has reports whether name is a known column, including the id column.
func (s *Schema) Has(name string) bool {
	if name == IDColumn {
		return true
	}
	_, ok := s.index[name]
	return ok
}

// IsDate reports whether name is a declared date column.
func (s *Schema) IsDate(name string) bool {
	f, ok := s.Field(name)
	return ok && f.Kind == KindDate
}

// ColumnNames returns the data column names in grid order, without id.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// DateFields returns the date column names in grid order.
func (s *Schema) DateFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Kind == KindDate {
			names = append(names, f.Name)
		}
	}
	return names
}

// Projection returns the comma separated select list: id followed by
// every data column.
func (s *Schema) Projection() string {
	return IDColumn + "," + strings.Join(s.ColumnNames(), ",")
}

// Options returns the option list with the given name.
func (s *Schema) Options(list string) []string {
	return s.OptionLists[list]
}
