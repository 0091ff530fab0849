// Package sqlite is a local row store for development and tests. It keeps
// the tracker table in a single SQLite file with the same upsert and delete
// semantics as the hosted store.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"dptracker/internal/schema"
)

// OpenDB opens a SQLite database at the given path and creates the tracker
// table if needed. ":memory:" opens a private in-memory database.
func OpenDB(path, table string, s *schema.Schema) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := Migrate(db, table, s); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Migrate creates the tracker table. Dates are stored as YYYY-MM-DD text.
func Migrate(db *sql.DB, table string, s *schema.Schema) error {
	cols := []string{"id INTEGER PRIMARY KEY"}
	for _, f := range s.Fields {
		cols = append(cols, f.Name+" TEXT")
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// DropTable removes the tracker table.
func DropTable(db *sql.DB, table string) error {
	if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	return nil
}
