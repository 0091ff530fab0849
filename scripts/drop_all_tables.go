package main

import (
	"database/sql"
	"fmt"
	"log"

	"dptracker/internal/config"
	"dptracker/internal/schema"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// Drops the tracker table for the current environment's prefix.
// Usage: go run ./scripts/drop_all_tables.go
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SupabaseDBURL == "" {
		log.Fatal("SUPABASE_DB_URL environment variable is required")
	}
	if cfg.Environment == "prod" {
		log.Fatal("refusing to drop tables in the production environment")
	}

	s, err := schema.Default()
	if err != nil {
		log.Fatalf("Failed to load column schema: %v", err)
	}
	table := cfg.TablePrefix + s.Table

	db, err := sql.Open("pgx", cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	if _, err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
		log.Fatalf("Failed to drop %s: %v", table, err)
	}

	fmt.Printf("Dropped %s (prefix: %q)\n", table, cfg.TablePrefix)
}
