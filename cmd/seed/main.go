package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"dptracker/internal/auth"
	"dptracker/internal/config"
	"dptracker/internal/datefmt"
	"dptracker/internal/domain/models"
	"dptracker/internal/export"
	"dptracker/internal/reconcile"
	"dptracker/internal/repository"
	"dptracker/internal/repository/postgres"
	"dptracker/internal/repository/sqlite"
	"dptracker/internal/schema"
	"dptracker/internal/seed"
	"dptracker/internal/service/tracker"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the tracker table before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only create the tracker table, don't seed rows")
	fixturesPath := flag.String("fixtures", "", "YAML fixture file (defaults to the embedded sample rows)")
	userEmail := flag.String("user", "", "Create a confirmed Supabase login with this email if missing")
	userPassword := flag.String("password", "", "Password for --user")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: --drop-tables is not allowed in the production environment")
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	ctx := context.Background()

	s, err := schema.Default()
	if cfg.SchemaFile != "" {
		s, err = schema.LoadFile(cfg.SchemaFile)
	}
	if err != nil {
		log.Fatalf("Failed to load column schema: %v", err)
	}

	logger.Info("seeding",
		"environment", cfg.Environment,
		"backend", cfg.StoreBackend,
		"table_prefix", cfg.TablePrefix,
	)

	store, err := repository.Open(ctx, cfg, s, logger)
	if err != nil {
		log.Fatalf("Failed to open row store: %v", err)
	}
	defer store.Close()

	if err := prepareTable(ctx, store, s, *dropTables); err != nil {
		log.Fatalf("Failed to prepare %s: %v", store.Table, err)
	}
	logger.Info("schema ready", "table", store.Table)

	if *userEmail != "" {
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			log.Fatalf("--user requires SUPABASE_URL and SUPABASE_KEY")
		}
		if *userPassword == "" {
			log.Fatalf("--user requires --password")
		}
		id, created, err := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey).EnsureUser(ctx, *userEmail, *userPassword)
		if err != nil {
			log.Fatalf("Failed to provision user: %v", err)
		}
		logger.Info("login ready", "email", *userEmail, "user_id", id, "created", created)
	}

	if *schemaOnly {
		logger.Info("schema setup complete (schema-only mode)")
		return
	}

	rows, err := loadFixtures(*fixturesPath)
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	svc := tracker.NewTrackerService(
		store.Rows,
		s,
		reconcile.New(s, datefmt.NewConverter(time.Local)),
		export.NewCSVExporter(s, export.Options{FilenamePrefix: config.ExportFilenamePrefix}),
		logger,
	)

	res, err := seed.NewSeeder(svc, logger).Seed(ctx, rows)
	if err != nil {
		log.Fatalf("Failed to seed rows: %v", err)
	}

	logger.Info("seeding complete", "rows", len(res.AssignedIDs), "max_id", res.MaxID)
}

// prepareTable creates the tracker table, dropping it first when asked.
// The hosted REST store has no DDL access; its table is managed in Supabase.
func prepareTable(ctx context.Context, store *repository.Store, s *schema.Schema, drop bool) error {
	switch {
	case store.Pool != nil:
		tables := &postgres.TableNames{Projects: store.Table}
		if drop {
			if err := postgres.DropTables(ctx, store.Pool, tables); err != nil {
				return err
			}
		}
		return postgres.EnsureSchema(ctx, store.Pool, tables, s)

	case store.DB != nil:
		if drop {
			if err := sqlite.DropTable(store.DB, store.Table); err != nil {
				return err
			}
		}
		return sqlite.Migrate(store.DB, store.Table, s)

	default:
		if drop {
			log.Printf("--drop-tables ignored: the %s store cannot run DDL", store.Backend)
		}
		return nil
	}
}

func loadFixtures(path string) ([]models.Row, error) {
	if path == "" {
		return seed.DefaultFixtures()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.ParseFixtures(data)
}
