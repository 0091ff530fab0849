package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dptracker/internal/auth"
	"dptracker/internal/config"
	"dptracker/internal/datefmt"
	"dptracker/internal/export"
	"dptracker/internal/handler"
	"dptracker/internal/middleware"
	"dptracker/internal/reconcile"
	"dptracker/internal/repository"
	"dptracker/internal/schema"
	"dptracker/internal/service/tracker"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	if cfg.AuthDisabled && cfg.Environment == "prod" {
		log.Fatalf("AUTH_DISABLED is not allowed in production")
	}

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"store_backend", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Column schema
	s, err := loadSchema(cfg)
	if err != nil {
		log.Fatalf("Failed to load column schema: %v", err)
	}
	logger.Info("schema loaded",
		"table", s.Table,
		"columns", len(s.Fields),
		"date_columns", len(s.DateFields()),
	)

	// Row store
	store, err := repository.Open(ctx, cfg, s, logger)
	if err != nil {
		log.Fatalf("Failed to open row store: %v", err)
	}
	defer store.Close()
	logger.Info("row store ready", "backend", store.Backend, "table", store.Table)

	// Services
	reconciler := reconcile.New(s, datefmt.NewConverter(time.Local))
	exporter := export.NewCSVExporter(s, export.Options{
		RowHeaders:     true,
		FilenamePrefix: config.ExportFilenamePrefix,
	})
	trackerService := tracker.NewTrackerService(store.Rows, s, reconciler, exporter, logger)

	// Handlers
	rowsHandler := handler.NewRowsHandler(trackerService, logger)
	exportHandler := handler.NewExportHandler(trackerService, logger)
	schemaHandler := handler.NewSchemaHandler(s)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.HandleFunc("GET /api/schema", schemaHandler.GetSchema)

	// Grid hooks
	mux.HandleFunc("GET /api/rows", rowsHandler.ListRows)
	mux.HandleFunc("POST /api/rows/save", rowsHandler.SaveRows)
	mux.HandleFunc("POST /api/rows/remove", rowsHandler.RemoveRows)
	mux.HandleFunc("DELETE /api/rows", rowsHandler.DeleteRows)

	// CSV export
	mux.HandleFunc("GET /api/export", exportHandler.ExportStored)
	mux.HandleFunc("POST /api/export", exportHandler.ExportView)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestLogger → Recovery → Auth → Routes
	if cfg.AuthDisabled {
		logger.Warn("AUTH DISABLED: every request is accepted without a token")
	} else {
		jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	}
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}

func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.SchemaFile != "" {
		return schema.LoadFile(cfg.SchemaFile)
	}
	return schema.Default()
}
