package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"dptracker/internal/config"
	"dptracker/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	s, err := schema.Default()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{
			StoreBackend: config.BackendSQLite,
			SQLitePath:   filepath.Join(t.TempDir(), "nested", "tracker.db"),
			TablePrefix:  "test_",
		}
		store, err := Open(ctx, cfg, s, logger)
		require.NoError(t, err)
		defer store.Close()

		assert.Equal(t, "test_projects", store.Table)
		assert.NotNil(t, store.DB)
		rows, err := store.Rows.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("rest", func(t *testing.T) {
		cfg := &config.Config{
			StoreBackend: config.BackendREST,
			SupabaseURL:  "https://example.supabase.co",
			SupabaseKey:  "key",
		}
		store, err := Open(ctx, cfg, s, logger)
		require.NoError(t, err)
		assert.Equal(t, "projects", store.Table)
		store.Close()
	})

	t.Run("rest without credentials", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{StoreBackend: config.BackendREST}, s, logger)
		assert.Error(t, err)
	})

	t.Run("postgres without url", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{StoreBackend: config.BackendPostgres}, s, logger)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{StoreBackend: "mongo"}, s, logger)
		assert.ErrorContains(t, err, "unknown STORE_BACKEND")
	})
}
