package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("LOG_MAX_FILES", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "https://abc.supabase.co/auth/v1/.well-known/jwks.json", cfg.SupabaseJWKSURL)
	assert.Equal(t, 10, cfg.LogMaxFiles)
	assert.False(t, cfg.AuthDisabled)
}

func TestGetTablePrefix(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"prod", ""},
		{"test", "test_"},
		{"dev", "dev_"},
		{"staging", "dev_"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			require.NoError(t, os.Unsetenv("TABLE_PREFIX"))
			assert.Equal(t, tt.want, getTablePrefix(tt.env))
		})
	}

	t.Run("explicit override", func(t *testing.T) {
		t.Setenv("TABLE_PREFIX", "")
		assert.Equal(t, "", getTablePrefix("dev"))
	})
}

func TestSetupLogFile_RotatesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"dptracker-2020-01-01T00-00-00.log", "dptracker-2020-01-02T00-00-00.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	files, err := filepath.Glob(filepath.Join(dir, "dptracker-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "dptracker-2020-01-01T00-00-00.log"))
}
