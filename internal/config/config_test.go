package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30, cfg.MapillaryLimit)
	assert.Equal(t, 10, cfg.MapboxSampleCount)
	assert.Equal(t, 17, cfg.MapboxZoom)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 60*time.Minute, cfg.CacheMaxAge)
	assert.Equal(t, 30*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, 50.0, cfg.MaxRadiusKm)
	assert.Equal(t, 500, cfg.MaxLimit)
	assert.Equal(t, 50.82055797368375, cfg.SeedLatitude)
	assert.Equal(t, "imagery-refresh", cfg.ArchiveBucket)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "DB_DRIVER=postgres\nDB_SOURCE=postgres://u:p@localhost:5432/imagery\nMAPBOX_ACCESS_TOKEN=pk.file\nCACHE_MAX_AGE=15m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o644))

	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.env")
	t.Setenv("REFRESH_WORKERS", "8")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost:5432/imagery", cfg.DBSource)
	assert.Equal(t, "pk.env", cfg.MapboxAccessToken)
	assert.Equal(t, 15*time.Minute, cfg.CacheMaxAge)
	assert.Equal(t, 8, cfg.RefreshWorkers)
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
