package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 1880, cfg.Web.Port)
	assert.Equal(t, "development", cfg.Logger.Mode)
	assert.False(t, cfg.System.SeedDemo)
}

func TestLoadConfigFile(t *testing.T) {
	content := []byte(`
web:
  host: 127.0.0.1
  port: 9090
database:
  type: sqlite
`)
	cfile := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(cfile, content, 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "127.0.0.1", cfg.Web.Host)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	// untouched sections keep their defaults
	assert.Equal(t, "development", cfg.Logger.Mode)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_WEB_PORT", "8081")
	t.Setenv("CATALOG_DB_TYPE", "sqlite")
	t.Setenv("CATALOG_SYSTEM_SEED_DEMO", "true")

	cfg := LoadConfig("")
	assert.Equal(t, 8081, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.True(t, cfg.System.SeedDemo)
}
