package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "data/wla.db", cfg.Database.DSN)
	assert.Equal(t, "master_data", cfg.Database.Table)

	assert.Equal(t, "WLA Historical Performance Analysis", cfg.Report.Title)
	assert.Equal(t, "Business Intelligence Team", cfg.Report.Author)
	assert.Equal(t, "data/reports", cfg.Report.OutputDir)
	assert.Equal(t, "WLA_Historical_Report", cfg.Report.FilenamePrefix)

	assert.Equal(t, 8080, cfg.Dashboard.Port)
	assert.Equal(t, 15*time.Second, cfg.Dashboard.ReadTimeout)
	assert.Equal(t, []string{"Urban", "S - Urban", "Rural"}, cfg.Dashboard.PopGroups)
	assert.Equal(t, 12, cfg.Dashboard.DefaultHorizon)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
}

func TestLoadFromFile(t *testing.T) {
	content := `
database:
  driver: sqlite3
  dsn: /tmp/test.db
  table: history
report:
  title: Custom Title
dashboard:
  port: 9090
  default_horizon: 24
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "history", cfg.Database.Table)
	assert.Equal(t, "Custom Title", cfg.Report.Title)
	assert.Equal(t, 9090, cfg.Dashboard.Port)
	assert.Equal(t, 24, cfg.Dashboard.DefaultHorizon)

	// Unset file values fall back to defaults.
	assert.Equal(t, "Business Intelligence Team", cfg.Report.Author)
	assert.Equal(t, "data/reports", cfg.Report.OutputDir)
}

func TestFileValuesSurviveDefaults(t *testing.T) {
	content := `
report:
  title: Custom Title
dashboard:
  port: 9090
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// With no env vars set, file values must win over the struct defaults.
	assert.Equal(t, "Custom Title", cfg.Report.Title)
	assert.Equal(t, 9090, cfg.Dashboard.Port)
}

func TestEnvOverridesFile(t *testing.T) {
	content := `
database:
  dsn: /tmp/file.db
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("WLA_DATABASE_DSN", "/tmp/env.db")
	t.Setenv("WLA_DASHBOARD_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.Database.DSN)
	assert.Equal(t, 7070, cfg.Dashboard.Port)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestLoadRejectsInvalidHorizon(t *testing.T) {
	t.Setenv("WLA_DASHBOARD_DEFAULT_HORIZON", "48")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
