package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nlquery-engine", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr())
	assert.Equal(t, "ingest.jobs", cfg.RabbitMQ.IngestQueue)
	assert.Equal(t, 300, cfg.Redis.CacheTTLSeconds)
	assert.Equal(t, 0.55, cfg.Query.IntentConfidence)
	assert.Equal(t, 20, cfg.Ingest.MaxFileSizeMB)
	assert.Contains(t, cfg.StorageDSN(), "root:@tcp(127.0.0.1:3306)/nlquery?")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9100
env = "prod"

[query]
default_limit = 25
intent_confidence = 0.7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, 25, cfg.Query.DefaultLimit)
	assert.Equal(t, 0.7, cfg.Query.IntentConfidence)
	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "9001")
	t.Setenv("STORAGE_MYSQL_HOST", "db.internal")
	t.Setenv("ADMIN_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.App.Port)
	assert.Equal(t, "s3cret", cfg.Auth.AdminSecret)
	assert.Contains(t, cfg.StorageDSN(), "@tcp(db.internal:3306)/")
}

func TestEnvOverrideBadInt(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.App.Port)
}
