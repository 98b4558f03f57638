package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Mode)
	assert.True(t, cfg.Storage.Seed)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
storage:
  mode: postgres
  dsn: postgres://localhost/camp
logging:
  level: debug
  format: json
`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Mode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAMP_SERVER_PORT", "7070")
	t.Setenv("CAMP_STORAGE_MODE", "docstore")
	t.Setenv("CAMP_DOCSTORE_URL", "https://project.example.co")
	t.Setenv("CAMP_AUTH_JWT_SECRET", "sekret")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "docstore", cfg.Storage.Mode)
	assert.Equal(t, "https://project.example.co", cfg.Docstore.URL)
	assert.Equal(t, "sekret", cfg.Auth.JWTSecret)
}

func TestValidation(t *testing.T) {
	t.Run("postgres requires dsn", func(t *testing.T) {
		t.Setenv("CAMP_STORAGE_MODE", "postgres")
		_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("docstore requires url", func(t *testing.T) {
		t.Setenv("CAMP_STORAGE_MODE", "docstore")
		_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("CAMP_SERVER_PORT", "99999")
		_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
