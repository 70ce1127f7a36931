package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/ragdex/internal/config"
)

// clearEnv blanks every variable Load consults so host settings cannot
// leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RAGDEX_CONFIG",
		"RAGDEX_SERVER_URL",
		"RAGDEX_DATA_DIR",
		"RAGDEX_LOG_FILE",
		"RAGDEX_LOG_LEVEL",
		"RAGDEX_REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg := config.Load()
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5.0, cfg.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RequestBurst)
	assert.Equal(t, 16, cfg.MaxChunks)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAGDEX_SERVER_URL", "http://search.internal:9000")
	t.Setenv("RAGDEX_LOG_LEVEL", "debug")
	t.Setenv("RAGDEX_REQUEST_TIMEOUT", "90s")

	cfg := config.Load()
	assert.Equal(t, "http://search.internal:9000", cfg.ServerURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_url: http://file.example:8000\nmax_chunks: 32\nlog_level: warn\n"), 0600))
	t.Setenv("RAGDEX_CONFIG", path)

	cfg := config.Load()
	assert.Equal(t, "http://file.example:8000", cfg.ServerURL)
	assert.Equal(t, 32, cfg.MaxChunks)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestEnvBeatsConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://from-file:8000\n"), 0600))
	t.Setenv("RAGDEX_CONFIG", path)
	t.Setenv("RAGDEX_SERVER_URL", "http://from-env:8000")

	cfg := config.Load()
	assert.Equal(t, "http://from-env:8000", cfg.ServerURL)
}

func TestBrokenConfigFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0600))
	t.Setenv("RAGDEX_CONFIG", path)

	cfg := config.Load()
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL, "broken files fall back to defaults")
}

func TestUnknownLogLevelDefaultsToInfo(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAGDEX_LOG_LEVEL", "chatty")

	cfg := config.Load()
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
