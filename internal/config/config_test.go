package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "enrich.db", cfg.Store.SQLitePath)
	assert.Equal(t, "https://api.peopledatasource.com/v1", cfg.EPS.BaseURL)
	assert.Equal(t, 15, cfg.EPS.TimeoutSecs)
	assert.Equal(t, 5.0, cfg.EPS.RatePerSecond)
	assert.Equal(t, 10, cfg.EPS.MaxCandidates)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.False(t, cfg.Salesforce.Enabled)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrentContacts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chTempDir(t)

	t.Setenv("ENRICH_STORE_DRIVER", "postgres")
	t.Setenv("ENRICH_STORE_DATABASE_URL", "postgres://localhost/enrich")
	t.Setenv("ENRICH_EPS_KEY", "test-key")
	t.Setenv("ENRICH_BATCH_MAX_CONCURRENT_CONTACTS", "12")
	t.Setenv("ENRICH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/enrich", cfg.Store.DatabaseURL)
	assert.Equal(t, "test-key", cfg.EPS.Key)
	assert.Equal(t, 12, cfg.Batch.MaxConcurrentContacts)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
  sqlite_path: custom.db
eps:
  max_candidates: 25
server:
  port: 9090
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom.db", cfg.Store.SQLitePath)
	assert.Equal(t, 25, cfg.EPS.MaxCandidates)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Batch.MaxConcurrentContacts)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	chTempDir(t)

	require.NoError(t, os.WriteFile("config.yaml", []byte("store: [not a map"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	t.Run("json", func(t *testing.T) {
		require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
		assert.True(t, zap.L().Core().Enabled(zap.InfoLevel))
		assert.False(t, zap.L().Core().Enabled(zap.DebugLevel))
	})

	t.Run("console debug", func(t *testing.T) {
		require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
		assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		err := InitLogger(LogConfig{Level: "loud", Format: "json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse log level")
	})
}
