package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  multi_tenancy: true
database:
  workmode: external
  redis:
    address: redis:6379
    ttl:
      aggregates: 2h
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.True(t, cfg.App.MultiTenancy)
	require.Equal(t, WorkmodeExternal, cfg.Database.Workmode)
	require.Equal(t, "redis:6379", cfg.Database.Redis.Address)
	require.Equal(t, 2*time.Hour, cfg.Database.Redis.TTL.Aggregates)
	require.Equal(t, time.Hour, cfg.Database.Redis.TTL.CurrentBlock)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, 50051, cfg.Server.Port)
	require.Equal(t, 2*time.Minute, cfg.Cache.TTI)
	require.Contains(t, cfg.Routing.SuccessRate, "min_aggregates_size")
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: info\n"), 0o600))

	t.Setenv("DR_LOGGER__LEVEL", "error")
	t.Setenv("DR_DATABASE__REDIS__POOL_SIZE", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Logger.Level)
	require.Equal(t, 7, cfg.Database.Redis.PoolSize)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, ErrFileNotFound)
}
