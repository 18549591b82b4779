package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sowaudit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfig, EnvRedisURL, EnvDatabaseURL, EnvHistoryURL, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
judge:
  provider: google
  model: gemini-2.5-flash
  concurrency: 8
catalog:
  store: redis
  redis_url: redis://localhost:6379/0
history:
  base_url: https://analysis.example.com
  timeout: 5s
  years_back: 5
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Judge.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Judge.Model)
	assert.Equal(t, 8, cfg.Judge.Concurrency)
	assert.Equal(t, 2048, cfg.Judge.MaxTokens, "unset fields keep defaults")
	assert.Equal(t, StoreRedis, cfg.Catalog.Store)
	assert.Equal(t, "sowaudit:default_checks", cfg.Catalog.RedisKey)
	assert.Equal(t, 5*time.Second, cfg.History.Timeout)
	assert.Equal(t, 5, cfg.History.YearsBack)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "catalog:\n  store: postgres\n  database_url: postgres://file\n")
	t.Setenv(EnvDatabaseURL, "postgres://env")
	t.Setenv(EnvHistoryURL, "http://env:9090")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Catalog.DatabaseURL)
	assert.Equal(t, "http://env:9090", cfg.History.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_ImplicitMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err = Load("")
	assert.Error(t, err, "SOWAUDIT_CONFIG names a file that must exist")
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "judge: [unclosed"))
	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Judge.Provider = "acme"
	cfg.Judge.MaxTokens = 0
	cfg.Judge.Temperature = 3
	cfg.Catalog.Store = StoreRedis
	cfg.History.YearsBack = 0

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, field := range []string{"judge.provider", "judge.max_tokens", "judge.temperature", "catalog.redis_url", "history.years_back"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidate_Stores(t *testing.T) {
	cases := []struct {
		store string
		ok    bool
	}{
		{StoreNone, true},
		{StoreFile, true},
		{StoreRedis, false},
		{StorePostgres, false},
		{"s3", false},
	}
	for _, c := range cases {
		cfg := Default()
		cfg.Catalog.Store = c.store
		if c.ok {
			assert.NoError(t, cfg.Validate(), c.store)
		} else {
			assert.Error(t, cfg.Validate(), c.store)
		}
	}
}
