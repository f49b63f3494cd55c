package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/demazure/internal/config"
	errs "github.com/matzehuels/demazure/pkg/errors"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	want, err := config.Default()
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
	assert.Equal(t, filepath.Join(dir, "cache", "demazure"), cfg.Store.Path)
	assert.Equal(t, 10*time.Minute, cfg.Store.LockTTL)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	content := `
[store]
backend = "redis"
redis_url = "redis://cache:6379/2"
lock_wait = "90s"
fallback = true

[enumeration]
max_n = 7

[log]
level = "DEBUG"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/2", cfg.Store.RedisURL)
	assert.Equal(t, 90*time.Second, cfg.Store.LockWait)
	assert.True(t, cfg.Store.Fallback)
	assert.Equal(t, 7, cfg.Enumeration.MaxN)
	assert.Equal(t, config.DefaultMaxWords, cfg.Enumeration.MaxWords)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_SearchPath(t *testing.T) {
	dir := isolate(t)
	confDir := filepath.Join(dir, "config", "demazure")
	require.NoError(t, os.MkdirAll(confDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(confDir, "demazure.toml"), []byte("[server]\naddr = \":9090\"\n"), 0644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("DEMAZURE_STORE_BACKEND", "memory")
	t.Setenv("DEMAZURE_SEARCH_MAX_RESULTS", "42")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 42, cfg.Search.MaxResults)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("DEMAZURE_STORE_BACKEND", "sqlite")
	_, err := config.Load("")
	require.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestValidate_BudgetCode(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Enumeration.MaxWords = 0

	err = cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidWords)
	assert.Equal(t, errs.ErrCodeInvalidInput, errs.GetCode(err))
	assert.Equal(t, "enumeration.max_words must be positive, got 0", errs.UserMessage(err))
}

func TestValidate(t *testing.T) {
	base, err := config.Default()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"valid", func(*config.Config) {}, nil},
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "s3" }, config.ErrUnknownBackend},
		{"empty path", func(c *config.Config) { c.Store.Path = "" }, config.ErrEmptyPath},
		{"empty path other backend", func(c *config.Config) { c.Store.Path = ""; c.Store.Backend = config.BackendNone }, nil},
		{"lock ttl", func(c *config.Config) { c.Store.LockTTL = 0 }, config.ErrInvalidLockTTL},
		{"lock wait", func(c *config.Config) { c.Store.LockWait = -time.Second }, config.ErrInvalidWait},
		{"memory entries", func(c *config.Config) { c.Store.MemoryEntries = 0 }, config.ErrInvalidEntries},
		{"max n", func(c *config.Config) { c.Enumeration.MaxN = 0 }, config.ErrInvalidMaxN},
		{"max words", func(c *config.Config) { c.Enumeration.MaxWords = -1 }, config.ErrInvalidWords},
		{"max results", func(c *config.Config) { c.Search.MaxResults = 0 }, config.ErrInvalidResults},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, config.ErrUnknownLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
