// Package config loads demazure settings from defaults, an optional
// demazure.toml and DEMAZURE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	errs "github.com/matzehuels/demazure/pkg/errors"
)

// AppName names the config file, the cache directory and the env prefix.
const AppName = "demazure"

// Store backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Backends lists every accepted store.backend value.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendMemory, BackendNone}

// Defaults.
const (
	DefaultBackend       = BackendFile
	DefaultRedisURL      = "redis://localhost:6379/0"
	DefaultRedisPrefix   = "demazure:"
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "demazure"
	DefaultLockTTL       = 10 * time.Minute
	DefaultLockWait      = 30 * time.Minute
	DefaultMemoryEntries = 4
	DefaultMaxN          = 6
	DefaultMaxWords      = 5_000_000
	DefaultMaxResults    = 1_000_000
	DefaultServerAddr    = ":8080"
	DefaultLogLevel      = "info"
)

// Config is the top-level configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Store       StoreConfig       `mapstructure:"store"`
	Enumeration EnumerationConfig `mapstructure:"enumeration"`
	Search      SearchConfig      `mapstructure:"search"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

// StoreConfig selects and configures the persistent store.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	RedisURL      string        `mapstructure:"redis_url"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	LockWait      time.Duration `mapstructure:"lock_wait"`
	// Fallback continues without persistence when the store cannot be
	// opened.
	Fallback      bool `mapstructure:"fallback"`
	MemoryEntries int  `mapstructure:"memory_entries"`
}

// EnumerationConfig bounds weak-order enumeration.
type EnumerationConfig struct {
	MaxN     int `mapstructure:"max_n"`
	MaxWords int `mapstructure:"max_words"`
}

// SearchConfig bounds subword searches.
type SearchConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

// ServerConfig configures `demazure serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Sentinel errors for configuration validation.
var (
	ErrUnknownBackend = errors.New("store.backend must be one of file, redis, mongo, memory, none")
	ErrEmptyPath      = errors.New("store.path must not be empty for the file backend")
	ErrInvalidLockTTL = errors.New("store.lock_ttl must be positive")
	ErrInvalidWait    = errors.New("store.lock_wait must be positive")
	ErrInvalidEntries = errors.New("invalid store.memory_entries")
	ErrInvalidMaxN    = errors.New("invalid enumeration.max_n")
	ErrInvalidWords   = errors.New("invalid enumeration.max_words")
	ErrInvalidResults = errors.New("invalid search.max_results")
	ErrUnknownLevel   = errors.New("log.level must be one of debug, info, warn, error")
)

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Store.Backend) {
		return fmt.Errorf("%w, got %q", ErrUnknownBackend, c.Store.Backend)
	}
	if c.Store.Backend == BackendFile && c.Store.Path == "" {
		return ErrEmptyPath
	}
	if c.Store.LockTTL <= 0 {
		return ErrInvalidLockTTL
	}
	if c.Store.LockWait <= 0 {
		return ErrInvalidWait
	}
	for _, b := range []struct {
		sentinel error
		name     string
		value    int
	}{
		{ErrInvalidEntries, "store.memory_entries", c.Store.MemoryEntries},
		{ErrInvalidMaxN, "enumeration.max_n", c.Enumeration.MaxN},
		{ErrInvalidWords, "enumeration.max_words", c.Enumeration.MaxWords},
		{ErrInvalidResults, "search.max_results", c.Search.MaxResults},
	} {
		if err := errs.ValidateBudget(b.name, b.value); err != nil {
			return fmt.Errorf("%w: %w", b.sentinel, err)
		}
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w, got %q", ErrUnknownLevel, c.Log.Level)
	}
	return nil
}

// DefaultStorePath returns the file store directory following the XDG
// convention (~/.cache/demazure/).
func DefaultStorePath() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
