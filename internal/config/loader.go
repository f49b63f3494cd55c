package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = AppName

// configType is the config file format.
const configType = "toml"

// envPrefix is the environment variable prefix, e.g. DEMAZURE_STORE_BACKEND.
const envPrefix = "DEMAZURE"

// Load reads configuration from defaults, the config file and the
// environment. If path is non-empty it names the config file explicitly;
// otherwise demazure.toml is searched in the working directory,
// $XDG_CONFIG_HOME/demazure and ~/.config/demazure. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := applyDefaults(v); err != nil {
		return nil, err
	}

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, AppName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() (*Config, error) {
	path, err := DefaultStorePath()
	if err != nil {
		return nil, err
	}
	return &Config{
		Store: StoreConfig{
			Backend:       DefaultBackend,
			Path:          path,
			RedisURL:      DefaultRedisURL,
			RedisPrefix:   DefaultRedisPrefix,
			MongoURI:      DefaultMongoURI,
			MongoDatabase: DefaultMongoDatabase,
			LockTTL:       DefaultLockTTL,
			LockWait:      DefaultLockWait,
			MemoryEntries: DefaultMemoryEntries,
		},
		Enumeration: EnumerationConfig{MaxN: DefaultMaxN, MaxWords: DefaultMaxWords},
		Search:      SearchConfig{MaxResults: DefaultMaxResults},
		Server:      ServerConfig{Addr: DefaultServerAddr},
		Log:         LogConfig{Level: DefaultLogLevel},
	}, nil
}

func applyDefaults(v *viper.Viper) error {
	path, err := DefaultStorePath()
	if err != nil {
		return fmt.Errorf("resolve store path: %w", err)
	}
	v.SetDefault("store.backend", DefaultBackend)
	v.SetDefault("store.path", path)
	v.SetDefault("store.redis_url", DefaultRedisURL)
	v.SetDefault("store.redis_prefix", DefaultRedisPrefix)
	v.SetDefault("store.mongo_uri", DefaultMongoURI)
	v.SetDefault("store.mongo_database", DefaultMongoDatabase)
	v.SetDefault("store.lock_ttl", DefaultLockTTL)
	v.SetDefault("store.lock_wait", DefaultLockWait)
	v.SetDefault("store.fallback", false)
	v.SetDefault("store.memory_entries", DefaultMemoryEntries)

	v.SetDefault("enumeration.max_n", DefaultMaxN)
	v.SetDefault("enumeration.max_words", DefaultMaxWords)

	v.SetDefault("search.max_results", DefaultMaxResults)

	v.SetDefault("server.addr", DefaultServerAddr)

	v.SetDefault("log.level", DefaultLogLevel)
	return nil
}
