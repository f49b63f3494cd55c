package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/demazure/internal/config"
	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/query"
	"github.com/matzehuels/demazure/pkg/store"
	"github.com/matzehuels/demazure/pkg/weakorder"
	"github.com/matzehuels/demazure/pkg/wordcache"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Global flags.
	verbose    bool
	configPath string
	backend    string
	noCache    bool
	output     string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), output: formatText}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// setup loads the configuration and applies the global flags. It runs before
// every command.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := checkFormat(c.output); err != nil {
		return err
	}
	c.cfg = cfg

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Service Factory
// =============================================================================

// openStore opens the configured backend.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	sc := c.cfg.Store
	switch sc.Backend {
	case config.BackendFile:
		return store.NewFileStore(sc.Path, store.FileOptions{LockTTL: sc.LockTTL, LockWait: sc.LockWait})
	case config.BackendRedis:
		return store.NewRedisStore(ctx, sc.RedisURL, store.RedisOptions{
			Prefix:   sc.RedisPrefix,
			LockTTL:  sc.LockTTL,
			LockWait: sc.LockWait,
		})
	case config.BackendMongo:
		return store.NewMongoStore(ctx, sc.MongoURI, store.MongoOptions{
			Database: sc.MongoDatabase,
			LockTTL:  sc.LockTTL,
			LockWait: sc.LockWait,
		})
	case config.BackendMemory:
		return store.NewMemoryStore(sc.LockWait), nil
	case config.BackendNone:
		return store.NewNullStore(), nil
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "unknown store backend %q", sc.Backend)
}

// newCache opens the store behind a word cache. With --no-cache, or when
// the store is unreachable and store.fallback is set, the cache persists
// nothing and degraded reports true.
func (c *CLI) newCache(ctx context.Context) (cache *wordcache.Cache, degraded bool, err error) {
	logger := loggerFromContext(ctx)

	var st store.Store
	switch {
	case c.noCache:
		st, degraded = store.NewNullStore(), true
	default:
		st, err = c.openStore(ctx)
		if err != nil {
			if !c.cfg.Store.Fallback || !errs.Is(err, errs.ErrCodeStoreUnavailable) {
				return nil, false, err
			}
			logger.Warn("store unavailable, continuing without persistence",
				"backend", c.cfg.Store.Backend, "error", errs.UserMessage(err))
			st, degraded = store.NewNullStore(), true
		}
	}

	cache, err = wordcache.New(st, wordcache.Options{
		Limits: weakorder.Limits{
			MaxN:     c.cfg.Enumeration.MaxN,
			MaxWords: c.cfg.Enumeration.MaxWords,
		},
		LRUSize: c.cfg.Store.MemoryEntries,
		Logger:  logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, false, err
	}
	return cache, degraded, nil
}

// newService builds the query service for a command. The returned close
// function releases the store.
func (c *CLI) newService(ctx context.Context) (*query.Service, func(), error) {
	cache, degraded, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, err := query.New(cache, query.Options{
		Degraded:   degraded,
		MaxResults: c.cfg.Search.MaxResults,
		Logger:     loggerFromContext(ctx),
	})
	if err != nil {
		_ = cache.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := cache.Close(); err != nil {
			loggerFromContext(ctx).Warn("close store", "error", err)
		}
	}
	return svc, closeFn, nil
}
