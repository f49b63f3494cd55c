// Package wordcache is the read-through cache of S_n word data.
//
// A [Cache] sits in front of a [store.Store]. The first request for n
// enumerates the weak order of S_n and persists it as one all-or-nothing
// entry; later requests, in this process or another, read it back. Decoded
// entries are kept in a small in-process LRU so hot n values are not
// re-read from the store on every query.
//
// Concurrent population of the same n is collapsed twice: within a process
// by singleflight, across processes by the store's population lock. The lock
// is released on every exit path, and a failed enumeration persists nothing,
// so a retry always starts clean.
package wordcache

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/observability"
	"github.com/matzehuels/demazure/pkg/perm"
	"github.com/matzehuels/demazure/pkg/store"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

// DefaultLRUSize is the number of decoded entries kept in memory.
const DefaultLRUSize = 4

// Options configures a Cache.
type Options struct {
	// Limits bound enumeration. Zero fields use weakorder.DefaultLimits.
	Limits weakorder.Limits

	// LRUSize is the number of decoded entries kept in memory.
	// Zero uses DefaultLRUSize.
	LRUSize int

	// Logger receives population progress. Nil uses log.Default().
	Logger *log.Logger
}

// Cache serves word data for S_n, populating the backing store on demand.
// A Cache is safe for concurrent use.
type Cache struct {
	store  store.Store
	opts   Options
	logger *log.Logger
	recent *lru.Cache[int, *weakorder.Entry]
	group  singleflight.Group
}

// New creates a Cache over st. A nil store caches in memory only.
func New(st store.Store, opts Options) (*Cache, error) {
	if st == nil {
		st = store.NewNullStore()
	}
	size := opts.LRUSize
	if size <= 0 {
		size = DefaultLRUSize
	}
	recent, err := lru.New[int, *weakorder.Entry](size)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "create entry cache")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{store: st, opts: opts, logger: logger, recent: recent}, nil
}

// Store returns the backing store.
func (c *Cache) Store() store.Store { return c.store }

// Limits returns the enumeration limits in effect.
func (c *Cache) Limits() weakorder.Limits {
	l := c.opts.Limits
	if l.MaxN <= 0 {
		l.MaxN = weakorder.DefaultLimits.MaxN
	}
	if l.MaxWords <= 0 {
		l.MaxWords = weakorder.DefaultLimits.MaxWords
	}
	return l
}

// EnsurePopulated makes sure complete data for n exists in the store. It is
// idempotent: once n is populated it only reads.
func (c *Cache) EnsurePopulated(ctx context.Context, n int) error {
	_, err := c.Entry(ctx, n)
	return err
}

// Entry returns the complete word data of S_n, populating it first if needed.
func (c *Cache) Entry(ctx context.Context, n int) (*weakorder.Entry, error) {
	if err := errs.ValidateN(n); err != nil {
		return nil, err
	}
	backend := c.store.Name()
	if e, ok := c.recent.Get(n); ok {
		observability.Store().OnLookup(ctx, backend, n, observability.LookupMemory)
		return e, nil
	}

	e, found, err := c.store.Load(ctx, n)
	if err != nil {
		observability.Store().OnLookup(ctx, backend, n, observability.LookupError)
		return nil, err
	}
	if found {
		observability.Store().OnLookup(ctx, backend, n, observability.LookupHit)
		c.recent.Add(n, e)
		return e, nil
	}
	observability.Store().OnLookup(ctx, backend, n, observability.LookupMiss)

	// The flight is shared, so it must not die with whichever caller
	// started it. Each caller still stops waiting on its own ctx.
	flight := c.group.DoChan(strconv.Itoa(n), func() (any, error) {
		return c.populate(context.WithoutCancel(ctx), n)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-flight:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*weakorder.Entry), nil
	}
}

// populate runs under the store lock for n. Another process may have
// finished populating while we waited, so the store is checked again first.
func (c *Cache) populate(ctx context.Context, n int) (e *weakorder.Entry, err error) {
	limits := c.Limits()
	if n > limits.MaxN {
		return nil, errs.New(errs.ErrCodeResourceExhausted,
			"enumerating S_%d exceeds the configured maximum n=%d", n, limits.MaxN)
	}

	unlock, err := c.store.Lock(ctx, n)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			c.logger.Warn("release population lock", "n", n, "error", uerr)
		}
	}()

	if e, found, err := c.store.Load(ctx, n); err != nil {
		return nil, err
	} else if found {
		c.recent.Add(n, e)
		return e, nil
	}

	c.logger.Info("populating word cache", "n", n, "store", c.store.Name())
	start := time.Now()
	observability.Enumeration().OnEnumerateStart(ctx, n)
	e, err = weakorder.Enumerate(ctx, n, weakorder.Options{Limits: limits, Logger: c.logger})
	if err != nil {
		observability.Enumeration().OnEnumerateComplete(ctx, n, 0, 0, time.Since(start), err)
		return nil, err
	}
	observability.Enumeration().OnEnumerateComplete(ctx, n, e.Size(), e.WordCount(), time.Since(start), nil)

	saveStart := time.Now()
	err = c.store.Save(ctx, e)
	observability.Store().OnSave(ctx, c.store.Name(), n, time.Since(saveStart), err)
	if err != nil {
		return nil, err
	}
	c.recent.Add(n, e)
	c.logger.Info("populated word cache",
		"n", n,
		"elements", e.Size(),
		"words", e.WordCount(),
		"duration", time.Since(start))
	return e, nil
}

// Length returns l(p) for p in S_n.
func (c *Cache) Length(ctx context.Context, n int, p perm.Perm) (int, error) {
	e, err := c.entryFor(ctx, n, p)
	if err != nil {
		return 0, err
	}
	l, ok := e.Length(p)
	if !ok {
		return 0, errs.New(errs.ErrCodeInternal, "complete entry for n=%d has no length for %s", n, p)
	}
	return l, nil
}

// ReducedWords returns every reduced word of p in S_n, sorted
// lexicographically. The result is shared and must not be modified.
func (c *Cache) ReducedWords(ctx context.Context, n int, p perm.Perm) ([]perm.Word, error) {
	e, err := c.entryFor(ctx, n, p)
	if err != nil {
		return nil, err
	}
	words, ok := e.ReducedWords(p)
	if !ok {
		return nil, errs.New(errs.ErrCodeInternal, "complete entry for n=%d has no words for %s", n, p)
	}
	return words, nil
}

// entryFor validates p before touching the store: malformed input is an
// INVALID_PERMUTATION, a valid permutation of another size an
// UNKNOWN_ELEMENT. Neither is a cache miss.
func (c *Cache) entryFor(ctx context.Context, n int, p perm.Perm) (*weakorder.Entry, error) {
	if err := errs.ValidateN(n); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p) != n {
		return nil, errs.New(errs.ErrCodeUnknownElement, "%s is not an element of S_%d", p, n)
	}
	return c.Entry(ctx, n)
}

// LengthFunc returns a length lookup for S_n backed by the cache, for use
// by the Demazure evaluator. n is populated before LengthFunc returns.
func (c *Cache) LengthFunc(ctx context.Context, n int) (func(perm.Perm) (int, error), error) {
	e, err := c.Entry(ctx, n)
	if err != nil {
		return nil, err
	}
	return func(p perm.Perm) (int, error) {
		l, ok := e.Length(p)
		if !ok {
			return 0, errs.New(errs.ErrCodeUnknownElement, "%s is not an element of S_%d", p, n)
		}
		return l, nil
	}, nil
}

// Rebuild discards the stored data for n and populates it again.
func (c *Cache) Rebuild(ctx context.Context, n int) (*weakorder.Entry, error) {
	if err := c.Delete(ctx, n); err != nil {
		return nil, err
	}
	return c.Entry(ctx, n)
}

// Delete removes n from the store and the in-memory LRU.
func (c *Cache) Delete(ctx context.Context, n int) error {
	if err := errs.ValidateN(n); err != nil {
		return err
	}
	c.recent.Remove(n)
	return c.store.Delete(ctx, n)
}

// Clear removes every populated n.
func (c *Cache) Clear(ctx context.Context) ([]int, error) {
	ns, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range ns {
		if err := c.Delete(ctx, n); err != nil {
			return nil, err
		}
	}
	c.recent.Purge()
	return ns, nil
}

// Populated returns every n with complete data in the store.
func (c *Cache) Populated(ctx context.Context) ([]int, error) {
	return c.store.List(ctx)
}

// Close closes the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}
