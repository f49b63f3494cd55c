// Package query is the entry surface of the module: the operations a CLI, an
// HTTP layer or any other collaborator may call.
//
// A [Service] validates its inputs, resolves the length source for n and
// delegates to the word cache and the Demazure search engine:
//
//	svc := query.New(cache, query.Options{})
//	l, err := svc.Length(ctx, 3, perm.MustNew(3, 2, 1))          // 3
//	w, err := svc.DemazureProduct(ctx, 3, perm.Word{1, 1, 2})      // 2,3,1
//	subs, err := svc.SubwordsMultiplyingTo(ctx, 3, q, target)
//
// In degraded mode the service never touches a persistent store: lengths
// come from inversion counting and word data is enumerated in memory.
package query

import (
	"context"
	"math/big"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/demazure/pkg/demazure"
	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/observability"
	"github.com/matzehuels/demazure/pkg/perm"
	"github.com/matzehuels/demazure/pkg/store"
	"github.com/matzehuels/demazure/pkg/weakorder"
	"github.com/matzehuels/demazure/pkg/wordcache"
)

// Options configures a Service.
type Options struct {
	// Degraded computes lengths algebraically and keeps word data in memory
	// only. Used when the store is unavailable and the caller opted in.
	Degraded bool

	// MaxResults caps SubwordsMultiplyingTo. Zero uses
	// demazure.DefaultMaxResults.
	MaxResults int

	// Logger for query tracing. Nil uses log.Default().
	Logger *log.Logger
}

// Service answers queries about S_n.
// A Service is safe for concurrent use.
type Service struct {
	cache  *wordcache.Cache
	opts   Options
	logger *log.Logger
}

// New creates a service over c. In degraded mode, or when c is nil, the
// service uses a memory-only cache instead.
func New(c *wordcache.Cache, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if c == nil || opts.Degraded {
		var limits weakorder.Limits
		if c != nil {
			limits = c.Limits()
		}
		mem, err := wordcache.New(store.NewNullStore(), wordcache.Options{Limits: limits, Logger: logger})
		if err != nil {
			return nil, err
		}
		c = mem
	}
	return &Service{cache: c, opts: opts, logger: logger}, nil
}

// Cache returns the word cache behind the service.
func (s *Service) Cache() *wordcache.Cache { return s.cache }

// Degraded reports whether the service runs without persistence.
func (s *Service) Degraded() bool { return s.opts.Degraded }

// Length returns l(p) for p in S_n.
func (s *Service) Length(ctx context.Context, n int, p perm.Perm) (int, error) {
	if s.opts.Degraded {
		if err := checkElement(n, p); err != nil {
			return 0, err
		}
		return p.Length(), nil
	}
	return s.cache.Length(ctx, n, p)
}

// ReducedWords returns every reduced word of p in S_n.
func (s *Service) ReducedWords(ctx context.Context, n int, p perm.Perm) ([]perm.Word, error) {
	return s.cache.ReducedWords(ctx, n, p)
}

// DemazureProduct returns the Demazure product of word in S_n.
func (s *Service) DemazureProduct(ctx context.Context, n int, word perm.Word) (perm.Perm, error) {
	ev, err := s.evaluator(ctx, n)
	if err != nil {
		return nil, err
	}
	return ev.Product(word)
}

// ReducedWordOf returns the length-increasing steps of the Demazure fold of
// word, a reduced word of DemazureProduct(n, word).
func (s *Service) ReducedWordOf(ctx context.Context, n int, word perm.Word) (perm.Word, error) {
	ev, err := s.evaluator(ctx, n)
	if err != nil {
		return nil, err
	}
	return ev.ReducedWord(word)
}

// SubwordsMultiplyingTo returns every subword of q whose Demazure product is
// target.
func (s *Service) SubwordsMultiplyingTo(ctx context.Context, n int, q perm.Word, target perm.Perm) ([]demazure.Subword, error) {
	ev, err := s.evaluator(ctx, n)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	subs, err := demazure.SubwordsMultiplyingTo(ctx, ev, q, target, demazure.SearchOptions{MaxResults: s.opts.MaxResults})
	s.searched(ctx, observability.SearchSubwords, len(subs), start, err)
	return subs, err
}

// SubwordCount returns the number of subwords of q whose Demazure product is
// target.
func (s *Service) SubwordCount(ctx context.Context, n int, q perm.Word, target perm.Perm) (*big.Int, error) {
	ev, err := s.evaluator(ctx, n)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	count, err := demazure.CountSubwords(ctx, ev, q, target)
	s.searched(ctx, observability.SearchCount, 1, start, err)
	return count, err
}

// NonReducedSubwordImages returns the elements reached by some non-reduced
// subword of q.
func (s *Service) NonReducedSubwordImages(ctx context.Context, n int, q perm.Word) ([]perm.Perm, error) {
	ev, err := s.evaluator(ctx, n)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	images, err := demazure.NonReducedSubwordImages(ctx, ev, q)
	s.searched(ctx, observability.SearchNonReduce, len(images), start, err)
	return images, err
}

// Images returns every Demazure product of a subword of q.
func (s *Service) Images(ctx context.Context, n int, q perm.Word) ([]perm.Perm, error) {
	ev, err := s.evaluator(ctx, n)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	images, err := demazure.Images(ctx, ev, q)
	s.searched(ctx, observability.SearchImages, len(images), start, err)
	return images, err
}

// Populate makes sure the word data of S_n is complete and returns it.
func (s *Service) Populate(ctx context.Context, n int) (*weakorder.Entry, error) {
	return s.cache.Entry(ctx, n)
}

// Element is the word data of one element of S_n.
type Element struct {
	Permutation perm.Perm   `json:"permutation" yaml:"permutation" toml:"permutation"`
	Length      int         `json:"length" yaml:"length" toml:"length"`
	Words       []perm.Word `json:"words" yaml:"words" toml:"words"`
}

// Elements lists every element of S_n with its length and reduced words,
// ordered by length and then one-line notation.
func (s *Service) Elements(ctx context.Context, n int) ([]Element, error) {
	e, err := s.cache.Entry(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, e.Size())
	e.Each(func(p perm.Perm, length int, words []perm.Word) bool {
		out = append(out, Element{Permutation: p, Length: length, Words: words})
		return true
	})
	return out, nil
}

// evaluator picks the length source for n: the word cache when n can be
// populated, inversion counting in degraded mode or when S_n does not fit
// the enumeration limits. Both sources agree on every element.
func (s *Service) evaluator(ctx context.Context, n int) (*demazure.Evaluator, error) {
	if err := errs.ValidateN(n); err != nil {
		return nil, err
	}
	if s.opts.Degraded || n > s.cache.Limits().MaxN {
		return demazure.NewEvaluator(n)
	}
	lengths, err := s.cache.LengthFunc(ctx, n)
	if errs.Is(err, errs.ErrCodeResourceExhausted) {
		s.logger.Debug("word cache cannot hold n, counting inversions", "n", n, "error", err)
		return demazure.NewEvaluator(n)
	}
	if err != nil {
		return nil, err
	}
	return demazure.NewEvaluator(n, demazure.WithLengths(lengths))
}

func (s *Service) searched(ctx context.Context, kind string, results int, start time.Time, err error) {
	d := time.Since(start)
	observability.Search().OnSearch(ctx, kind, results, d, err)
	if err != nil {
		s.logger.Debug("search failed", "kind", kind, "error", err)
		return
	}
	s.logger.Debug("search complete", "kind", kind, "results", results, "duration", d)
}

func checkElement(n int, p perm.Perm) error {
	if err := errs.ValidateN(n); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if len(p) != n {
		return errs.New(errs.ErrCodeUnknownElement, "%s is not an element of S_%d", p, n)
	}
	return nil
}
