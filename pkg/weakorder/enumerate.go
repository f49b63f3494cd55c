package weakorder

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

// Limits bounds an enumeration. Zero fields take the DefaultLimits value.
type Limits struct {
	// MaxN is the largest n that may be enumerated.
	MaxN int
	// MaxWords caps the total number of reduced words across S_n.
	MaxWords int
}

// DefaultLimits fit comfortably in memory: S_6 has 1,095,266 reduced words
// in total, S_7 almost four billion. MaxN is the largest n MaxWords admits.
var DefaultLimits = Limits{
	MaxN:     6,
	MaxWords: 5_000_000,
}

func (l Limits) withDefaults() Limits {
	if l.MaxN <= 0 {
		l.MaxN = DefaultLimits.MaxN
	}
	if l.MaxWords <= 0 {
		l.MaxWords = DefaultLimits.MaxWords
	}
	return l
}

// Options configures Enumerate.
type Options struct {
	Limits Limits
	Logger *log.Logger
}

// Enumerate builds the complete Entry for S_n by a breadth-first walk of the
// right weak order from the identity.
//
// Level k holds the elements of length k. For each element u on level k and
// each ascent i of u (l(u·s_i) = k+1), u·s_i is placed on level k+1 and
// every reduced word of u extended by i becomes a reduced word of u·s_i. A
// word is therefore recorded exactly when each prefix strictly increases
// length, and each reduced word of an element is produced once, through its
// last letter. The walk stops when a level has no ascents, which happens
// right after the longest element.
//
// Exceeding Limits fails with RESOURCE_EXHAUSTED and returns no entry. The
// context is checked between levels.
func Enumerate(ctx context.Context, n int, opts Options) (*Entry, error) {
	if err := errs.ValidateN(n); err != nil {
		return nil, err
	}
	limits := opts.Limits.withDefaults()
	if n > limits.MaxN {
		return nil, errs.New(errs.ErrCodeResourceExhausted,
			"enumerating S_%d exceeds the configured maximum n=%d", n, limits.MaxN)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := time.Now()
	e := NewEntry(n)
	root := &node{p: perm.Identity(n), length: 0, words: []perm.Word{{}}}
	e.nodes[root.p.Key()] = root

	total := 1
	frontier := []*node{root}
	for rank := 0; len(frontier) > 0; rank++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []*node
		for _, u := range frontier {
			for i := 1; i < n; i++ {
				if !u.p.IsAscent(i) {
					continue
				}
				v, err := u.p.Mul(i)
				if err != nil {
					return nil, err
				}
				key := v.Key()
				nd, ok := e.nodes[key]
				if !ok {
					nd = &node{p: v, length: rank + 1}
					e.nodes[key] = nd
					next = append(next, nd)
				}
				total += len(u.words)
				if total > limits.MaxWords {
					return nil, errs.New(errs.ErrCodeResourceExhausted,
						"S_%d has more than %d reduced words", n, limits.MaxWords)
				}
				for _, w := range u.words {
					nd.words = append(nd.words, w.Append(i))
				}
			}
		}
		if len(next) > 0 {
			logger.Debug("weak order level", "n", n, "length", rank+1, "elements", len(next), "words", total)
		}
		frontier = next
	}

	if err := e.Seal(); err != nil {
		return nil, err
	}
	logger.Debug("enumerated weak order",
		"n", n,
		"elements", e.Size(),
		"words", e.WordCount(),
		"duration", time.Since(start))
	return e, nil
}
