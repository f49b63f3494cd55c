package demazure

import (
	"context"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

// DefaultMaxResults bounds the witnesses SubwordsMultiplyingTo returns.
const DefaultMaxResults = 1_000_000

// Subword is an increasing sequence of 1-based positions into a word.
type Subword []int

// String renders the positions as "{1,3}".
func (s Subword) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = strconv.Itoa(p)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Of returns the generators of q at the positions of s.
func (s Subword) Of(q perm.Word) perm.Word {
	w := make(perm.Word, len(s))
	for i, p := range s {
		w[i] = q[p-1]
	}
	return w
}

// SearchOptions bounds a witness search.
type SearchOptions struct {
	// MaxResults is the largest number of subwords returned. Zero uses
	// DefaultMaxResults. Larger result sets fail with RESOURCE_EXHAUSTED
	// rather than being truncated.
	MaxResults int
}

// link records how a state was entered from the previous position.
type link struct {
	from    *state
	include bool
}

type state struct {
	p     perm.Perm
	links []link
	count *big.Int
}

// layer maps element keys to the states reachable after one position.
type layer map[string]*state

func (l layer) get(p perm.Perm) *state {
	key := p.Key()
	s, ok := l[key]
	if !ok {
		s = &state{p: p, count: new(big.Int)}
		l[key] = s
	}
	return s
}

// sweep runs the forward dynamic program over q. keep filters elements that
// may still lead somewhere useful; nil keeps everything. Each state carries
// the number of subwords reaching it and, if withLinks, its predecessors.
func sweep(ctx context.Context, ev *Evaluator, q perm.Word, keep func(perm.Perm) bool, withLinks bool) ([]layer, error) {
	if err := q.Validate(ev.n); err != nil {
		return nil, err
	}
	start := layer{}
	root := start.get(perm.Identity(ev.n))
	root.count.SetInt64(1)

	layers := make([]layer, 0, len(q)+1)
	layers = append(layers, start)
	for _, i := range q {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev := layers[len(layers)-1]
		next := make(layer, len(prev))
		for _, s := range prev {
			skip := next.get(s.p)
			skip.count.Add(skip.count, s.count)
			if withLinks {
				skip.links = append(skip.links, link{from: s})
			}

			p, _, err := ev.Step(s.p, i)
			if err != nil {
				return nil, err
			}
			if keep != nil && !keep(p) {
				continue
			}
			inc := next.get(p)
			inc.count.Add(inc.count, s.count)
			if withLinks {
				inc.links = append(inc.links, link{from: s, include: true})
			}
		}
		layers = append(layers, next)
	}
	return layers, nil
}

func below(w perm.Perm) func(perm.Perm) bool {
	return func(p perm.Perm) bool { return p.BruhatLE(w) }
}

// SubwordsMultiplyingTo returns every subword of q whose Demazure product is
// w, sorted lexicographically by position. The empty subword is included
// when w is the identity.
func SubwordsMultiplyingTo(ctx context.Context, ev *Evaluator, q perm.Word, w perm.Perm, opts SearchOptions) ([]Subword, error) {
	if err := ev.checkElement(w); err != nil {
		return nil, err
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	layers, err := sweep(ctx, ev, q, below(w), true)
	if err != nil {
		return nil, err
	}
	target, ok := layers[len(q)][w.Key()]
	if !ok {
		return []Subword{}, nil
	}
	if !target.count.IsInt64() || target.count.Int64() > int64(limit) {
		return nil, errs.New(errs.ErrCodeResourceExhausted,
			"%s subwords of %s multiply to %s, more than the limit of %d", target.count, q, w, limit)
	}

	out := make([]Subword, 0, target.count.Int64())
	positions := make([]int, 0, len(q))
	var walk func(s *state, k int)
	walk = func(s *state, k int) {
		if k == 0 {
			sub := make(Subword, len(positions))
			for i, p := range positions {
				sub[len(positions)-1-i] = p
			}
			out = append(out, sub)
			return
		}
		for _, l := range s.links {
			if l.include {
				positions = append(positions, k)
			}
			walk(l.from, k-1)
			if l.include {
				positions = positions[:len(positions)-1]
			}
		}
	}
	walk(target, len(q))

	slices.SortFunc(out, func(a, b Subword) int { return slices.Compare(a, b) })
	return out, nil
}

// CountSubwords returns the number of subwords of q whose Demazure product
// is w, without listing them.
func CountSubwords(ctx context.Context, ev *Evaluator, q perm.Word, w perm.Perm) (*big.Int, error) {
	if err := ev.checkElement(w); err != nil {
		return nil, err
	}
	layers, err := sweep(ctx, ev, q, below(w), false)
	if err != nil {
		return nil, err
	}
	if s, ok := layers[len(q)][w.Key()]; ok {
		return new(big.Int).Set(s.count), nil
	}
	return new(big.Int), nil
}

// Images returns every element that is the Demazure product of some subword
// of q, ordered by length and then one-line notation.
func Images(ctx context.Context, ev *Evaluator, q perm.Word) ([]perm.Perm, error) {
	layers, err := sweep(ctx, ev, q, nil, false)
	if err != nil {
		return nil, err
	}
	last := lo.Values(layers[len(q)])
	return ev.sortByLength(lo.Map(last, func(s *state, _ int) perm.Perm { return s.p }))
}

// NonReducedSubwordImages returns every element w that is the Demazure
// product of a subword of q whose expression length exceeds l(w). Entries
// equal to 0 never count toward expression length.
//
// The dynamic program keeps, per reachable element, the longest expression
// length among subwords reaching it: every subword reaching w has expression
// length at least l(w), so some subword is non-reduced exactly when that
// maximum exceeds l(w).
func NonReducedSubwordImages(ctx context.Context, ev *Evaluator, q perm.Word) ([]perm.Perm, error) {
	if err := q.Validate(ev.n); err != nil {
		return nil, err
	}
	type reach struct {
		p       perm.Perm
		maxExpr int
	}
	id := perm.Identity(ev.n)
	cur := map[string]*reach{id.Key(): {p: id}}
	for _, i := range q {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := make(map[string]*reach, len(cur))
		relax := func(p perm.Perm, expr int) {
			key := p.Key()
			if r, ok := next[key]; ok {
				r.maxExpr = max(r.maxExpr, expr)
				return
			}
			next[key] = &reach{p: p, maxExpr: expr}
		}
		for _, r := range cur {
			relax(r.p, r.maxExpr)
			p, _, err := ev.Step(r.p, i)
			if err != nil {
				return nil, err
			}
			expr := r.maxExpr
			if i != 0 {
				expr++
			}
			relax(p, expr)
		}
		cur = next
	}

	var out []perm.Perm
	for _, r := range cur {
		l, err := ev.Length(r.p)
		if err != nil {
			return nil, err
		}
		if r.maxExpr > l {
			out = append(out, r.p)
		}
	}
	return ev.sortByLength(out)
}

func (ev *Evaluator) sortByLength(ps []perm.Perm) ([]perm.Perm, error) {
	lengths := make(map[string]int, len(ps))
	for _, p := range ps {
		l, err := ev.Length(p)
		if err != nil {
			return nil, err
		}
		lengths[p.Key()] = l
	}
	slices.SortFunc(ps, func(a, b perm.Perm) int {
		if d := lengths[a.Key()] - lengths[b.Key()]; d != 0 {
			return d
		}
		return a.Compare(b)
	})
	if ps == nil {
		ps = []perm.Perm{}
	}
	return ps, nil
}
