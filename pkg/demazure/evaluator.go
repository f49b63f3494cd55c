package demazure

import (
	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

// LengthFunc returns l(p) for an element of the evaluator's S_n.
type LengthFunc func(p perm.Perm) (int, error)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLengths makes the evaluator classify steps by looking lengths up in f,
// typically a word cache populated for n, instead of comparing adjacent
// values.
func WithLengths(f LengthFunc) Option {
	return func(ev *Evaluator) { ev.lengths = f }
}

// Evaluator computes Demazure products in S_n. It holds no mutable state and
// is safe for concurrent use.
type Evaluator struct {
	n       int
	lengths LengthFunc
}

// NewEvaluator returns an evaluator for S_n.
func NewEvaluator(n int, opts ...Option) (*Evaluator, error) {
	if err := errs.ValidateN(n); err != nil {
		return nil, err
	}
	ev := &Evaluator{n: n}
	for _, opt := range opts {
		opt(ev)
	}
	return ev, nil
}

// N returns the rank of the symmetric group.
func (ev *Evaluator) N() int { return ev.n }

// Length returns l(p) from the configured length source.
func (ev *Evaluator) Length(p perm.Perm) (int, error) {
	if ev.lengths == nil {
		return p.Length(), nil
	}
	return ev.lengths(p)
}

// Step returns the Demazure product w * s_i and whether it is longer than w.
// Generator 0 returns w unchanged.
func (ev *Evaluator) Step(w perm.Perm, i int) (perm.Perm, bool, error) {
	if err := errs.ValidateGenerator(i, ev.n); err != nil {
		return nil, false, err
	}
	if i == 0 {
		return w, false, nil
	}
	if ev.lengths == nil {
		next, err := w.DemazureStep(i)
		if err != nil {
			return nil, false, err
		}
		return next, w.IsAscent(i), nil
	}

	v, err := w.Mul(i)
	if err != nil {
		return nil, false, err
	}
	lw, err := ev.lengths(w)
	if err != nil {
		return nil, false, err
	}
	lv, err := ev.lengths(v)
	if err != nil {
		return nil, false, err
	}
	if lv > lw {
		return v, true, nil
	}
	return w, false, nil
}

// Product folds Step over word from the identity, left to right.
func (ev *Evaluator) Product(word perm.Word) (perm.Perm, error) {
	return ev.ProductFrom(perm.Identity(ev.n), word)
}

// ProductFrom folds Step over word starting at start. Because the Demazure
// product is associative, ProductFrom(Product(a), b) == Product(a ++ b).
func (ev *Evaluator) ProductFrom(start perm.Perm, word perm.Word) (perm.Perm, error) {
	if err := ev.checkElement(start); err != nil {
		return nil, err
	}
	if err := word.Validate(ev.n); err != nil {
		return nil, err
	}
	w := start
	for _, i := range word {
		next, _, err := ev.Step(w, i)
		if err != nil {
			return nil, err
		}
		w = next
	}
	return w, nil
}

// ReducedWord returns the generators of word at which the Demazure fold
// increased length. They form a reduced word of Product(word).
func (ev *Evaluator) ReducedWord(word perm.Word) (perm.Word, error) {
	if err := word.Validate(ev.n); err != nil {
		return nil, err
	}
	w := perm.Identity(ev.n)
	kept := perm.Word{}
	for _, i := range word {
		next, up, err := ev.Step(w, i)
		if err != nil {
			return nil, err
		}
		if up {
			kept = append(kept, i)
		}
		w = next
	}
	return kept, nil
}

func (ev *Evaluator) checkElement(p perm.Perm) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(p) != ev.n {
		return errs.New(errs.ErrCodeUnknownElement, "%s is not an element of S_%d", p, ev.n)
	}
	return nil
}

// Product returns the Demazure product of word in S_n using inversion
// counting for lengths.
func Product(n int, word perm.Word) (perm.Perm, error) {
	ev, err := NewEvaluator(n)
	if err != nil {
		return nil, err
	}
	return ev.Product(word)
}

// ReducedWordOf returns the length-increasing steps of the Demazure fold of
// word in S_n.
func ReducedWordOf(n int, word perm.Word) (perm.Word, error) {
	ev, err := NewEvaluator(n)
	if err != nil {
		return nil, err
	}
	return ev.ReducedWord(word)
}
