package perm

import (
	"slices"

	errs "github.com/matzehuels/demazure/pkg/errors"
)

// Word is a sequence of generator indices. Entry i > 0 stands for s_i and
// entry 0 is the identity placeholder.
type Word []int

// ParseWord reads a word written as comma- or whitespace-separated
// integers, optionally wrapped in brackets or parentheses. The empty string
// is the empty word.
func ParseWord(s string) (Word, error) {
	values, err := parseInts(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidWord, err, "parse word %q", s)
	}
	for _, v := range values {
		if v < 0 {
			return nil, errs.New(errs.ErrCodeInvalidGenerator, "generator %d is negative", v)
		}
	}
	return Word(values), nil
}

// Key returns the comma-joined encoding of w; the empty word encodes as "".
func (w Word) Key() string { return joinInts(w) }

// String renders w as "(1,2,1)", or "()" for the empty word.
func (w Word) String() string { return "(" + w.Key() + ")" }

// Clone returns an independent copy of w.
func (w Word) Clone() Word { return slices.Clone(w) }

// Append returns a new word with i added at the end. The receiver is not
// modified, so words sharing a prefix never alias.
func (w Word) Append(i int) Word {
	out := make(Word, len(w)+1)
	copy(out, w)
	out[len(w)] = i
	return out
}

// ExprLen returns the expression length of w: the number of nonzero entries.
func (w Word) ExprLen() int {
	n := 0
	for _, i := range w {
		if i != 0 {
			n++
		}
	}
	return n
}

// ImpliedN returns the smallest n for which w is a word in S_n: one more
// than its largest entry, and 1 for a word without nonzero entries.
func (w Word) ImpliedN() int {
	if len(w) == 0 {
		return 1
	}
	return slices.Max(w) + 1
}

// Validate checks n and that every entry of w lies in 0..n-1.
func (w Word) Validate(n int) error {
	if err := errs.ValidateN(n); err != nil {
		return err
	}
	for pos, i := range w {
		if err := errs.ValidateGenerator(i, n); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidGenerator, err, "word position %d", pos+1)
		}
	}
	return nil
}

// Product multiplies the generators of w left to right from the identity
// of S_n using ordinary group multiplication.
func (w Word) Product(n int) (Perm, error) {
	if err := w.Validate(n); err != nil {
		return nil, err
	}
	p := Identity(n)
	for _, i := range w {
		if i == 0 {
			continue
		}
		p[i-1], p[i] = p[i], p[i-1]
	}
	return p, nil
}

// IsReduced reports whether the expression length of w equals the length of
// the element it multiplies to.
func (w Word) IsReduced(n int) (bool, error) {
	p, err := w.Product(n)
	if err != nil {
		return false, err
	}
	return w.ExprLen() == p.Length(), nil
}

// CompareWords orders words lexicographically, shorter prefixes first.
func CompareWords(a, b Word) int { return slices.Compare(a, b) }
