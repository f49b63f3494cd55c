package weakorder

import (
	"slices"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

// Entry holds the word data of S_n: the length and every reduced word of
// each of its n! elements.
//
// An Entry is built with SetLength/AddWord and frozen by Seal, which checks
// totality. A sealed Entry is read-only and safe for concurrent readers;
// slices it returns must not be modified.
type Entry struct {
	N int

	nodes    map[string]*node
	elements []perm.Perm
	words    int
	sealed   bool
}

type node struct {
	p      perm.Perm
	length int
	words  []perm.Word
}

// NewEntry returns an empty, unsealed entry for S_n.
func NewEntry(n int) *Entry {
	return &Entry{
		N:     n,
		nodes: make(map[string]*node, perm.Factorial(min(n, 10))),
	}
}

func (e *Entry) node(p perm.Perm) (*node, error) {
	if e.sealed {
		return nil, errs.New(errs.ErrCodeInternal, "entry for n=%d is sealed", e.N)
	}
	if len(p) != e.N {
		return nil, errs.New(errs.ErrCodeUnknownElement, "%v is not an element of S_%d", p, e.N)
	}
	key := p.Key()
	nd, ok := e.nodes[key]
	if !ok {
		nd = &node{p: p, length: -1}
		e.nodes[key] = nd
	}
	return nd, nil
}

// SetLength records l(p).
func (e *Entry) SetLength(p perm.Perm, length int) error {
	nd, err := e.node(p)
	if err != nil {
		return err
	}
	nd.length = length
	return nil
}

// AddWord records w as a reduced word of p.
func (e *Entry) AddWord(p perm.Perm, w perm.Word) error {
	nd, err := e.node(p)
	if err != nil {
		return err
	}
	nd.words = append(nd.words, w)
	return nil
}

// Seal sorts the recorded data and verifies that the entry is total: one
// length for each of the n! elements, at least one reduced word per element,
// and every word's expression length equal to its element's length.
// Incomplete data fails with INTERNAL_ERROR and leaves the entry unsealed.
func (e *Entry) Seal() error {
	if e.sealed {
		return nil
	}
	if want := perm.Factorial(e.N); len(e.nodes) != want {
		return errs.New(errs.ErrCodeInternal, "S_%d has %d elements, entry has %d", e.N, want, len(e.nodes))
	}
	elements := make([]perm.Perm, 0, len(e.nodes))
	words := 0
	for _, nd := range e.nodes {
		if nd.length < 0 {
			return errs.New(errs.ErrCodeInternal, "no length recorded for %v", nd.p)
		}
		if len(nd.words) == 0 {
			return errs.New(errs.ErrCodeInternal, "no reduced word recorded for %v", nd.p)
		}
		for _, w := range nd.words {
			if w.ExprLen() != nd.length {
				return errs.New(errs.ErrCodeInternal, "word %v of %v has length %d, want %d", w, nd.p, w.ExprLen(), nd.length)
			}
		}
		slices.SortFunc(nd.words, perm.CompareWords)
		elements = append(elements, nd.p)
		words += len(nd.words)
	}
	slices.SortFunc(elements, func(a, b perm.Perm) int {
		la, lb := e.nodes[a.Key()].length, e.nodes[b.Key()].length
		if la != lb {
			return la - lb
		}
		return a.Compare(b)
	})
	e.elements = elements
	e.words = words
	e.sealed = true
	return nil
}

// Sealed reports whether Seal has succeeded.
func (e *Entry) Sealed() bool { return e.sealed }

// Length returns l(p) and whether p is recorded.
func (e *Entry) Length(p perm.Perm) (int, bool) {
	nd, ok := e.nodes[p.Key()]
	if !ok || nd.length < 0 {
		return 0, false
	}
	return nd.length, true
}

// ReducedWords returns the reduced words of p in lexicographic order and
// whether p is recorded.
func (e *Entry) ReducedWords(p perm.Perm) ([]perm.Word, bool) {
	nd, ok := e.nodes[p.Key()]
	if !ok {
		return nil, false
	}
	return slices.Clone(nd.words), true
}

// Elements returns every element of S_n sorted by length, then by one-line
// notation. Only valid after Seal.
func (e *Entry) Elements() []perm.Perm { return slices.Clone(e.elements) }

// Size returns the number of recorded elements.
func (e *Entry) Size() int { return len(e.nodes) }

// WordCount returns the total number of reduced words across S_n.
// Only valid after Seal.
func (e *Entry) WordCount() int { return e.words }

// MaxLength returns the largest recorded length.
func (e *Entry) MaxLength() int {
	longest := 0
	for _, nd := range e.nodes {
		longest = max(longest, nd.length)
	}
	return longest
}

// RankSizes returns, for k = 0..MaxLength, the number of elements of
// length k (the Mahonian numbers for a complete entry).
func (e *Entry) RankSizes() []int {
	sizes := make([]int, e.MaxLength()+1)
	for _, nd := range e.nodes {
		if nd.length >= 0 {
			sizes[nd.length]++
		}
	}
	return sizes
}

// Each calls fn for every element in Elements order until fn returns false.
// Only valid after Seal.
func (e *Entry) Each(fn func(p perm.Perm, length int, words []perm.Word) bool) {
	for _, p := range e.elements {
		nd := e.nodes[p.Key()]
		if !fn(nd.p, nd.length, nd.words) {
			return
		}
	}
}
