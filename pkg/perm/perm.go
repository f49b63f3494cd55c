package perm

import (
	"slices"
	"strconv"
	"strings"

	errs "github.com/matzehuels/demazure/pkg/errors"
)

// Perm is a permutation of {1, ..., n} in one-line notation.
type Perm []int

// Identity returns the identity permutation of size n.
func Identity(n int) Perm {
	p := make(Perm, n)
	for i := range p {
		p[i] = i + 1
	}
	return p
}

// Longest returns the longest element w0 = [n, n-1, ..., 1] of S_n.
func Longest(n int) Perm {
	p := make(Perm, n)
	for i := range p {
		p[i] = n - i
	}
	return p
}

// New validates values and returns them as a permutation.
// The input slice is copied.
func New(values ...int) (Perm, error) {
	p := Perm(slices.Clone(values))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and
// package-level literals.
func MustNew(values ...int) Perm {
	p, err := New(values...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse reads a permutation written as comma- or whitespace-separated
// integers, optionally wrapped in brackets: "3,1,2", "3 1 2", "[3 1 2]".
func Parse(s string) (Perm, error) {
	values, err := parseInts(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPermutation, err, "parse permutation %q", s)
	}
	return New(values...)
}

// Validate checks that p is a bijection of {1, ..., len(p)}.
func (p Perm) Validate() error {
	n := len(p)
	if n == 0 {
		return errs.New(errs.ErrCodeInvalidPermutation, "permutation is empty")
	}
	if n > errs.MaxRank {
		return errs.New(errs.ErrCodeInvalidPermutation, "permutation of size %d exceeds %d", n, errs.MaxRank)
	}
	seen := make([]bool, n+1)
	for _, v := range p {
		if v < 1 || v > n {
			return errs.New(errs.ErrCodeInvalidPermutation, "value %d outside 1..%d", v, n)
		}
		if seen[v] {
			return errs.New(errs.ErrCodeInvalidPermutation, "value %d appears twice", v)
		}
		seen[v] = true
	}
	return nil
}

// N returns the size n of the symmetric group p belongs to.
func (p Perm) N() int { return len(p) }

// Key returns the comma-joined encoding of p, e.g. "3,1,2".
func (p Perm) Key() string { return joinInts(p) }

// String implements fmt.Stringer using the Key encoding.
func (p Perm) String() string { return p.Key() }

// Clone returns an independent copy of p.
func (p Perm) Clone() Perm { return slices.Clone(p) }

// Equal reports whether p and q are the same permutation.
func (p Perm) Equal(q Perm) bool { return slices.Equal(p, q) }

// Compare orders permutations by size, then lexicographically in one-line
// notation. It returns -1, 0 or +1.
func (p Perm) Compare(q Perm) int {
	if len(p) != len(q) {
		if len(p) < len(q) {
			return -1
		}
		return 1
	}
	return slices.Compare(p, q)
}

// IsIdentity reports whether p fixes every point.
func (p Perm) IsIdentity() bool {
	for i, v := range p {
		if v != i+1 {
			return false
		}
	}
	return true
}

// Length returns l(p), the number of inversions (pairs i < j with
// p(i) > p(j)). This equals the minimal number of adjacent transpositions
// needed to write p.
func (p Perm) Length() int {
	inv := 0
	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			if p[i] > p[j] {
				inv++
			}
		}
	}
	return inv
}

// Length is the free-function form of Perm.Length.
func Length(p Perm) int { return p.Length() }

// MaxLength returns n(n-1)/2, the length of the longest element of S_n.
func MaxLength(n int) int { return n * (n - 1) / 2 }

// Mul returns p·s_i, which swaps the values at positions i and i+1.
// Generator 0 returns p unchanged. Any i outside 0..n-1 fails with
// INVALID_GENERATOR.
func (p Perm) Mul(i int) (Perm, error) {
	if err := errs.ValidateGenerator(i, len(p)); err != nil {
		return nil, err
	}
	if i == 0 {
		return p, nil
	}
	q := p.Clone()
	q[i-1], q[i] = q[i], q[i-1]
	return q, nil
}

// IsAscent reports whether l(p·s_i) > l(p), i.e. p(i) < p(i+1).
// It is false for the placeholder 0 and for indices outside 1..n-1.
func (p Perm) IsAscent(i int) bool {
	return i >= 1 && i < len(p) && p[i-1] < p[i]
}

// Descents returns the right descent set {i : p(i) > p(i+1)} in ascending
// order. These are exactly the last letters of the reduced words of p.
func (p Perm) Descents() []int {
	var d []int
	for i := 1; i < len(p); i++ {
		if p[i-1] > p[i] {
			d = append(d, i)
		}
	}
	return d
}

// DemazureStep returns the Demazure product p * s_i: p·s_i when that is
// longer than p, otherwise p itself. Generator 0 always returns p.
func (p Perm) DemazureStep(i int) (Perm, error) {
	if err := errs.ValidateGenerator(i, len(p)); err != nil {
		return nil, err
	}
	if !p.IsAscent(i) {
		return p, nil
	}
	return p.Mul(i)
}

// Inverse returns p⁻¹.
func (p Perm) Inverse() Perm {
	q := make(Perm, len(p))
	for i, v := range p {
		q[v-1] = i + 1
	}
	return q
}

// BruhatLE reports whether p <= q in the Bruhat order, using the tableau
// criterion: for every k, the sorted first k values of p are bounded
// entrywise by the sorted first k values of q. Permutations of different
// sizes are incomparable.
func (p Perm) BruhatLE(q Perm) bool {
	if len(p) != len(q) {
		return false
	}
	a := make([]int, 0, len(p))
	b := make([]int, 0, len(q))
	for k := 0; k < len(p)-1; k++ {
		a = insertSorted(a, p[k])
		b = insertSorted(b, q[k])
		for j := range a {
			if a[j] > b[j] {
				return false
			}
		}
	}
	return true
}

func insertSorted(s []int, v int) []int {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

func joinInts(values []int) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

func parseInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
