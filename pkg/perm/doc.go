// Package perm provides the permutation algebra of the symmetric group S_n
// viewed as a Coxeter system generated by the adjacent transpositions
// s_i = (i, i+1), 1 <= i < n.
//
// # Permutations
//
// A [Perm] is a bijection of {1, ..., n} in one-line notation: p[k-1] is the
// image of k. Values are immutable by convention: every operation returns a
// fresh permutation (or the receiver itself when nothing changes) and never
// writes into its argument.
//
//	w, _ := perm.Parse("3,1,2")
//	w.Length()           // 2 inversions
//	v, _ := w.Mul(1)     // w·s_1 = [1 3 2]
//	u, _ := v.DemazureStep(2) // l(v·s_2) < l(v), so u == v
//
// Right multiplication by s_i swaps the values at positions i and i+1. The
// length l(w) is the number of inversions, and l(w·s_i) = l(w) + 1 exactly
// when w(i) < w(i+1) ([Perm.IsAscent]).
//
// # Words
//
// A [Word] is a sequence of generator indices. Index 0 is a placeholder for
// the identity: it may appear in a word but never counts toward the
// expression length ([Word.ExprLen]) and never changes a product.
//
// # Encoding
//
// [Perm.Key] and [Word.Key] produce the comma-joined decimal encoding used by
// every persistent store ("3,1,2", "1,2,1", "" for the empty word); [Parse]
// and [ParseWord] invert them.
//
// # Enumeration
//
// [Generate] lists permutations with Heap's algorithm and [Factorial] gives
// |S_n|. Both are meant for small n: 13! already exceeds four billion.
package perm
