// Package demazure computes Demazure products in S_n and searches the
// subwords of a fixed word by their Demazure product.
//
// # Demazure product
//
// The Demazure product of an element w and a generator s_i is w·s_i when
// that is longer than w and w otherwise. It extends to words by folding
// left to right from the identity; generator 0 is an identity placeholder.
// The product is associative, so the product of a word can be extended one
// generator at a time, which is what the subword searches rely on.
//
// # Subword search
//
// For a word Q = (i_1, ..., i_d), a subword is an increasing sequence of
// positions of Q. [SubwordsMultiplyingTo] lists every subword whose Demazure
// product is a given element, and [NonReducedSubwordImages] lists every
// element that is the product of some non-reduced subword, one whose
// expression length exceeds the length of its product.
//
// Both run a dynamic program over (position, element) pairs instead of
// visiting the 2^d subsets: after position k, the state holds each element
// reachable from some subset of the first k positions. Including position
// k+1 moves an element by one Demazure step, skipping it keeps it. The
// number of states per position is bounded by n!, and far smaller in
// practice. Witness enumeration keeps predecessor links and walks them back
// from the target; since a Demazure step never moves down in the Bruhat
// order, states not below the target are dropped as soon as they appear.
package demazure
