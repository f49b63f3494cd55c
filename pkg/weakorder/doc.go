// Package weakorder enumerates the lengths and reduced words of every element
// of S_n by walking the right weak order.
//
// # Overview
//
// The right weak order on S_n has an edge u -> u·s_i whenever
// l(u·s_i) = l(u) + 1. It is graded by length, connected, and has the
// identity as its unique minimum and w0 = [n, ..., 1] as its unique maximum.
// A word (i_1, ..., i_k) is reduced exactly when each prefix product lengthens
// the previous one, which makes the reduced words of w the saturated chains
// from the identity to w.
//
// [Enumerate] walks the order level by level with an explicit integer rank per
// element, never recursing, and returns a sealed [Entry] covering all n!
// elements:
//
//	e, err := weakorder.Enumerate(ctx, 4, weakorder.Options{})
//	l, _ := e.Length(perm.MustNew(2, 4, 1, 3))     // 3
//	ws, _ := e.ReducedWords(perm.MustNew(3, 2, 1, 4)) // (1,2,1) (2,1,2)
//
// # Growth
//
// |S_n| grows factorially and the number of reduced words faster still:
//
//	n   elements   reduced words
//	4   24         66
//	5   120        3,061
//	6   720        1,095,266
//	7   5,040      3,906,746,485
//
// [Limits] caps both n and the total word count. Crossing a limit fails with
// RESOURCE_EXHAUSTED instead of returning partial data.
//
// # Diagrams
//
// [ToDOT] and [RenderSVG] draw the Hasse diagram of the order, one rank per
// length, with edges labelled by generator.
package weakorder
