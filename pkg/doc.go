// Package pkg holds the libraries behind the demazure command.
//
// # Overview
//
// Demazure answers questions about the symmetric group S_n viewed as a
// Coxeter group with simple transpositions s_1, ..., s_{n-1}. The pkg
// directory is organized in layers:
//
//  1. [perm] - Permutations, words and their pure algebra
//  2. [weakorder] - Enumeration of lengths and reduced words of S_n
//  3. [store] - Persistent stores for enumerated data (file, Redis, MongoDB)
//  4. [wordcache] - Populate-once cache in front of a store
//  5. [demazure] - Demazure products and subword searches
//  6. [query] - The query surface used by the CLI and the HTTP server
//
// Supporting packages: [errors] (coded errors), [observability] (hooks and
// Prometheus metrics) and [buildinfo].
//
// # Architecture
//
// A query flows through the layers like this:
//
//	query.Service
//	     ↓
//	demazure.Evaluator ← lengths from wordcache.Cache
//	                              ↓
//	                 store.Store (hit) or weakorder.Enumerate (miss)
//
// # Quick Start
//
//	ev, _ := demazure.NewEvaluator(3)
//	w, _ := ev.Product(perm.Word{1, 2, 1})   // 3,2,1
//	subs, _ := demazure.SubwordsMultiplyingTo(ctx, ev, perm.Word{1, 2, 1}, perm.MustNew(2, 1, 3), demazure.SearchOptions{})
//	// subs: {1} {1,3} {3}
package pkg
