// Package store persists the word data of S_n behind a single [Store]
// interface.
//
// # Schema
//
// Every backend stores the same two logical tables, described by [Snapshot]:
//
//	Lengths(n, permutation, length)   primary key (n, permutation)
//	Words(n, permutation, word)       one row per reduced word
//
// Permutations and words are encoded as comma-joined integers ("3,1,2",
// "1,2,1"; the empty word is ""). For each n either both tables hold the
// complete data of all n! elements or neither holds any row.
//
// # Backends
//
//   - [FileStore]: one lz4-compressed JSON snapshot per n in a local
//     directory, written to a temporary file and renamed into place.
//   - [RedisStore]: per-n hashes written in a single MULTI/EXEC transaction.
//   - [MongoStore]: lengths and words collections plus a per-n completion
//     marker written last.
//   - [MemoryStore]: in-process, for tests and throwaway sessions.
//   - [NullStore]: stores nothing; every Load misses.
//
// # Population locks
//
// [Store.Lock] serializes population of the same n across processes. Locks
// carry a random token so that only the holder releases them, and expire
// after a TTL so a crashed holder cannot block forever.
package store
