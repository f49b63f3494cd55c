// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through the hook interfaces; main registers an
// implementation at startup. The defaults are no-ops, so the core packages
// carry no dependency on a metrics backend. [Prometheus] is the implementation
// the server registers.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    p := observability.NewPrometheus(prometheus.NewRegistry())
//	    observability.SetEnumerationHooks(p)
//	    observability.SetStoreHooks(p)
//	    observability.SetSearchHooks(p)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Enumeration().OnEnumerateStart(ctx, n)
//	// ... enumerate ...
//	observability.Enumeration().OnEnumerateComplete(ctx, n, elements, words, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Lookup results reported to StoreHooks.OnLookup.
const (
	LookupHit    = "hit"
	LookupMiss   = "miss"
	LookupMemory = "memory"
	LookupError  = "error"
)

// Search kinds reported to SearchHooks.
const (
	SearchSubwords  = "subwords"
	SearchNonReduce = "nonreduced"
	SearchCount     = "count"
	SearchImages    = "images"
)

// =============================================================================
// Enumeration Hooks
// =============================================================================

// EnumerationHooks receives events from weak-order enumeration.
type EnumerationHooks interface {
	OnEnumerateStart(ctx context.Context, n int)
	OnEnumerateComplete(ctx context.Context, n, elements, words int, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the word cache and its store.
type StoreHooks interface {
	// OnLookup records where a request for n was served from.
	OnLookup(ctx context.Context, backend string, n int, result string)

	// OnSave records a write of complete data for n.
	OnSave(ctx context.Context, backend string, n int, duration time.Duration, err error)
}

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from subword searches.
type SearchHooks interface {
	OnSearch(ctx context.Context, kind string, results int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEnumerationHooks is a no-op implementation of EnumerationHooks.
type NoopEnumerationHooks struct{}

func (NoopEnumerationHooks) OnEnumerateStart(context.Context, int) {}
func (NoopEnumerationHooks) OnEnumerateComplete(context.Context, int, int, int, time.Duration, error) {
}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLookup(context.Context, string, int, string)              {}
func (NoopStoreHooks) OnSave(context.Context, string, int, time.Duration, error) {}

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSearch(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	enumerationHooks EnumerationHooks = NoopEnumerationHooks{}
	storeHooks       StoreHooks       = NoopStoreHooks{}
	searchHooks      SearchHooks      = NoopSearchHooks{}
	hooksMu          sync.RWMutex
)

// SetEnumerationHooks registers custom enumeration hooks.
func SetEnumerationHooks(h EnumerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		enumerationHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetSearchHooks registers custom search hooks.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// Enumeration returns the registered enumeration hooks.
func Enumeration() EnumerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return enumerationHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	enumerationHooks = NoopEnumerationHooks{}
	storeHooks = NoopStoreHooks{}
	searchHooks = NoopSearchHooks{}
}
