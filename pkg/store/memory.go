package store

import (
	"context"
	"slices"
	"sync"
	"time"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

// MemoryStore keeps entries in process memory. Population locks are
// per-n semaphores.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int]*weakorder.Entry
	locks   map[int]chan struct{}
	wait    time.Duration
}

// NewMemoryStore creates an empty in-memory store. lockWait <= 0 uses
// DefaultLockWait.
func NewMemoryStore(lockWait time.Duration) *MemoryStore {
	_, wait := lockTimings(0, lockWait)
	return &MemoryStore{
		entries: make(map[int]*weakorder.Entry),
		locks:   make(map[int]chan struct{}),
		wait:    wait,
	}
}

// Name returns "memory".
func (s *MemoryStore) Name() string { return "memory" }

// Load returns the entry saved for n.
func (s *MemoryStore) Load(ctx context.Context, n int) (*weakorder.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[n]
	return e, ok, nil
}

// Save stores a sealed entry.
func (s *MemoryStore) Save(ctx context.Context, e *weakorder.Entry) error {
	if !e.Sealed() {
		return errs.New(errs.ErrCodeInternal, "refusing to save unsealed entry for n=%d", e.N)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.N] = e
	return nil
}

// Delete removes the entry for n.
func (s *MemoryStore) Delete(ctx context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, n)
	return nil
}

// Lock acquires the in-process population lock for n.
func (s *MemoryStore) Lock(ctx context.Context, n int) (Unlock, error) {
	s.mu.Lock()
	sem, ok := s.locks[n]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[n] = sem
	}
	s.mu.Unlock()

	timer := time.NewTimer(s.wait)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errs.New(errs.ErrCodeLockTimeout, "waited %s for the population lock of n=%d", s.wait, n)
	}

	var once sync.Once
	return func() error {
		once.Do(func() { <-sem })
		return nil
	}, nil
}

// List returns the stored n values in ascending order.
func (s *MemoryStore) List(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := make([]int, 0, len(s.entries))
	for n := range s.entries {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return ns, nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
