package store

import (
	"context"

	"github.com/matzehuels/demazure/pkg/weakorder"
)

// NullStore is a no-op store that never persists anything.
// Every Load misses, so callers recompute in memory each time.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Name returns "none".
func (s *NullStore) Name() string { return "none" }

// Load always returns a miss.
func (s *NullStore) Load(ctx context.Context, n int) (*weakorder.Entry, bool, error) {
	return nil, false, nil
}

// Save does nothing.
func (s *NullStore) Save(ctx context.Context, e *weakorder.Entry) error {
	return nil
}

// Delete does nothing.
func (s *NullStore) Delete(ctx context.Context, n int) error {
	return nil
}

// Lock returns immediately; there is nothing to protect.
func (s *NullStore) Lock(ctx context.Context, n int) (Unlock, error) {
	return func() error { return nil }, nil
}

// List always returns no entries.
func (s *NullStore) List(ctx context.Context) ([]int, error) {
	return nil, nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)
