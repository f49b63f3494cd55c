package store

import (
	"context"
	"fmt"
	"time"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

// Default lock timings shared by the backends.
const (
	// DefaultLockTTL is how long a population lock survives a crashed holder.
	DefaultLockTTL = 10 * time.Minute

	// DefaultLockWait is how long Lock waits for another populator.
	DefaultLockWait = 30 * time.Minute
)

// Store persists complete word data per n.
//
// Implementations guarantee that Save is complete-or-absent: a concurrent or
// later Load either sees the whole entry or reports a miss, never a partial
// one. Load only returns sealed entries.
type Store interface {
	// Name identifies the backend ("file", "redis", ...).
	Name() string

	// Load returns the stored entry for n. found is false when n has never
	// been saved, was deleted, or its stored data is unusable.
	Load(ctx context.Context, n int) (e *weakorder.Entry, found bool, err error)

	// Save persists a sealed entry, replacing any previous data for e.N.
	Save(ctx context.Context, e *weakorder.Entry) error

	// Delete removes the data for n. Deleting an absent n is not an error.
	Delete(ctx context.Context, n int) error

	// Lock acquires the population lock for n, waiting for other holders.
	// The returned Unlock must be called on every exit path.
	Lock(ctx context.Context, n int) (Unlock, error)

	// List returns every n with complete data, ascending.
	List(ctx context.Context) ([]int, error)

	// Close releases backend resources.
	Close() error
}

// Unlock releases a population lock.
type Unlock func() error

// Locator is implemented by stores that can describe where they keep data.
type Locator interface {
	Location() string
}

// Sizer is implemented by stores that can report the stored size of n.
type Sizer interface {
	Size(ctx context.Context, n int) (int64, error)
}

// LengthRow is one row of the Lengths table: (n, permutation) -> length.
type LengthRow struct {
	N           int    `json:"n" bson:"n"`
	Permutation string `json:"permutation" bson:"permutation"`
	Length      int    `json:"length" bson:"length"`
}

// WordRow is one row of the Words table; an element has one row per
// reduced word.
type WordRow struct {
	N           int    `json:"n" bson:"n"`
	Permutation string `json:"permutation" bson:"permutation"`
	Word        string `json:"word" bson:"word"`
}

// Snapshot is the logical, engine-independent form of the stored data for
// one n. Permutations and words use the comma-joined Key encoding.
type Snapshot struct {
	N       int         `json:"n"`
	Lengths []LengthRow `json:"lengths"`
	Words   []WordRow   `json:"words"`
}

// NewSnapshot flattens a sealed entry into table rows.
func NewSnapshot(e *weakorder.Entry) Snapshot {
	s := Snapshot{
		N:       e.N,
		Lengths: make([]LengthRow, 0, e.Size()),
		Words:   make([]WordRow, 0, e.WordCount()),
	}
	e.Each(func(p perm.Perm, length int, words []perm.Word) bool {
		key := p.Key()
		s.Lengths = append(s.Lengths, LengthRow{N: e.N, Permutation: key, Length: length})
		for _, w := range words {
			s.Words = append(s.Words, WordRow{N: e.N, Permutation: key, Word: w.Key()})
		}
		return true
	})
	return s
}

// Entry rebuilds and seals the entry described by the snapshot. Rows that do
// not decode, belong to another n, or leave the entry incomplete fail with
// INTERNAL_ERROR.
func (s Snapshot) Entry() (*weakorder.Entry, error) {
	if err := errs.ValidateN(s.N); err != nil {
		return nil, corrupt(s.N, err)
	}
	e := weakorder.NewEntry(s.N)
	for _, row := range s.Lengths {
		if row.N != s.N {
			return nil, corrupt(s.N, fmt.Errorf("length row for n=%d", row.N))
		}
		p, err := perm.Parse(row.Permutation)
		if err != nil {
			return nil, corrupt(s.N, err)
		}
		if err := e.SetLength(p, row.Length); err != nil {
			return nil, corrupt(s.N, err)
		}
	}
	for _, row := range s.Words {
		if row.N != s.N {
			return nil, corrupt(s.N, fmt.Errorf("word row for n=%d", row.N))
		}
		p, err := perm.Parse(row.Permutation)
		if err != nil {
			return nil, corrupt(s.N, err)
		}
		w, err := perm.ParseWord(row.Word)
		if err != nil {
			return nil, corrupt(s.N, err)
		}
		if err := e.AddWord(p, w); err != nil {
			return nil, corrupt(s.N, err)
		}
	}
	if err := e.Seal(); err != nil {
		return nil, corrupt(s.N, err)
	}
	return e, nil
}

func corrupt(n int, cause error) error {
	return errs.Wrap(errs.ErrCodeInternal, cause, "stored data for n=%d is corrupt", n)
}

// waitLock polls try with exponential backoff until it acquires the lock,
// the context ends, or wait elapses.
func waitLock(ctx context.Context, n int, wait time.Duration, try func() (bool, error)) error {
	deadline := time.Now().Add(wait)
	delay := 20 * time.Millisecond
	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errs.New(errs.ErrCodeLockTimeout, "waited %s for the population lock of n=%d", wait, n)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, time.Second)
	}
}

func lockTimings(ttl, wait time.Duration) (time.Duration, time.Duration) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return ttl, wait
}
