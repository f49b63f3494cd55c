package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

func enumerate(t *testing.T, n int) *weakorder.Entry {
	t.Helper()
	e, err := weakorder.Enumerate(context.Background(), n, weakorder.Options{})
	require.NoError(t, err)
	return e
}

// assertSameEntry compares two entries element by element.
func assertSameEntry(t *testing.T, want, got *weakorder.Entry) {
	t.Helper()
	require.Equal(t, want.N, got.N)
	require.Equal(t, want.Size(), got.Size())
	require.Equal(t, want.WordCount(), got.WordCount())
	want.Each(func(p perm.Perm, length int, words []perm.Word) bool {
		l, ok := got.Length(p)
		require.True(t, ok, "missing %s", p)
		assert.Equal(t, length, l, "length of %s", p)
		ws, _ := got.ReducedWords(p)
		assert.Equal(t, words, ws, "words of %s", p)
		return true
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	for n := 1; n <= 4; n++ {
		e := enumerate(t, n)
		snap := NewSnapshot(e)
		assert.Len(t, snap.Lengths, perm.Factorial(n))
		assert.Len(t, snap.Words, e.WordCount())

		got, err := snap.Entry()
		require.NoError(t, err)
		assertSameEntry(t, e, got)
	}
}

func TestSnapshotIdentityWord(t *testing.T) {
	snap := NewSnapshot(enumerate(t, 1))
	require.Len(t, snap.Words, 1)
	assert.Equal(t, WordRow{N: 1, Permutation: "1", Word: ""}, snap.Words[0])
}

func TestSnapshotCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"missing length row", func(s *Snapshot) { s.Lengths = s.Lengths[1:] }},
		{"missing word rows", func(s *Snapshot) { s.Words = s.Words[:0] }},
		{"foreign n", func(s *Snapshot) { s.Lengths[0].N = 9 }},
		{"bad permutation", func(s *Snapshot) { s.Words[0].Permutation = "1,1,2" }},
		{"bad word", func(s *Snapshot) { s.Words[0].Word = "x" }},
		{"wrong word length", func(s *Snapshot) { s.Lengths[0].Length = 5 }},
		{"invalid n", func(s *Snapshot) { s.N = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := NewSnapshot(enumerate(t, 3))
			tt.mutate(&snap)
			_, err := snap.Entry()
			require.Error(t, err)
			assert.Equal(t, errs.ErrCodeInternal, errs.GetCode(err))
		})
	}
}

// redisHashes lays out e the way RedisStore.Save writes it.
func redisHashes(e *weakorder.Entry) (lengths, words map[string]string) {
	lengths = make(map[string]string, e.Size())
	words = make(map[string]string, e.Size())
	e.Each(func(p perm.Perm, length int, ws []perm.Word) bool {
		keys := make([]string, len(ws))
		for i, w := range ws {
			keys[i] = w.Key()
		}
		lengths[p.Key()] = strconv.Itoa(length)
		words[p.Key()] = strings.Join(keys, wordSeparator)
		return true
	})
	return lengths, words
}

func TestRedisEntry(t *testing.T) {
	e := enumerate(t, 3)
	lengths, words := redisHashes(e)

	got, found, err := redisEntry(3, true, lengths, words)
	require.NoError(t, err)
	require.True(t, found)
	assertSameEntry(t, e, got)

	// Marker gone mid-delete: whatever hashes remain are a miss.
	got, found, err = redisEntry(3, false, lengths, map[string]string{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	_, found, err = redisEntry(3, false, map[string]string{}, map[string]string{})
	require.NoError(t, err)
	assert.False(t, found)

	lengths["2,1,3"] = "x"
	_, _, err = redisEntry(3, true, lengths, words)
	assert.Equal(t, errs.ErrCodeInternal, errs.GetCode(err))
}

// testStore runs the behaviour every backend shares.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Load(ctx, 3)
	require.NoError(t, err)
	assert.False(t, found)

	e3 := enumerate(t, 3)
	require.NoError(t, s.Save(ctx, e3))
	got, found, err := s.Load(ctx, 3)
	require.NoError(t, err)
	require.True(t, found)
	assertSameEntry(t, e3, got)

	require.NoError(t, s.Save(ctx, enumerate(t, 1)))
	ns, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ns)

	// Saving again replaces rather than duplicates.
	require.NoError(t, s.Save(ctx, e3))
	got, _, err = s.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, e3.WordCount(), got.WordCount())

	require.NoError(t, s.Delete(ctx, 3))
	require.NoError(t, s.Delete(ctx, 3))
	_, found, err = s.Load(ctx, 3)
	require.NoError(t, err)
	assert.False(t, found)

	unlock, err := s.Lock(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, unlock())
	unlock, err = s.Lock(ctx, 2)
	require.NoError(t, err, "lock must be reacquirable after unlock")
	require.NoError(t, unlock())

	err = s.Save(ctx, weakorder.NewEntry(2))
	assert.Error(t, err, "unsealed entries are rejected")
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(time.Second))
}

func TestMemoryStoreLockTimeout(t *testing.T) {
	s := NewMemoryStore(50 * time.Millisecond)
	ctx := context.Background()

	unlock, err := s.Lock(ctx, 4)
	require.NoError(t, err)
	defer unlock()

	_, err = s.Lock(ctx, 4)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeLockTimeout))

	// Other n are independent.
	other, err := s.Lock(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, other())
}

func TestMemoryStoreUnlockTwice(t *testing.T) {
	s := NewMemoryStore(50 * time.Millisecond)
	unlock, err := s.Lock(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, unlock())
	require.NoError(t, unlock())

	again, err := s.Lock(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, again())
}

func TestMemoryStoreLockCancel(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	unlock, err := s.Lock(context.Background(), 2)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Lock(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	assert.Equal(t, "none", s.Name())
	require.NoError(t, s.Save(ctx, enumerate(t, 2)))
	_, found, err := s.Load(ctx, 2)
	require.NoError(t, err)
	assert.False(t, found, "NullStore should not store data")

	ns, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ns)

	unlock, err := s.Lock(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), FileOptions{LockWait: time.Second})
	require.NoError(t, err)
	testStore(t, s)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, dir, s.Location())
	assert.FileExists(t, filepath.Join(dir, schemaFile))

	require.NoError(t, s.Save(context.Background(), enumerate(t, 4)))
	assert.FileExists(t, filepath.Join(dir, "s4.json.lz4"))

	size, err := s.Size(context.Background(), 4)
	require.NoError(t, err)
	assert.Positive(t, size)

	tmps, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	assert.Empty(t, tmps, "temporary files must not survive a save")
}

func TestFileStoreReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, FileOptions{})
	require.NoError(t, err)
	e := enumerate(t, 4)
	require.NoError(t, s.Save(context.Background(), e))

	reopened, err := NewFileStore(dir, FileOptions{})
	require.NoError(t, err)
	got, found, err := reopened.Load(context.Background(), 4)
	require.NoError(t, err)
	require.True(t, found)
	assertSameEntry(t, e, got)
}

func TestFileStoreSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, schemaFile), []byte(`{"version": 99}`), 0644))
	_, err := NewFileStore(dir, FileOptions{})
	require.Error(t, err)
	assert.Equal(t, errs.ErrCodeStoreUnavailable, errs.GetCode(err))
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, FileOptions{})
	require.NoError(t, err)
	path := filepath.Join(dir, "s3.json.lz4")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0644))

	_, found, err := s.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoFileExists(t, path, "corrupt snapshots are removed")
}

func TestFileStoreLockContention(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileStore(dir, FileOptions{LockWait: 100 * time.Millisecond})
	require.NoError(t, err)
	b, err := NewFileStore(dir, FileOptions{LockWait: 100 * time.Millisecond})
	require.NoError(t, err)

	unlock, err := a.Lock(context.Background(), 5)
	require.NoError(t, err)

	_, err = b.Lock(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeLockTimeout))

	require.NoError(t, unlock())
	unlockB, err := b.Lock(context.Background(), 5)
	require.NoError(t, err)
	require.NoError(t, unlockB())
}

func TestFileStoreStaleLock(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, FileOptions{LockTTL: time.Minute, LockWait: time.Second})
	require.NoError(t, err)

	path := filepath.Join(dir, "s5.lock")
	require.NoError(t, os.WriteFile(path, []byte("crashed-holder"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	unlock, err := s.Lock(context.Background(), 5)
	require.NoError(t, err)
	require.NoError(t, unlock())
	assert.NoFileExists(t, path)
}

func TestFileStoreUnlockKeepsForeignLock(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, FileOptions{})
	require.NoError(t, err)

	unlock, err := s.Lock(context.Background(), 2)
	require.NoError(t, err)

	// Someone else took over the lock after ours expired.
	path := filepath.Join(dir, "s2.lock")
	require.NoError(t, os.WriteFile(path, []byte("other-token"), 0644))

	require.NoError(t, unlock())
	assert.FileExists(t, path)
}
