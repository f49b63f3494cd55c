package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

// schemaVersion is bumped whenever the snapshot layout changes.
const schemaVersion = 1

// schemaFile marks a directory as a store and records its layout version.
const schemaFile = "schema.json"

type schemaInfo struct {
	Version int      `json:"version"`
	Format  string   `json:"format"`
	Tables  []string `json:"tables"`
}

// FileOptions configures a FileStore.
type FileOptions struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// FileStore keeps one lz4-compressed JSON Snapshot per n in a directory:
//
//	<dir>/schema.json
//	<dir>/s4.json.lz4
//	<dir>/s4.lock        (only while n=4 is being populated)
type FileStore struct {
	dir      string
	lockTTL  time.Duration
	lockWait time.Duration
}

// NewFileStore opens the store in dir, creating the directory and an empty
// schema if they do not exist. A directory written by an incompatible
// version fails with STORE_UNAVAILABLE.
func NewFileStore(dir string, opts FileOptions) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "create store directory %s", dir)
	}
	if err := ensureSchema(dir); err != nil {
		return nil, err
	}
	ttl, wait := lockTimings(opts.LockTTL, opts.LockWait)
	return &FileStore{dir: dir, lockTTL: ttl, lockWait: wait}, nil
}

func ensureSchema(dir string) error {
	path := filepath.Join(dir, schemaFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		info := schemaInfo{Version: schemaVersion, Format: "json+lz4", Tables: []string{"Lengths", "Words"}}
		data, _ := json.MarshalIndent(info, "", "  ")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "write %s", path)
		}
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "read %s", path)
	}
	var info schemaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "parse %s", path)
	}
	if info.Version != schemaVersion {
		return errs.New(errs.ErrCodeStoreUnavailable, "%s has schema version %d, want %d", path, info.Version, schemaVersion)
	}
	return nil
}

// Name returns "file".
func (s *FileStore) Name() string { return "file" }

// Location returns the store directory.
func (s *FileStore) Location() string { return s.dir }

func (s *FileStore) path(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("s%d.json.lz4", n))
}

func (s *FileStore) lockPath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("s%d.lock", n))
}

// Load reads the snapshot for n. Snapshots that cannot be decoded are
// removed and reported as a miss.
func (s *FileStore) Load(ctx context.Context, n int) (*weakorder.Entry, bool, error) {
	path := s.path(n)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "open %s", path)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(lz4.NewReader(f)).Decode(&snap); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if snap.N != n {
		_ = os.Remove(path)
		return nil, false, nil
	}
	e, err := snap.Entry()
	if err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e, true, nil
}

// Save writes the snapshot to a temporary file and renames it into place, so
// readers see either the previous state or the complete new snapshot.
func (s *FileStore) Save(ctx context.Context, e *weakorder.Entry) (err error) {
	if !e.Sealed() {
		return errs.New(errs.ErrCodeInternal, "refusing to save unsealed entry for n=%d", e.N)
	}
	tmp := filepath.Join(s.dir, fmt.Sprintf(".s%d.%s.tmp", e.N, uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "create %s", tmp)
	}
	defer func() {
		if err != nil {
			f.Close()
			_ = os.Remove(tmp)
		}
	}()

	zw := lz4.NewWriter(f)
	if err = json.NewEncoder(zw).Encode(NewSnapshot(e)); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "encode snapshot for n=%d", e.N)
	}
	if err = zw.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "compress snapshot for n=%d", e.N)
	}
	if err = f.Sync(); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "sync %s", tmp)
	}
	if err = f.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "close %s", tmp)
	}
	if err = os.Rename(tmp, s.path(e.N)); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "install snapshot for n=%d", e.N)
	}
	return nil
}

// Delete removes the snapshot for n.
func (s *FileStore) Delete(ctx context.Context, n int) error {
	err := os.Remove(s.path(n))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "delete snapshot for n=%d", n)
	}
	return nil
}

// Lock creates s<n>.lock exclusively. A lock file older than the lock TTL
// belongs to a crashed holder and is removed.
func (s *FileStore) Lock(ctx context.Context, n int) (Unlock, error) {
	path := s.lockPath(n)
	token := uuid.NewString()

	err := waitLock(ctx, n, s.lockWait, func() (bool, error) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := f.WriteString(token)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return false, errs.Wrap(errs.ErrCodeStoreUnavailable, errors.Join(werr, cerr), "write %s", path)
			}
			return true, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return false, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "create %s", path)
		}
		if info, serr := os.Stat(path); serr == nil && time.Since(info.ModTime()) > s.lockTTL {
			_ = os.Remove(path)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if string(data) != token {
			return nil
		}
		return os.Remove(path)
	}, nil
}

// List returns every n with a snapshot file.
func (s *FileStore) List(ctx context.Context) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "s*.json.lz4"))
	if err != nil {
		return nil, err
	}
	var ns []int
	for _, m := range matches {
		var n int
		name := strings.TrimSuffix(filepath.Base(m), ".json.lz4")
		if _, err := fmt.Sscanf(name, "s%d", &n); err == nil {
			ns = append(ns, n)
		}
	}
	slices.Sort(ns)
	return ns, nil
}

// Size returns the on-disk size of the snapshot for n.
func (s *FileStore) Size(ctx context.Context, n int) (int64, error) {
	info, err := os.Stat(s.path(n))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
