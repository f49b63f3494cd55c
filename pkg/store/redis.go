package store

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "demazure:"

// wordSeparator joins the reduced words of one element inside a hash field.
// Words never contain it, and every element has at least one word, so ""
// unambiguously means the single empty word of the identity.
const wordSeparator = "|"

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// Prefix is prepended to every key, for sharing one database between
	// deployments. Defaults to DefaultRedisPrefix.
	Prefix   string
	LockTTL  time.Duration
	LockWait time.Duration
}

// RedisStore keeps each n in three keys:
//
//	<prefix>sn:<n>:lengths    hash  permutation -> length
//	<prefix>sn:<n>:words      hash  permutation -> words joined by "|"
//	<prefix>sn:<n>:complete   string, present only for complete data
//
// plus the set <prefix>populated of complete n values. Save writes all of
// them in one MULTI/EXEC transaction.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	lockTTL  time.Duration
	lockWait time.Duration
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db)
// and verifies the connection.
func NewRedisStore(ctx context.Context, url string, opts RedisOptions) (*RedisStore, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "parse redis url")
	}
	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "connect to redis at %s", o.Addr)
	}
	return NewRedisStoreFromClient(client, opts), nil
}

// NewRedisStoreFromClient wraps an existing client. Close closes the client.
func NewRedisStoreFromClient(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	ttl, wait := lockTimings(opts.LockTTL, opts.LockWait)
	return &RedisStore{client: client, prefix: prefix, lockTTL: ttl, lockWait: wait}
}

// Name returns "redis".
func (s *RedisStore) Name() string { return "redis" }

// Location returns the key prefix.
func (s *RedisStore) Location() string { return s.prefix + "*" }

func (s *RedisStore) key(n int, suffix string) string {
	return fmt.Sprintf("%ssn:%d:%s", s.prefix, n, suffix)
}

func (s *RedisStore) populatedKey() string { return s.prefix + "populated" }

// Load reads the completion marker and both hashes for n in one MULTI/EXEC,
// so a concurrent Save or Delete is seen entirely or not at all.
func (s *RedisStore) Load(ctx context.Context, n int) (*weakorder.Entry, bool, error) {
	var (
		complete       *redis.IntCmd
		lengths, words *redis.MapStringStringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		complete = pipe.Exists(ctx, s.key(n, "complete"))
		lengths = pipe.HGetAll(ctx, s.key(n, "lengths"))
		words = pipe.HGetAll(ctx, s.key(n, "words"))
		return nil
	})
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "read n=%d", n)
	}
	return redisEntry(n, complete.Val() > 0, lengths.Val(), words.Val())
}

// redisEntry decodes the hashes of n. Without the completion marker the
// hashes are ignored and n is a miss.
func redisEntry(n int, complete bool, lengths, words map[string]string) (*weakorder.Entry, bool, error) {
	if !complete {
		return nil, false, nil
	}
	snap := Snapshot{N: n, Lengths: make([]LengthRow, 0, len(lengths))}
	for p, v := range lengths {
		l, err := strconv.Atoi(v)
		if err != nil {
			return nil, false, corrupt(n, err)
		}
		snap.Lengths = append(snap.Lengths, LengthRow{N: n, Permutation: p, Length: l})
	}
	for p, v := range words {
		for _, w := range strings.Split(v, wordSeparator) {
			snap.Words = append(snap.Words, WordRow{N: n, Permutation: p, Word: w})
		}
	}
	e, err := snap.Entry()
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// Save replaces the data for e.N in a single transaction.
func (s *RedisStore) Save(ctx context.Context, e *weakorder.Entry) error {
	if !e.Sealed() {
		return errs.New(errs.ErrCodeInternal, "refusing to save unsealed entry for n=%d", e.N)
	}
	lengths := make(map[string]any, e.Size())
	words := make(map[string]any, e.Size())
	e.Each(func(p perm.Perm, length int, ws []perm.Word) bool {
		key := p.Key()
		lengths[key] = length
		keys := make([]string, len(ws))
		for i, w := range ws {
			keys[i] = w.Key()
		}
		words[key] = strings.Join(keys, wordSeparator)
		return true
	})

	n := e.N
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(n, "lengths"), s.key(n, "words"), s.key(n, "complete"))
		pipe.HSet(ctx, s.key(n, "lengths"), lengths)
		pipe.HSet(ctx, s.key(n, "words"), words)
		pipe.Set(ctx, s.key(n, "complete"), time.Now().UTC().Format(time.RFC3339), 0)
		pipe.SAdd(ctx, s.populatedKey(), n)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "save n=%d", n)
	}
	return nil
}

// Delete removes every key for n in one transaction.
func (s *RedisStore) Delete(ctx context.Context, n int) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(n, "complete"), s.key(n, "lengths"), s.key(n, "words"))
		pipe.SRem(ctx, s.populatedKey(), n)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "delete n=%d", n)
	}
	return nil
}

// Lock acquires <prefix>sn:<n>:lock with SET NX and a TTL.
func (s *RedisStore) Lock(ctx context.Context, n int) (Unlock, error) {
	key := s.key(n, "lock")
	token := uuid.NewString()
	err := waitLock(ctx, n, s.lockWait, func() (bool, error) {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return false, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "acquire lock for n=%d", n)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return func() error {
		return unlockScript.Run(context.WithoutCancel(ctx), s.client, []string{key}, token).Err()
	}, nil
}

// List returns the members of the populated set.
func (s *RedisStore) List(ctx context.Context) ([]int, error) {
	members, err := s.client.SMembers(ctx, s.populatedKey()).Result()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "list populated n")
	}
	ns := make([]int, 0, len(members))
	for _, m := range members {
		if n, err := strconv.Atoi(m); err == nil {
			ns = append(ns, n)
		}
	}
	slices.Sort(ns)
	return ns, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
