package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

// Collection names.
const (
	collLengths   = "lengths"
	collWords     = "words"
	collPopulated = "populated"
	collLocks     = "locks"
)

// DefaultMongoDatabase is used when MongoOptions.Database is empty.
const DefaultMongoDatabase = "demazure"

// insertBatch bounds the documents sent per InsertMany call.
const insertBatch = 10_000

// MongoOptions configures a MongoStore.
type MongoOptions struct {
	Database string
	LockTTL  time.Duration
	LockWait time.Duration
}

// MongoStore keeps the Lengths and Words tables as collections. A document
// in "populated" is written last and marks n as complete; Load ignores rows
// without it, so a crash mid-Save reads as a miss.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	lockTTL  time.Duration
	lockWait time.Duration
}

type populatedDoc struct {
	N        int       `bson:"_id"`
	Elements int       `bson:"elements"`
	Words    int       `bson:"words"`
	SavedAt  time.Time `bson:"saved_at"`
}

type lockDoc struct {
	N         int       `bson:"_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// NewMongoStore connects to uri, verifies the connection and creates the
// indexes.
func NewMongoStore(ctx context.Context, uri string, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "ping mongodb")
	}

	dbName := opts.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}
	ttl, wait := lockTimings(opts.LockTTL, opts.LockWait)
	s := &MongoStore{client: client, db: client.Database(dbName), lockTTL: ttl, lockWait: wait}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collLengths).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "n", Value: 1}, {Key: "permutation", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "create lengths index")
	}
	_, err = s.db.Collection(collWords).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "n", Value: 1}, {Key: "permutation", Value: 1}},
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "create words index")
	}
	return nil
}

// Name returns "mongo".
func (s *MongoStore) Name() string { return "mongo" }

// Location returns the database name.
func (s *MongoStore) Location() string { return "mongodb database " + s.db.Name() }

// Load reads both collections for n if the completion marker exists.
func (s *MongoStore) Load(ctx context.Context, n int) (*weakorder.Entry, bool, error) {
	err := s.db.Collection(collPopulated).FindOne(ctx, bson.M{"_id": n}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "check n=%d", n)
	}

	snap := Snapshot{N: n}
	if err := s.readAll(ctx, collLengths, n, &snap.Lengths); err != nil {
		return nil, false, err
	}
	if err := s.readAll(ctx, collWords, n, &snap.Words); err != nil {
		return nil, false, err
	}
	e, err := snap.Entry()
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (s *MongoStore) readAll(ctx context.Context, coll string, n int, out any) error {
	cur, err := s.db.Collection(coll).Find(ctx, bson.M{"n": n})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "read %s for n=%d", coll, n)
	}
	if err := cur.All(ctx, out); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "decode %s for n=%d", coll, n)
	}
	return nil
}

// Save clears n, inserts all rows and then writes the completion marker. On
// failure the partial rows are removed again.
func (s *MongoStore) Save(ctx context.Context, e *weakorder.Entry) error {
	if !e.Sealed() {
		return errs.New(errs.ErrCodeInternal, "refusing to save unsealed entry for n=%d", e.N)
	}
	if err := s.Delete(ctx, e.N); err != nil {
		return err
	}

	snap := NewSnapshot(e)
	if err := insertRows(ctx, s.db.Collection(collLengths), snap.Lengths); err != nil {
		s.cleanup(ctx, e.N)
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "insert lengths for n=%d", e.N)
	}
	if err := insertRows(ctx, s.db.Collection(collWords), snap.Words); err != nil {
		s.cleanup(ctx, e.N)
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "insert words for n=%d", e.N)
	}
	marker := populatedDoc{N: e.N, Elements: e.Size(), Words: e.WordCount(), SavedAt: time.Now().UTC()}
	if _, err := s.db.Collection(collPopulated).InsertOne(ctx, marker); err != nil {
		s.cleanup(ctx, e.N)
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "mark n=%d complete", e.N)
	}
	return nil
}

func insertRows[T any](ctx context.Context, coll *mongo.Collection, rows []T) error {
	opts := options.InsertMany().SetOrdered(false)
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		docs := make([]any, 0, end-start)
		for _, r := range rows[start:end] {
			docs = append(docs, r)
		}
		if _, err := coll.InsertMany(ctx, docs, opts); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) cleanup(ctx context.Context, n int) {
	_ = s.Delete(context.WithoutCancel(ctx), n)
}

// Delete removes the completion marker first, then the rows.
func (s *MongoStore) Delete(ctx context.Context, n int) error {
	if _, err := s.db.Collection(collPopulated).DeleteOne(ctx, bson.M{"_id": n}); err != nil {
		return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "delete marker for n=%d", n)
	}
	for _, coll := range []string{collLengths, collWords} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, bson.M{"n": n}); err != nil {
			return errs.Wrap(errs.ErrCodeStoreUnavailable, err, "delete %s for n=%d", coll, n)
		}
	}
	return nil
}

// Lock inserts a document keyed by n into "locks". Expired locks are
// removed when found.
func (s *MongoStore) Lock(ctx context.Context, n int) (Unlock, error) {
	locks := s.db.Collection(collLocks)
	token := uuid.NewString()

	err := waitLock(ctx, n, s.lockWait, func() (bool, error) {
		doc := lockDoc{N: n, Token: token, ExpiresAt: time.Now().Add(s.lockTTL)}
		_, err := locks.InsertOne(ctx, doc)
		if err == nil {
			return true, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return false, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "acquire lock for n=%d", n)
		}
		_, _ = locks.DeleteOne(ctx, bson.M{"_id": n, "expires_at": bson.M{"$lt": time.Now()}})
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		_, err := locks.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": n, "token": token})
		return err
	}, nil
}

// List returns the n values with a completion marker.
func (s *MongoStore) List(ctx context.Context) ([]int, error) {
	cur, err := s.db.Collection(collPopulated).Find(ctx, bson.M{})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "list populated n")
	}
	var docs []populatedDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "decode populated n")
	}
	ns := make([]int, len(docs))
	for i, d := range docs {
		ns[i] = d.N
	}
	slices.Sort(ns)
	return ns, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
