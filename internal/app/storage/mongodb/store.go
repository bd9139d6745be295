// Package mongodb implements the storage interfaces on top of a MongoDB
// collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/internal/app/storage"
)

const defaultConnectTimeout = 10 * time.Second

// Config selects the deployment, database and collection to read from.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Store implements the storage interfaces backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Connect opens a client with the Stable API v1 in strict mode and pings the
// deployment before returning.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongodb uri not configured")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.New("mongodb database and collection are required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(serverAPI).
		SetConnectTimeout(timeout)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return New(client, client.Database(cfg.Database).Collection(cfg.Collection)), nil
}

// New creates a Store using an already connected client and collection.
func New(client *mongo.Client, coll *mongo.Collection) *Store {
	return &Store{client: client, coll: coll}
}

// --- AppStore ---------------------------------------------------------------

func (s *Store) FindApps(ctx context.Context, q apps.ListQuery) ([]apps.App, error) {
	cur, err := s.coll.Find(ctx, filterDocument(q.Filter), findOptions(q))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]apps.App, 0)
	for cur.Next(ctx) {
		rec, err := decodeApp(cur.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountApps(ctx context.Context, f apps.Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, filterDocument(f))
}

func (s *Store) FindAppByID(ctx context.Context, id string) (apps.App, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("parse object id %q: %w", id, err)
	}

	raw, err := s.coll.FindOne(ctx, bson.D{{Key: apps.FieldID, Value: oid}}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apps.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeApp(raw)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// --- query documents --------------------------------------------------------

// decodeApp decodes a stored document without a schema. Every field keeps its
// stored type, and embedded documents decode as maps so they render as JSON
// objects.
func decodeApp(raw bson.Raw) (apps.App, error) {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return nil, err
	}
	dec.DefaultDocumentM()

	var rec apps.App
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode app: %w", err)
	}
	return rec, nil
}

func filterDocument(f apps.Filter) bson.D {
	if f.MatchAll() {
		return bson.D{}
	}
	return bson.D{{Key: apps.FieldTitle, Value: bson.D{
		{Key: "$regex", Value: f.Pattern()},
		{Key: "$options", Value: "i"},
	}}}
}

func sortDocument(s apps.Sort) bson.D {
	if s.Field == "" {
		return bson.D{}
	}
	return bson.D{{Key: s.Field, Value: int(s.Order)}}
}

func projectionDocument(fields []string) bson.D {
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f, Value: 1})
	}
	return doc
}

func findOptions(q apps.ListQuery) *options.FindOptions {
	opts := options.Find().
		SetSort(sortDocument(q.Sort)).
		SetSkip(q.Skip).
		SetLimit(q.Limit)
	if len(q.Fields) > 0 {
		opts.SetProjection(projectionDocument(q.Fields))
	}
	return opts
}
