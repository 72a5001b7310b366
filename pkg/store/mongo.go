package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/source"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "vardump"
	DefaultMongoCollection = "snapshots"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore keeps snapshots as documents in one collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoSnapshot is the stored document. IDs are kept as strings so the
// collection reads naturally in the mongo shell.
type mongoSnapshot struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name,omitempty"`
	Format    string    `bson:"format"`
	Data      []byte    `bson:"data,omitempty"`
	Size      int       `bson:"size"`
	CreatedAt time.Time `bson:"created_at"`
}

func toMongo(s *Snapshot) mongoSnapshot {
	return mongoSnapshot{
		ID:        s.ID.String(),
		Name:      s.Name,
		Format:    string(s.Format),
		Data:      s.Data,
		Size:      len(s.Data),
		CreatedAt: s.CreatedAt,
	}
}

func (m mongoSnapshot) snapshot() (*Snapshot, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "bad snapshot id %q", m.ID)
	}
	return &Snapshot{
		ID:        id,
		Name:      m.Name,
		Format:    source.Format(m.Format),
		Data:      m.Data,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures
// the listing index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongo")
	}

	db := cfg.Database
	if db == "" {
		db = DefaultMongoDatabase
	}
	coll := client.Database(db).Collection(DefaultMongoCollection)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create snapshot index")
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := prepare(snap); err != nil {
		return err
	}

	doc := toMongo(snap)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save snapshot %s", snap.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var doc mongoSnapshot
	err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get snapshot %s", id)
	}
	return doc.snapshot()
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Info, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	var docs []mongoSnapshot
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}

	infos := make([]Info, 0, len(docs))
	for _, d := range docs {
		snap, err := d.snapshot()
		if err != nil {
			continue
		}
		info := snap.Info()
		info.Size = d.Size
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
