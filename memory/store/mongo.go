package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/memory"
)

// MongoStore persists conversation snapshots in MongoDB, one document per
// session. Useful as a durable turn archive.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "clauselens",
		Collection: "sessions",
	}
}

// mongoSnapshot is the internal representation for MongoDB.
type mongoSnapshot struct {
	ID             string        `bson:"_id"`
	Turns          []memory.Turn `bson:"turns"`
	Summary        string        `bson:"summary,omitempty"`
	NextID         int64         `bson:"next_id"`
	PreferredStyle string        `bson:"preferred_style,omitempty"`
	Topics         []string      `bson:"topics,omitempty"`
	UpdatedAt      time.Time     `bson:"updated_at"`
}

// NewMongoStore creates a MongoDB-backed state store.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(config.Database)
	collection := db.Collection(config.Collection)

	store := &MongoStore{
		client:     client,
		db:         db,
		collection: collection,
	}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	}

	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// Save upserts the session's snapshot document.
func (s *MongoStore) Save(ctx context.Context, sessionID string, snap *memory.Snapshot) error {
	if sessionID == "" || snap == nil {
		return cerrors.ErrInvalidInput
	}

	doc := mongoSnapshot{
		ID:             sessionID,
		Turns:          snap.Turns,
		Summary:        snap.Summary,
		NextID:         snap.NextID,
		PreferredStyle: snap.PreferredStyle,
		Topics:         snap.Topics,
		UpdatedAt:      time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": sessionID}

	if _, err := s.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save snapshot to MongoDB: %w", err)
	}
	return nil
}

// Load fetches the session's snapshot document.
func (s *MongoStore) Load(ctx context.Context, sessionID string) (*memory.Snapshot, error) {
	var doc mongoSnapshot
	err := s.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, cerrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return &memory.Snapshot{
		Turns:          doc.Turns,
		Summary:        doc.Summary,
		NextID:         doc.NextID,
		PreferredStyle: doc.PreferredStyle,
		Topics:         doc.Topics,
	}, nil
}

// Delete removes the session's document.
func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (s *MongoStore) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}
