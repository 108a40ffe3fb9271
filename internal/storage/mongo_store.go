package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB player store.
type MongoConfig struct {
	URI        string `yaml:"uri"`        // e.g. mongodb://localhost:27017
	Database   string `yaml:"database"`   // e.g. unlimited_mining
	Collection string `yaml:"collection"` // e.g. players
}

// MongoStore keeps one document per key: {_id: key, value: <bytes>, updated_at}.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type mongoRecord struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore establishes connection and returns the store.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "unlimited_mining"
	}
	if cfg.Collection == "" {
		cfg.Collection = "players"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}, nil
}

// Get loads a value by key.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	var rec mongoRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return rec.Value, true, nil
}

// Set upserts a value.
func (s *MongoStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.ctxTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
