package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/logpress/logpress/pkg/models"
)

// MongoStore implements JobStore on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	jobs   *mongo.Collection
}

// progressProjection restricts monitor reads to the fields the polling
// loop needs; the full document is never fetched while waiting.
var progressProjection = bson.D{
	{Key: "status", Value: 1},
	{Key: "begin_timestamp", Value: 1},
	{Key: "end_timestamp", Value: 1},
	{Key: "logs_uncompressed_size", Value: 1},
	{Key: "logs_compressed_size", Value: 1},
	{Key: "errors", Value: 1},
}

// NewMongoStore connects to the configured store and verifies the
// connection before returning.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("job store URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("job store database is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to job store: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("job store unreachable: %w", err)
	}

	return &MongoStore{
		client: client,
		jobs:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Create(ctx context.Context, record *models.JobRecord) (string, error) {
	res, err := s.jobs.InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("insert job record: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	oid, err := parseJobID(id)
	if err != nil {
		return nil, err
	}
	var record models.JobRecord
	err = s.jobs.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read job record: %w", err)
	}
	return &record, nil
}

func (s *MongoStore) FindProgress(ctx context.Context, id string) (*models.JobProgress, error) {
	oid, err := parseJobID(id)
	if err != nil {
		return nil, err
	}
	var progress models.JobProgress
	err = s.jobs.FindOne(ctx, bson.M{"_id": oid},
		options.FindOne().SetProjection(progressProjection)).Decode(&progress)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read job progress: %w", err)
	}
	return &progress, nil
}

func (s *MongoStore) UpdateStatusIf(ctx context.Context, id string, expected, next models.JobStatus) (bool, error) {
	oid, err := parseJobID(id)
	if err != nil {
		return false, err
	}
	err = s.jobs.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": expected},
		bson.M{"$set": bson.M{"status": next}},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update job status: %w", err)
	}
	return true, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func parseJobID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid job id %q: %w", id, err)
	}
	return oid, nil
}
