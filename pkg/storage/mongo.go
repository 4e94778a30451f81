package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"solarb/pkg/arb"
)

// MongoStore inserts selections into a document-store database, one document
// per selection vector.
type MongoStore struct {
	client *mongo.Client
	db     string
	logger *zap.Logger
}

func NewMongoStore(ctx context.Context, uri, db string, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{client: client, db: db, logger: logger}, nil
}

// InsertVec inserts the selection into the named collection.
func (s *MongoStore) InsertVec(ctx context.Context, collection string, vec arb.VecSwapPathSelected) error {
	res, err := s.client.Database(s.db).Collection(collection).InsertOne(ctx, vec)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}

	s.logger.Info("selection inserted",
		zap.String("collection", collection),
		zap.Int("paths", len(vec.Value)),
		zap.Any("id", res.InsertedID))
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
