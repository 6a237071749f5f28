package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("sessions"),
	}
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func (m *mongoRepository) Load(ctx context.Context, userID string) (*domain.UserSnapshot, error) {
	var snapshot domain.UserSnapshot

	err := m.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snapshot.Normalize()

	return &snapshot, nil
}

func (m *mongoRepository) Save(ctx context.Context, snapshot *domain.UserSnapshot) error {
	doc := snapshot.Clone()
	doc.Normalize()

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (m *mongoRepository) Delete(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrSnapshotNotFound
	}

	return nil
}
