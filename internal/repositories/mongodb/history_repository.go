package mongodb

import (
	"context"
	"fmt"
	"time"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type historyRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) interfaces.HistoryRepository {
	return &historyRepository{
		collection: db.Collection(database.CollectionHistories),
	}
}

func (r *historyRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	record.ID = primitive.NewObjectID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}

	return nil
}

func (r *historyRepository) ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find history records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.HistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history records: %w", err)
	}

	return records, nil
}
