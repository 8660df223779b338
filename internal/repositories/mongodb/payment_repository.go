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

type paymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) interfaces.PaymentRepository {
	return &paymentRepository{
		collection: db.Collection(database.CollectionPayments),
	}
}

func (r *paymentRepository) Create(ctx context.Context, record *models.PaymentRecord) error {
	record.ID = primitive.NewObjectID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	return nil
}

func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode payment records: %w", err)
	}

	return records, nil
}

func (r *paymentRepository) SumByBooking(ctx context.Context, bookingID primitive.ObjectID) (models.PaymentState, error) {
	sums, err := r.SumByBookings(ctx, []primitive.ObjectID{bookingID})
	if err != nil {
		return models.PaymentState{}, err
	}
	return sums[bookingID], nil
}

func (r *paymentRepository) SumByBookings(ctx context.Context, bookingIDs []primitive.ObjectID) (map[primitive.ObjectID]models.PaymentState, error) {
	sums := make(map[primitive.ObjectID]models.PaymentState, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return sums, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"booking_id": bson.M{"$in": bookingIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$booking_id",
			"cash":     bson.M{"$sum": "$cash_amount"},
			"transfer": bson.M{"$sum": "$transfer_amount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payment records: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var result struct {
			BookingID primitive.ObjectID `bson:"_id"`
			Cash      int64              `bson:"cash"`
			Transfer  int64              `bson:"transfer"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode payment sum: %w", err)
		}
		sums[result.BookingID] = models.PaymentState{Cash: result.Cash, Transfer: result.Transfer}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment sums: %w", err)
	}

	return sums, nil
}
