package mongodb

import (
	"context"
	"fmt"
	"time"

	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection(database.CollectionBookings),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return seatTakenError(err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.NotFoundError{Resource: "booking", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) Save(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": booking.ID}, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return seatTakenError(err)
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.NotFoundError{Resource: "booking", ID: booking.ID.Hex()}
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.NotFoundError{Resource: "booking", ID: id.Hex()}
	}

	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter *models.BookingFilter) ([]*models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Offset > 0 {
			opts.SetSkip(filter.Offset)
		}
		if filter.Limit > 0 {
			opts.SetLimit(filter.Limit)
		}
	}

	return r.find(ctx, buildBookingQuery(filter), opts)
}

func (r *bookingRepository) Count(ctx context.Context, filter *models.BookingFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, buildBookingQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func buildBookingQuery(filter *models.BookingFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}

	if filter.TripID != nil {
		query["items.trip_id"] = *filter.TripID
	}
	if filter.Phone != "" {
		query["passenger.phone"] = filter.Phone
	}
	if len(filter.IDs) > 0 {
		query["_id"] = bson.M{"$in": filter.IDs}
	}
	if filter.From != nil || filter.To != nil {
		created := bson.M{}
		if filter.From != nil {
			created["$gte"] = *filter.From
		}
		if filter.To != nil {
			created["$lte"] = *filter.To
		}
		query["created_at"] = created
	}
	return query
}

func (r *bookingRepository) FindBySeat(ctx context.Context, tripID primitive.ObjectID, seatID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"seat_keys": models.SeatKey(tripID, seatID)}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find booking by seat: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByTrip(ctx context.Context, tripID primitive.ObjectID) ([]*models.Booking, error) {
	return r.find(ctx, bson.M{"items.trip_id": tripID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *bookingRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]*models.Booking, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	for cursor.Next(ctx) {
		var booking models.Booking
		if err := cursor.Decode(&booking); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

func seatTakenError(err error) error {
	return domain.ConflictError{Resource: "seat", Msg: "seat is already held by another booking", Err: err}
}
