package interfaces

import (
	"context"

	"busledger/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	// Save replaces the whole aggregate. Callers must call Recalculate first.
	Save(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter *models.BookingFilter) ([]*models.Booking, error)
	// Count ignores Limit, Offset and Status.
	Count(ctx context.Context, filter *models.BookingFilter) (int64, error)

	// Seat lookups are derived from the items of active bookings.
	FindBySeat(ctx context.Context, tripID primitive.ObjectID, seatID string) (*models.Booking, error)
	FindByTrip(ctx context.Context, tripID primitive.ObjectID) ([]*models.Booking, error)
}
