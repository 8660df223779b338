package interfaces

import (
	"context"

	"busledger/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentRepository is append-only: records are never updated or deleted.
type PaymentRepository interface {
	Create(ctx context.Context, record *models.PaymentRecord) error
	ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.PaymentRecord, error)
	SumByBooking(ctx context.Context, bookingID primitive.ObjectID) (models.PaymentState, error)
	SumByBookings(ctx context.Context, bookingIDs []primitive.ObjectID) (map[primitive.ObjectID]models.PaymentState, error)
}
