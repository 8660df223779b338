package interfaces

import (
	"context"

	"busledger/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HistoryRepository interface {
	Create(ctx context.Context, record *models.HistoryRecord) error
	// ListByBooking returns the records newest first.
	ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.HistoryRecord, error)
}
