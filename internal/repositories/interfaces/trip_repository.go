package interfaces

import (
	"context"

	"busledger/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripRepository interface {
	GetTrip(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)
	GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error)
}
