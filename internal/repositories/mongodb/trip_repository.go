package mongodb

import (
	"context"
	"fmt"

	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// tripRepository reads the trips and routes collections owned by the
// scheduling side of the application.
type tripRepository struct {
	trips  *mongo.Collection
	routes *mongo.Collection
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		trips:  db.Collection(database.CollectionTrips),
		routes: db.Collection(database.CollectionRoutes),
	}
}

func (r *tripRepository) GetTrip(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	var trip models.Trip
	err := r.trips.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.NotFoundError{Resource: "trip", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &trip, nil
}

func (r *tripRepository) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	var route models.Route
	err := r.routes.FindOne(ctx, bson.M{"_id": id}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.NotFoundError{Resource: "route", ID: id.Hex()}
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return &route, nil
}
