package memory

import (
	"context"

	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type tripRepository struct {
	store *Store
}

func NewTripRepository(store *Store) interfaces.TripRepository {
	return &tripRepository{store: store}
}

func (r *tripRepository) GetTrip(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.trips[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "trip", ID: id.Hex()}
	}
	trip := *t
	return &trip, nil
}

func (r *tripRepository) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rt, ok := r.store.routes[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "route", ID: id.Hex()}
	}
	route := *rt
	return &route, nil
}
