package services

import (
	"context"
	"errors"
	"time"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/pkg/cache"
	"busledger/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cachedTripRepository struct {
	base   interfaces.TripRepository
	cache  CacheService
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedTripRepository puts a cache-aside layer in front of the trip
// and route lookups. Cache errors fall through to the base repository.
func NewCachedTripRepository(base interfaces.TripRepository, cache CacheService, ttl time.Duration, log *logger.Logger) interfaces.TripRepository {
	if cache == nil {
		return base
	}
	return &cachedTripRepository{
		base:   base,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

func (r *cachedTripRepository) GetTrip(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	key := "trip:" + id.Hex()
	var trip models.Trip
	if err := r.cache.Get(ctx, key, &trip); err == nil {
		return &trip, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.WithError(err).WithTripID(id).Debug("Trip cache read failed")
	}

	found, err := r.base.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, found, r.ttl); err != nil {
		r.logger.WithError(err).WithTripID(id).Debug("Trip cache write failed")
	}
	return found, nil
}

func (r *cachedTripRepository) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	key := "route:" + id.Hex()
	var route models.Route
	if err := r.cache.Get(ctx, key, &route); err == nil {
		return &route, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.WithError(err).WithField("route_id", id.Hex()).Debug("Route cache read failed")
	}

	found, err := r.base.GetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, found, r.ttl); err != nil {
		r.logger.WithError(err).WithField("route_id", id.Hex()).Debug("Route cache write failed")
	}
	return found, nil
}
