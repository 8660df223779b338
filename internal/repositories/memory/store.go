// Package memory is an in-process storage backend with the same contracts
// as the MongoDB repositories. It backs local development
// (STORAGE_DRIVER=memory) and the service tests.
package memory

import (
	"context"
	"sync"

	"busledger/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	bookings  map[primitive.ObjectID]*models.Booking
	payments  []*models.PaymentRecord
	histories []*models.HistoryRecord
	trips     map[primitive.ObjectID]*models.Trip
	routes    map[primitive.ObjectID]*models.Route
}

func NewStore() *Store {
	return &Store{
		bookings: make(map[primitive.ObjectID]*models.Booking),
		trips:    make(map[primitive.ObjectID]*models.Trip),
		routes:   make(map[primitive.ObjectID]*models.Route),
	}
}

type snapshot struct {
	bookings  map[primitive.ObjectID]*models.Booking
	payments  []*models.PaymentRecord
	histories []*models.HistoryRecord
}

// RunAtomic serializes units of work and restores the pre-unit state when
// fn fails.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		bookings:  make(map[primitive.ObjectID]*models.Booking, len(s.bookings)),
		payments:  append([]*models.PaymentRecord(nil), s.payments...),
		histories: append([]*models.HistoryRecord(nil), s.histories...),
	}
	for id, b := range s.bookings {
		snap.bookings[id] = b.Clone()
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookings = snap.bookings
	s.payments = snap.payments
	s.histories = snap.histories
}

// AddTrip registers a trip for lookups. The route is stored as well when
// given.
func (s *Store) AddTrip(trip *models.Trip, route *models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	if route != nil {
		if route.ID.IsZero() {
			route.ID = primitive.NewObjectID()
		}
		trip.RouteID = route.ID
		r := *route
		s.routes[route.ID] = &r
	}
	t := *trip
	s.trips[trip.ID] = &t
}
