package memory

import (
	"context"
	"sort"
	"time"

	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type bookingRepository struct {
	store *Store
}

func NewBookingRepository(store *Store) interfaces.BookingRepository {
	return &bookingRepository{store: store}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if err := r.checkSeatKeys(booking); err != nil {
		return err
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.store.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "booking", ID: id.Hex()}
	}
	return b.Clone(), nil
}

func (r *bookingRepository) Save(ctx context.Context, booking *models.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.bookings[booking.ID]; !ok {
		return domain.NotFoundError{Resource: "booking", ID: booking.ID.Hex()}
	}
	if err := r.checkSeatKeys(booking); err != nil {
		return err
	}
	booking.UpdatedAt = time.Now()
	r.store.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.bookings[id]; !ok {
		return domain.NotFoundError{Resource: "booking", ID: id.Hex()}
	}
	delete(r.store.bookings, id)
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter *models.BookingFilter) ([]*models.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := r.match(filter)
	sortNewestFirst(out)

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= int64(len(out)) {
				return nil, nil
			}
			out = out[filter.Offset:]
		}
		if filter.Limit > 0 && int64(len(out)) > filter.Limit {
			out = out[:filter.Limit]
		}
	}
	return out, nil
}

func (r *bookingRepository) Count(ctx context.Context, filter *models.BookingFilter) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return int64(len(r.match(filter))), nil
}

func (r *bookingRepository) match(filter *models.BookingFilter) []*models.Booking {
	var ids map[primitive.ObjectID]bool
	if filter != nil && len(filter.IDs) > 0 {
		ids = make(map[primitive.ObjectID]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	var out []*models.Booking
	for _, b := range r.store.bookings {
		if filter != nil {
			if filter.TripID != nil && b.ItemIndex(*filter.TripID) < 0 {
				continue
			}
			if filter.Phone != "" && b.Passenger.Phone != filter.Phone {
				continue
			}
			if ids != nil && !ids[b.ID] {
				continue
			}
			if filter.From != nil && b.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && b.CreatedAt.After(*filter.To) {
				continue
			}
		}
		out = append(out, b.Clone())
	}
	return out
}

func (r *bookingRepository) FindBySeat(ctx context.Context, tripID primitive.ObjectID, seatID string) (*models.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	key := models.SeatKey(tripID, seatID)
	for _, b := range r.store.bookings {
		for _, k := range b.SeatKeys {
			if k == key {
				return b.Clone(), nil
			}
		}
	}
	return nil, nil
}

func (r *bookingRepository) FindByTrip(ctx context.Context, tripID primitive.ObjectID) ([]*models.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*models.Booking
	for _, b := range r.store.bookings {
		if b.ItemIndex(tripID) >= 0 {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// checkSeatKeys mirrors the unique seat_keys index: no key may appear in
// another booking. Callers hold the write lock.
func (r *bookingRepository) checkSeatKeys(booking *models.Booking) error {
	if len(booking.SeatKeys) == 0 {
		return nil
	}
	want := make(map[string]bool, len(booking.SeatKeys))
	for _, k := range booking.SeatKeys {
		want[k] = true
	}
	for id, other := range r.store.bookings {
		if id == booking.ID {
			continue
		}
		for _, k := range other.SeatKeys {
			if want[k] {
				return domain.ConflictError{Resource: "seat", Msg: "seat is already held by another booking"}
			}
		}
	}
	return nil
}

func sortNewestFirst(bookings []*models.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID.Hex() > bookings[j].ID.Hex()
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}
