package memory

import (
	"context"
	"time"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) interfaces.PaymentRepository {
	return &paymentRepository{store: store}
}

func (r *paymentRepository) Create(ctx context.Context, record *models.PaymentRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	record.ID = primitive.NewObjectID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	stored := *record
	r.store.payments = append(r.store.payments, &stored)
	return nil
}

func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*models.PaymentRecord
	for _, p := range r.store.payments {
		if p.BookingID == bookingID {
			rec := *p
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (r *paymentRepository) SumByBooking(ctx context.Context, bookingID primitive.ObjectID) (models.PaymentState, error) {
	sums, err := r.SumByBookings(ctx, []primitive.ObjectID{bookingID})
	if err != nil {
		return models.PaymentState{}, err
	}
	return sums[bookingID], nil
}

func (r *paymentRepository) SumByBookings(ctx context.Context, bookingIDs []primitive.ObjectID) (map[primitive.ObjectID]models.PaymentState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[primitive.ObjectID]bool, len(bookingIDs))
	for _, id := range bookingIDs {
		wanted[id] = true
	}

	sums := make(map[primitive.ObjectID]models.PaymentState, len(bookingIDs))
	for _, p := range r.store.payments {
		if !wanted[p.BookingID] {
			continue
		}
		s := sums[p.BookingID]
		s.Cash += p.CashAmount
		s.Transfer += p.TransferAmount
		sums[p.BookingID] = s
	}
	return sums, nil
}
