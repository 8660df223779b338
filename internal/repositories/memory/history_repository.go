package memory

import (
	"context"
	"time"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type historyRepository struct {
	store *Store
}

func NewHistoryRepository(store *Store) interfaces.HistoryRepository {
	return &historyRepository{store: store}
}

func (r *historyRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	record.ID = primitive.NewObjectID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	stored := *record
	r.store.histories = append(r.store.histories, &stored)
	return nil
}

func (r *historyRepository) ListByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]*models.HistoryRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*models.HistoryRecord
	for i := len(r.store.histories) - 1; i >= 0; i-- {
		h := r.store.histories[i]
		if h.BookingID == bookingID {
			rec := *h
			out = append(out, &rec)
		}
	}
	return out, nil
}
