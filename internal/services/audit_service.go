package services

import (
	"context"
	"time"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditService appends booking history. Writes are best-effort: a failed
// write is logged and never aborts the surrounding unit of work.
// On MongoDB a failed insert inside RunAtomic still aborts the server-side
// transaction, so the swallow only holds on the memory backend and in
// degraded mode.
type AuditService interface {
	Record(ctx context.Context, bookingID primitive.ObjectID, action models.HistoryAction, description string, details map[string]interface{})
	History(ctx context.Context, bookingID primitive.ObjectID) ([]*models.HistoryRecord, error)
}

type auditService struct {
	historyRepo interfaces.HistoryRepository
	logger      *logger.Logger
}

func NewAuditService(historyRepo interfaces.HistoryRepository, log *logger.Logger) AuditService {
	return &auditService{
		historyRepo: historyRepo,
		logger:      log,
	}
}

func (s *auditService) Record(ctx context.Context, bookingID primitive.ObjectID, action models.HistoryAction, description string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	record := &models.HistoryRecord{
		BookingID:   bookingID,
		Action:      action,
		Description: description,
		Details:     details,
		CreatedAt:   time.Now(),
	}

	if err := s.historyRepo.Create(ctx, record); err != nil {
		s.logger.WithContext(ctx).
			WithBookingID(bookingID).
			WithError(err).
			WithField("action", string(action)).
			Warn("Failed to write booking history")
	}
}

func (s *auditService) History(ctx context.Context, bookingID primitive.ObjectID) ([]*models.HistoryRecord, error) {
	return s.historyRepo.ListByBooking(ctx, bookingID)
}
