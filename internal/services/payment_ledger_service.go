package services

import (
	"context"
	"fmt"
	"time"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentLedgerService keeps an append-only ledger of signed payment
// deltas. Paid totals are always the sum of a booking's records.
type PaymentLedgerService interface {
	// ProcessPaymentUpdate moves the booking's paid totals to target by
	// writing one delta record. It returns nil when nothing changed.
	ProcessPaymentUpdate(ctx context.Context, booking *models.Booking, target models.PaymentState, note string) (*models.PaymentRecord, error)
	// RecordDelta writes delta as-is. Zero deltas are skipped.
	RecordDelta(ctx context.Context, booking *models.Booking, delta models.PaymentState, note string) (*models.PaymentRecord, error)
	Totals(ctx context.Context, bookingID primitive.ObjectID) (models.PaymentState, error)
	Records(ctx context.Context, bookingID primitive.ObjectID) ([]*models.PaymentRecord, error)
}

type paymentLedgerService struct {
	paymentRepo interfaces.PaymentRepository
	logger      *logger.Logger
}

func NewPaymentLedgerService(paymentRepo interfaces.PaymentRepository, log *logger.Logger) PaymentLedgerService {
	return &paymentLedgerService{
		paymentRepo: paymentRepo,
		logger:      log,
	}
}

func (s *paymentLedgerService) ProcessPaymentUpdate(ctx context.Context, booking *models.Booking, target models.PaymentState, note string) (*models.PaymentRecord, error) {
	current, err := s.paymentRepo.SumByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	delta := models.PaymentState{
		Cash:     target.Cash - current.Cash,
		Transfer: target.Transfer - current.Transfer,
	}
	return s.RecordDelta(ctx, booking, delta, note)
}

func (s *paymentLedgerService) RecordDelta(ctx context.Context, booking *models.Booking, delta models.PaymentState, note string) (*models.PaymentRecord, error) {
	if delta.IsZero() {
		return nil, nil
	}

	record := &models.PaymentRecord{
		BookingID:      booking.ID,
		CashAmount:     delta.Cash,
		TransferAmount: delta.Transfer,
		Type:           classifyPaymentType(delta),
		Method:         classifyPaymentMethod(delta),
		Note:           note,
		Details:        snapshotPaymentDetails(booking),
		CreatedAt:      time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.WithContext(ctx).LogPaymentEvent(booking.ID, string(record.Type), delta.Cash, delta.Transfer)
	return record, nil
}

func (s *paymentLedgerService) Totals(ctx context.Context, bookingID primitive.ObjectID) (models.PaymentState, error) {
	return s.paymentRepo.SumByBooking(ctx, bookingID)
}

func (s *paymentLedgerService) Records(ctx context.Context, bookingID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	return s.paymentRepo.ListByBooking(ctx, bookingID)
}

func classifyPaymentType(delta models.PaymentState) models.PaymentType {
	if delta.Total() >= 0 {
		return models.PaymentTypePayment
	}
	return models.PaymentTypeRefund
}

func classifyPaymentMethod(delta models.PaymentState) models.PaymentMethod {
	switch {
	case delta.Cash != 0 && delta.Transfer == 0:
		return models.PaymentMethodCash
	case delta.Cash == 0 && delta.Transfer != 0:
		return models.PaymentMethodTransfer
	default:
		return models.PaymentMethodMixed
	}
}

// snapshotPaymentDetails freezes the trips and seats the booking held when
// the payment was taken. Seat labels are the seat ids.
func snapshotPaymentDetails(booking *models.Booking) models.PaymentDetails {
	details := models.PaymentDetails{
		Trips:        make([]models.PaymentTripSnapshot, 0, len(booking.Items)),
		TotalPrice:   booking.TotalPrice,
		TotalTickets: booking.TotalTickets,
	}
	for _, item := range booking.Items {
		seats := make([]string, 0, len(item.Tickets))
		for _, t := range item.Tickets {
			seats = append(seats, t.SeatID)
		}
		details.Trips = append(details.Trips, models.PaymentTripSnapshot{
			TripID:    item.TripID,
			RouteName: item.RouteName,
			TripDate:  item.TripDate,
			TripTime:  item.TripTime,
			Seats:     seats,
			Labels:    append([]string(nil), seats...),
		})
	}
	return details
}
