package services

import (
	"context"
	"fmt"

	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/utils"
	"busledger/internal/validators"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpdateBookingPayment moves every listed booking to the same cumulative
// paid target in one unit. A missing booking aborts the whole batch.
func (s *bookingService) UpdateBookingPayment(ctx context.Context, req *validators.BatchPaymentRequest) ([]*models.BookingWithPayment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ids := mergeIDs(req.BookingIDs)
	target := req.Payment.State()

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			booking, err := s.bookingRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}

			record, err := s.ledger.ProcessPaymentUpdate(ctx, booking, target, req.Payment.Note)
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}

			s.audit.Record(ctx, booking.ID, models.HistoryActionUpdate,
				fmt.Sprintf("Payment updated to cash %s, transfer %s (%s %s)",
					utils.FormatVND(target.Cash), utils.FormatVND(target.Transfer), record.Type, record.Method),
				map[string]interface{}{
					"payment_id":      record.ID.Hex(),
					"cash_delta":      record.CashAmount,
					"transfer_delta":  record.TransferAmount,
					"target_cash":     target.Cash,
					"target_transfer": target.Transfer,
				})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, &models.BookingFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	return s.status.Attach(ctx, bookings)
}

// PaySeats takes payment for individual seats and marks them paid.
func (s *bookingService) PaySeats(ctx context.Context, id primitive.ObjectID, req *validators.SeatSettlementRequest) (*models.BookingWithPayment, error) {
	return s.settleSeats(ctx, id, req, true)
}

// RefundSeats returns money for individual seats and marks them unpaid.
func (s *bookingService) RefundSeats(ctx context.Context, id primitive.ObjectID, req *validators.SeatSettlementRequest) (*models.BookingWithPayment, error) {
	return s.settleSeats(ctx, id, req, false)
}

func (s *bookingService) settleSeats(ctx context.Context, id primitive.ObjectID, req *validators.SeatSettlementRequest, pay bool) (*models.BookingWithPayment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	action := models.HistoryActionPaySeat
	status := models.TicketStatusPayment
	delta := models.PaymentState{Cash: req.Cash, Transfer: req.Transfer}
	verb := "Paid"
	if !pay {
		action = models.HistoryActionRefundSeat
		status = models.TicketStatusBooking
		delta = models.PaymentState{Cash: -req.Cash, Transfer: -req.Transfer}
		verb = "Refunded"
	}

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		for _, seatID := range req.SeatIDs {
			i, j := booking.FindTicket(req.TripID, seatID)
			if j < 0 {
				return domain.NotFoundError{Resource: "ticket", ID: seatID}
			}
			booking.Items[i].Tickets[j].Status = status
		}

		if !pay {
			paid, err := s.ledger.Totals(ctx, booking.ID)
			if err != nil {
				return err
			}
			if req.Cash > paid.Cash || req.Transfer > paid.Transfer {
				return domain.ValidationError{
					Field: "amount",
					Msg:   fmt.Sprintf("refund exceeds paid amount (cash %s, transfer %s)", utils.FormatVND(paid.Cash), utils.FormatVND(paid.Transfer)),
				}
			}
		}

		booking.Recalculate()
		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return err
		}

		record, err := s.ledger.RecordDelta(ctx, booking, delta, req.Note)
		if err != nil {
			return err
		}

		details := map[string]interface{}{
			"trip_id":        req.TripID.Hex(),
			"seats":          req.SeatIDs,
			"cash_delta":     delta.Cash,
			"transfer_delta": delta.Transfer,
		}
		if record != nil {
			details["payment_id"] = record.ID.Hex()
		}
		s.audit.Record(ctx, booking.ID, action,
			fmt.Sprintf("%s seat(s) %v: cash %s, transfer %s", verb, req.SeatIDs, utils.FormatVND(req.Cash), utils.FormatVND(req.Transfer)),
			details)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(action, []primitive.ObjectID{req.TripID}, id)
	return s.GetBooking(ctx, id)
}
