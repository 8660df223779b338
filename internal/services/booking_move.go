package services

import (
	"context"
	"fmt"

	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/validators"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seatRef is one seat on one trip.
type seatRef struct {
	tripID primitive.ObjectID
	seatID string
}

func (r seatRef) details() map[string]interface{} {
	return map[string]interface{}{"trip_id": r.tripID.Hex(), "seat_id": r.seatID}
}

// SwapBookings exchanges the tickets at two seats. Either seat may be
// empty, and both may belong to the same booking.
func (s *bookingService) SwapBookings(ctx context.Context, req *validators.SwapSeatsRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	a := seatRef{tripID: req.TripID1, seatID: req.SeatID1}
	b := seatRef{tripID: req.TripID2, seatID: req.SeatID2}
	if a == b {
		return domain.ValidationError{Field: "seat_id_2", Msg: "cannot swap a seat with itself"}
	}

	var touched []primitive.ObjectID
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		trip1, err := s.tripRepo.GetTrip(ctx, a.tripID)
		if err != nil {
			return err
		}
		trip2, err := s.tripRepo.GetTrip(ctx, b.tripID)
		if err != nil {
			return err
		}
		if !models.SameBusClass(trip1, trip2) {
			return domain.ValidationError{
				Field: "bus_type",
				Msg:   fmt.Sprintf("cannot swap seats between a %s trip and a %s trip", trip1.BusClass(), trip2.BusClass()),
			}
		}

		template1, err := s.itemTemplate(ctx, a.tripID)
		if err != nil {
			return err
		}
		template2, err := s.itemTemplate(ctx, b.tripID)
		if err != nil {
			return err
		}

		owner1, err := s.bookingRepo.FindBySeat(ctx, a.tripID, a.seatID)
		if err != nil {
			return err
		}
		owner2, err := s.bookingRepo.FindBySeat(ctx, b.tripID, b.seatID)
		if err != nil {
			return err
		}
		if owner1 == nil && owner2 == nil {
			return domain.ValidationError{Field: "seats", Msg: "nothing to swap: both seats are empty"}
		}

		touched = nil
		if owner1 != nil && owner2 != nil && owner1.ID == owner2.ID {
			t1, _ := owner1.RemoveTicket(a.tripID, a.seatID)
			t2, _ := owner1.RemoveTicket(b.tripID, b.seatID)
			t1.SeatID = b.seatID
			t2.SeatID = a.seatID
			owner1.AddTicket(template2, t1)
			owner1.AddTicket(template1, t2)
			owner1.Recalculate()
			if err := s.bookingRepo.Save(ctx, owner1); err != nil {
				return err
			}
			s.recordSwap(ctx, owner1, a, b)
			touched = append(touched, owner1.ID)
			return nil
		}

		var t1, t2 models.Ticket
		if owner1 != nil {
			t1, _ = owner1.RemoveTicket(a.tripID, a.seatID)
			t1.SeatID = b.seatID
		}
		if owner2 != nil {
			t2, _ = owner2.RemoveTicket(b.tripID, b.seatID)
			t2.SeatID = a.seatID
		}

		// Release both seats before claiming so the unique seat index
		// never sees the same seat in two documents.
		if owner1 != nil && owner2 != nil {
			for _, owner := range []*models.Booking{owner1, owner2} {
				owner.Recalculate()
				if err := s.bookingRepo.Save(ctx, owner); err != nil {
					return err
				}
			}
		}

		if owner1 != nil {
			owner1.AddTicket(template2, t1)
			owner1.Recalculate()
			if err := s.bookingRepo.Save(ctx, owner1); err != nil {
				return err
			}
			s.recordSwap(ctx, owner1, a, b)
			touched = append(touched, owner1.ID)
		}
		if owner2 != nil {
			owner2.AddTicket(template1, t2)
			owner2.Recalculate()
			if err := s.bookingRepo.Save(ctx, owner2); err != nil {
				return err
			}
			s.recordSwap(ctx, owner2, b, a)
			touched = append(touched, owner2.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(models.HistoryActionSwap, mergeIDs([]primitive.ObjectID{a.tripID, b.tripID}), touched...)
	return nil
}

func (s *bookingService) recordSwap(ctx context.Context, booking *models.Booking, from, to seatRef) {
	s.audit.Record(ctx, booking.ID, models.HistoryActionSwap,
		fmt.Sprintf("Swapped seat %s with seat %s", from.seatID, to.seatID),
		map[string]interface{}{
			"from":          from.details(),
			"to":            to.details(),
			"total_price":   booking.TotalPrice,
			"total_tickets": booking.TotalTickets,
		})
}

// TransferSeat moves tickets of one booking from one trip to another,
// seat to seat. Destination seats may be ones this transfer vacates.
func (s *bookingService) TransferSeat(ctx context.Context, id primitive.ObjectID, req *validators.TransferSeatRequest) (*models.BookingWithPayment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	fromSeats := make(map[string]bool, len(req.Seats))
	toSeats := make(map[string]bool, len(req.Seats))
	for _, move := range req.Seats {
		if fromSeats[move.FromSeatID] {
			return nil, domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("seat %s is transferred twice", move.FromSeatID)}
		}
		if toSeats[move.ToSeatID] {
			return nil, domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("seat %s is targeted twice", move.ToSeatID)}
		}
		fromSeats[move.FromSeatID] = true
		toSeats[move.ToSeatID] = true
	}

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.tripRepo.GetTrip(ctx, req.FromTripID); err != nil {
			return err
		}
		destination, err := s.itemTemplate(ctx, req.ToTripID)
		if err != nil {
			return err
		}

		for _, move := range req.Seats {
			if _, j := booking.FindTicket(req.FromTripID, move.FromSeatID); j < 0 {
				return domain.NotFoundError{Resource: "ticket", ID: move.FromSeatID}
			}
		}

		for _, move := range req.Seats {
			vacated := req.FromTripID == req.ToTripID && fromSeats[move.ToSeatID]
			if vacated {
				continue
			}
			owner, err := s.bookingRepo.FindBySeat(ctx, req.ToTripID, move.ToSeatID)
			if err != nil {
				return err
			}
			if owner != nil {
				return domain.ConflictError{
					Resource: "seat",
					Msg:      fmt.Sprintf("seat %s on %s %s %s is held by booking %s", move.ToSeatID, destination.RouteName, destination.TripDate, destination.TripTime, owner.ID.Hex()),
				}
			}
		}

		moved := make([]models.Ticket, 0, len(req.Seats))
		for _, move := range req.Seats {
			t, _ := booking.RemoveTicket(req.FromTripID, move.FromSeatID)
			t.SeatID = move.ToSeatID
			moved = append(moved, t)
		}
		for _, t := range moved {
			booking.AddTicket(destination, t)
		}
		booking.Recalculate()

		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return err
		}

		pairs := make([]map[string]interface{}, 0, len(req.Seats))
		for _, move := range req.Seats {
			pairs = append(pairs, map[string]interface{}{"from": move.FromSeatID, "to": move.ToSeatID})
		}
		s.audit.Record(ctx, booking.ID, models.HistoryActionTransfer,
			fmt.Sprintf("Transferred %d seat(s) to %s %s %s", len(req.Seats), destination.RouteName, destination.TripDate, destination.TripTime),
			map[string]interface{}{
				"from_trip_id": req.FromTripID.Hex(),
				"to_trip_id":   req.ToTripID.Hex(),
				"seats":        pairs,
				"total_price":  booking.TotalPrice,
			})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.HistoryActionTransfer, mergeIDs([]primitive.ObjectID{req.FromTripID, req.ToTripID}), id)
	return s.GetBooking(ctx, id)
}
