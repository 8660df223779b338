package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"busledger/internal/config"
	"busledger/internal/domain"
	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/internal/utils"
	"busledger/internal/validators"
	"busledger/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingService is the booking ledger engine. Every mutation runs as one
// atomic unit covering the booking, its payment records and its history.
type BookingService interface {
	CreateBooking(ctx context.Context, req *validators.CreateBookingRequest) (*models.BookingWithPayment, error)
	GetBooking(ctx context.Context, id primitive.ObjectID) (*models.BookingWithPayment, error)
	ListBookings(ctx context.Context, filter *models.BookingFilter) ([]*models.BookingWithPayment, int64, error)
	UpdateBooking(ctx context.Context, id primitive.ObjectID, req *validators.UpdateBookingRequest) (*models.BookingWithPayment, error)
	UpdatePassenger(ctx context.Context, id primitive.ObjectID, patch *validators.PassengerPatch) (*models.BookingWithPayment, error)
	UpdateTicket(ctx context.Context, id primitive.ObjectID, seatID string, patch *validators.TicketPatch) (*models.BookingWithPayment, error)
	CancelBooking(ctx context.Context, id primitive.ObjectID) (*models.BookingWithPayment, error)
	DeleteBooking(ctx context.Context, id primitive.ObjectID) error

	SwapBookings(ctx context.Context, req *validators.SwapSeatsRequest) error
	TransferSeat(ctx context.Context, id primitive.ObjectID, req *validators.TransferSeatRequest) (*models.BookingWithPayment, error)

	UpdateBookingPayment(ctx context.Context, req *validators.BatchPaymentRequest) ([]*models.BookingWithPayment, error)
	PaySeats(ctx context.Context, id primitive.ObjectID, req *validators.SeatSettlementRequest) (*models.BookingWithPayment, error)
	RefundSeats(ctx context.Context, id primitive.ObjectID, req *validators.SeatSettlementRequest) (*models.BookingWithPayment, error)

	GetSeatOccupancy(ctx context.Context, tripID primitive.ObjectID) (*models.SeatOccupancy, error)
	GetHistory(ctx context.Context, id primitive.ObjectID) ([]*models.HistoryRecord, error)
	GetPayments(ctx context.Context, id primitive.ObjectID) ([]*models.PaymentRecord, error)
}

// SeatEventPublisher receives seat-map changes after a unit commits.
type SeatEventPublisher interface {
	PublishSeatChange(event models.SeatChangeEvent)
}

type bookingService struct {
	tx          interfaces.Transactor
	bookingRepo interfaces.BookingRepository
	tripRepo    interfaces.TripRepository
	ledger      PaymentLedgerService
	audit       AuditService
	status      BookingStatusService
	publisher   SeatEventPublisher
	config      *config.BookingConfig
	logger      *logger.Logger
}

func NewBookingService(
	tx interfaces.Transactor,
	bookingRepo interfaces.BookingRepository,
	tripRepo interfaces.TripRepository,
	ledger PaymentLedgerService,
	audit AuditService,
	status BookingStatusService,
	publisher SeatEventPublisher,
	cfg *config.BookingConfig,
	log *logger.Logger,
) BookingService {
	if cfg == nil {
		cfg = &config.BookingConfig{}
	}
	return &bookingService{
		tx:          tx,
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		ledger:      ledger,
		audit:       audit,
		status:      status,
		publisher:   publisher,
		config:      cfg,
		logger:      log,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *validators.CreateBookingRequest) (*models.BookingWithPayment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	mode := req.Status
	if mode == "" {
		mode = models.TicketStatusBooking
	}
	passenger := req.Passenger.ToModel()

	var created *models.Booking
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		items, err := s.buildItems(ctx, req.Items, passenger, mode)
		if err != nil {
			return err
		}
		if err := s.ensureSeatsFree(ctx, items, primitive.NilObjectID); err != nil {
			return err
		}

		booking := &models.Booking{Passenger: passenger, Items: items}
		booking.Recalculate()
		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			return err
		}

		s.audit.Record(ctx, booking.ID, models.HistoryActionCreate,
			fmt.Sprintf("Created booking: %s. Total %s", describeItems(booking.Items), utils.FormatVND(booking.TotalPrice)),
			map[string]interface{}{
				"status":        string(mode),
				"trips":         itemDetails(booking.Items),
				"total_price":   booking.TotalPrice,
				"total_tickets": booking.TotalTickets,
			})

		if mode != models.TicketStatusHold && req.Payment != nil {
			if _, err := s.ledger.ProcessPaymentUpdate(ctx, booking, req.Payment.State(), req.Payment.Note); err != nil {
				return err
			}
		}

		created = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogBookingEvent(created.ID, "created", map[string]interface{}{
		"total_tickets": created.TotalTickets,
		"total_price":   created.TotalPrice,
	})
	s.publish(models.HistoryActionCreate, created.TripIDs(), created.ID)

	return s.GetBooking(ctx, created.ID)
}

func (s *bookingService) GetBooking(ctx context.Context, id primitive.ObjectID) (*models.BookingWithPayment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.status.Attach(ctx, []*models.Booking{booking})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *bookingService) ListBookings(ctx context.Context, filter *models.BookingFilter) ([]*models.BookingWithPayment, int64, error) {
	return s.status.ListBookingsWithPayment(ctx, filter)
}

func (s *bookingService) UpdateBooking(ctx context.Context, id primitive.ObjectID, req *validators.UpdateBookingRequest) (*models.BookingWithPayment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Items == nil && req.Passenger.IsEmpty() && req.Payment == nil {
		return nil, domain.ValidationError{Field: "request", Msg: "nothing to update"}
	}

	mode := req.Status
	if mode == "" {
		mode = models.TicketStatusBooking
	}

	var affected []primitive.ObjectID
	var action models.HistoryAction
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		before := booking.TripIDs()

		if req.Items != nil {
			passenger := booking.Passenger
			req.Passenger.Apply(&passenger)

			var items []models.BookingItem
			if len(req.Items) > 0 {
				items, err = s.buildItems(ctx, req.Items, passenger, mode)
				if err != nil {
					return err
				}
				if err := s.ensureSeatsFree(ctx, items, booking.ID); err != nil {
					return err
				}
			}
			booking.Items = items
		}
		req.Passenger.Apply(&booking.Passenger)
		booking.Recalculate()

		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return err
		}

		action = models.HistoryActionUpdate
		description := fmt.Sprintf("Updated booking: %s. Total %s", describeItems(booking.Items), utils.FormatVND(booking.TotalPrice))
		if booking.TotalTickets == 0 {
			action = models.HistoryActionCancel
			description = "Cancelled booking: all tickets removed"
		}
		s.audit.Record(ctx, booking.ID, action, description, map[string]interface{}{
			"trips":         itemDetails(booking.Items),
			"total_price":   booking.TotalPrice,
			"total_tickets": booking.TotalTickets,
		})

		if req.Payment != nil {
			if _, err := s.ledger.ProcessPaymentUpdate(ctx, booking, req.Payment.State(), req.Payment.Note); err != nil {
				return err
			}
		}

		affected = mergeIDs(before, booking.TripIDs())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(action, affected, id)
	return s.GetBooking(ctx, id)
}

func (s *bookingService) UpdatePassenger(ctx context.Context, id primitive.ObjectID, patch *validators.PassengerPatch) (*models.BookingWithPayment, error) {
	if err := validateRequest(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, domain.ValidationError{Field: "passenger", Msg: "no fields to update"}
	}

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		before := booking.Passenger
		patch.Apply(&booking.Passenger)
		booking.Recalculate()
		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return err
		}

		s.audit.Record(ctx, booking.ID, models.HistoryActionPassengerUpdate,
			fmt.Sprintf("Updated passenger %s (%s)", booking.Passenger.Name, booking.Passenger.Phone),
			map[string]interface{}{
				"before": before,
				"after":  booking.Passenger,
			})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetBooking(ctx, id)
}

func (s *bookingService) UpdateTicket(ctx context.Context, id primitive.ObjectID, seatID string, patch *validators.TicketPatch) (*models.BookingWithPayment, error) {
	if err := validateRequest(patch); err != nil {
		return nil, err
	}

	var tripID primitive.ObjectID
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		var i, j int
		if patch.TripID != nil {
			i, j = booking.FindTicket(*patch.TripID, seatID)
		} else {
			i, j = booking.FindTicketAnyTrip(seatID)
		}
		if i < 0 || j < 0 {
			return domain.NotFoundError{Resource: "ticket", ID: seatID}
		}

		ticket := &booking.Items[i].Tickets[j]
		before := *ticket
		changed := patch.Apply(ticket)
		if len(changed) == 0 {
			return domain.ValidationError{Field: "ticket", Msg: "no fields to update"}
		}
		booking.Recalculate()

		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return err
		}

		tripID = booking.Items[i].TripID
		s.audit.Record(ctx, booking.ID, models.HistoryActionUpdate,
			fmt.Sprintf("Updated ticket %s on %s: %s", seatID, booking.Items[i].RouteName, strings.Join(changed, ", ")),
			map[string]interface{}{
				"trip_id": tripID.Hex(),
				"seat_id": seatID,
				"fields":  changed,
				"before":  before,
				"after":   *ticket,
			})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.HistoryActionUpdate, []primitive.ObjectID{tripID}, id)
	return s.GetBooking(ctx, id)
}

func (s *bookingService) CancelBooking(ctx context.Context, id primitive.ObjectID) (*models.BookingWithPayment, error) {
	var released []primitive.ObjectID
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if booking.TotalTickets == 0 {
			released = nil
			return nil
		}

		released = booking.TripIDs()
		details := map[string]interface{}{
			"trips":         itemDetails(booking.Items),
			"total_price":   booking.TotalPrice,
			"total_tickets": booking.TotalTickets,
		}
		description := fmt.Sprintf("Cancelled booking: %s", describeItems(booking.Items))

		booking.Items = nil
		booking.Recalculate()
		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return err
		}

		s.audit.Record(ctx, booking.ID, models.HistoryActionCancel, description, details)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(models.HistoryActionCancel, released, id)
	return s.GetBooking(ctx, id)
}

func (s *bookingService) DeleteBooking(ctx context.Context, id primitive.ObjectID) error {
	var released []primitive.ObjectID
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		released = booking.TripIDs()

		// The trail must outlive the document.
		s.audit.Record(ctx, booking.ID, models.HistoryActionDelete,
			fmt.Sprintf("Deleted booking of %s (%s): %s", booking.Passenger.Name, booking.Passenger.Phone, describeItems(booking.Items)),
			map[string]interface{}{
				"passenger":     booking.Passenger,
				"trips":         itemDetails(booking.Items),
				"total_price":   booking.TotalPrice,
				"total_tickets": booking.TotalTickets,
			})

		return s.bookingRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.WithContext(ctx).LogBookingEvent(id, "deleted", nil)
	s.publish(models.HistoryActionDelete, released, id)
	return nil
}

func (s *bookingService) GetSeatOccupancy(ctx context.Context, tripID primitive.ObjectID) (*models.SeatOccupancy, error) {
	if _, err := s.tripRepo.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.status.SeatOccupancy(ctx, tripID)
}

func (s *bookingService) GetHistory(ctx context.Context, id primitive.ObjectID) ([]*models.HistoryRecord, error) {
	return s.audit.History(ctx, id)
}

func (s *bookingService) GetPayments(ctx context.Context, id primitive.ObjectID) ([]*models.PaymentRecord, error) {
	return s.ledger.Records(ctx, id)
}

// buildItems resolves each requested trip and turns the seat selection
// into tickets.
func (s *bookingService) buildItems(ctx context.Context, reqItems []validators.BookingItemRequest, passenger models.Passenger, mode models.TicketStatus) ([]models.BookingItem, error) {
	items := make([]models.BookingItem, 0, len(reqItems))
	seenTrips := make(map[primitive.ObjectID]bool, len(reqItems))

	for idx, reqItem := range reqItems {
		field := fmt.Sprintf("items[%d]", idx)
		if seenTrips[reqItem.TripID] {
			return nil, domain.ValidationError{Field: field, Msg: fmt.Sprintf("trip %s appears more than once", reqItem.TripID.Hex())}
		}
		seenTrips[reqItem.TripID] = true

		if mode == models.TicketStatusPayment {
			if len(reqItem.Tickets) == 0 {
				return nil, domain.ValidationError{Field: field + ".tickets", Msg: "payment status requires explicit priced tickets"}
			}
			for _, t := range reqItem.Tickets {
				if t.Price == nil {
					return nil, domain.ValidationError{Field: field + ".tickets", Msg: fmt.Sprintf("ticket %s has no price", t.SeatID)}
				}
			}
		}

		item, err := s.itemTemplate(ctx, reqItem.TripID)
		if err != nil {
			return nil, err
		}

		switch {
		case len(reqItem.Tickets) > 0:
			for _, t := range reqItem.Tickets {
				var price int64
				if t.Price != nil {
					price = *t.Price
				}
				status := t.Status
				if status == "" {
					status = mode
				}
				item.Tickets = append(item.Tickets, models.Ticket{
					SeatID:       t.SeatID,
					Price:        price,
					Status:       status,
					PickupPoint:  validators.SanitizeInput(t.PickupPoint),
					DropoffPoint: validators.SanitizeInput(t.DropoffPoint),
					Note:         validators.SanitizeInput(t.Note),
					Name:         utils.CoalesceString(validators.SanitizeInput(t.Name), passenger.Name),
					Phone:        utils.CoalesceString(t.Phone, passenger.Phone),
				})
			}
		case len(reqItem.SeatIDs) > 0:
			for _, seatID := range reqItem.SeatIDs {
				item.Tickets = append(item.Tickets, models.Ticket{
					SeatID: seatID,
					Status: mode,
					Name:   passenger.Name,
					Phone:  passenger.Phone,
				})
			}
		default:
			return nil, domain.ValidationError{Field: field, Msg: "no seats selected"}
		}

		seen := make(map[string]bool, len(item.Tickets))
		for _, t := range item.Tickets {
			if seen[t.SeatID] {
				return nil, domain.ValidationError{Field: field, Msg: fmt.Sprintf("seat %s selected twice", t.SeatID)}
			}
			seen[t.SeatID] = true
		}

		items = append(items, item)
	}
	return items, nil
}

// itemTemplate builds an empty item for tripID with the trip and route
// details copied in for display.
func (s *bookingService) itemTemplate(ctx context.Context, tripID primitive.ObjectID) (models.BookingItem, error) {
	trip, err := s.tripRepo.GetTrip(ctx, tripID)
	if err != nil {
		return models.BookingItem{}, err
	}
	route, err := s.tripRepo.GetRoute(ctx, trip.RouteID)
	if err != nil {
		return models.BookingItem{}, err
	}

	return models.BookingItem{
		TripID:     trip.ID,
		TripDate:   trip.DepartureDate,
		TripTime:   trip.DepartureTime,
		RouteName:  route.Name,
		BusType:    trip.BusType,
		IsEnhanced: route.IsEnhanced || trip.IsEnhanced || utils.ContainsFold(route.Name, s.config.EnhancedKeywords),
	}, nil
}

// ensureSeatsFree rejects items whose seats are held by a booking other
// than self. The unique seat index backs this check under races.
func (s *bookingService) ensureSeatsFree(ctx context.Context, items []models.BookingItem, self primitive.ObjectID) error {
	for _, item := range items {
		for _, t := range item.Tickets {
			owner, err := s.bookingRepo.FindBySeat(ctx, item.TripID, t.SeatID)
			if err != nil {
				return err
			}
			if owner != nil && owner.ID != self {
				return domain.ConflictError{
					Resource: "seat",
					Msg:      fmt.Sprintf("seat %s on %s %s %s is held by booking %s", t.SeatID, item.RouteName, item.TripDate, item.TripTime, owner.ID.Hex()),
				}
			}
		}
	}
	return nil
}

func (s *bookingService) publish(action models.HistoryAction, tripIDs []primitive.ObjectID, bookingIDs ...primitive.ObjectID) {
	if s.publisher == nil {
		return
	}
	now := time.Now()
	for _, tripID := range tripIDs {
		s.publisher.PublishSeatChange(models.SeatChangeEvent{
			TripID:     tripID,
			Action:     action,
			BookingIDs: bookingIDs,
			OccurredAt: now,
		})
	}
}

func validateRequest(req interface{}) error {
	if isNilRequest(req) {
		return domain.ValidationError{Field: "request", Msg: "request body is required"}
	}
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return domain.ValidationError{Field: errs[0].Field, Msg: errs[0].Message, Err: errs}
	}
	return nil
}

func isNilRequest(req interface{}) bool {
	if req == nil {
		return true
	}
	v := reflect.ValueOf(req)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func describeItems(items []models.BookingItem) string {
	if len(items) == 0 {
		return "no tickets"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		seats := make([]string, 0, len(item.Tickets))
		for _, t := range item.Tickets {
			seats = append(seats, t.SeatID)
		}
		parts = append(parts, fmt.Sprintf("%s %s %s [%s]", item.RouteName, item.TripDate, item.TripTime, strings.Join(seats, ", ")))
	}
	return strings.Join(parts, "; ")
}

func itemDetails(items []models.BookingItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		seats := make([]string, 0, len(item.Tickets))
		for _, t := range item.Tickets {
			seats = append(seats, t.SeatID)
		}
		out = append(out, map[string]interface{}{
			"trip_id":    item.TripID.Hex(),
			"route_name": item.RouteName,
			"trip_date":  item.TripDate,
			"trip_time":  item.TripTime,
			"seats":      seats,
			"price":      item.Price,
		})
	}
	return out
}

func mergeIDs(lists ...[]primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	for _, list := range lists {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
