package services

import (
	"context"
	"fmt"
	"sort"

	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatusService projects bookings into their read-side view. Paid
// totals, status and seat occupancy are recomputed on every call.
type BookingStatusService interface {
	Attach(ctx context.Context, bookings []*models.Booking) ([]*models.BookingWithPayment, error)
	ListBookingsWithPayment(ctx context.Context, filter *models.BookingFilter) ([]*models.BookingWithPayment, int64, error)
	SeatOccupancy(ctx context.Context, tripID primitive.ObjectID) (*models.SeatOccupancy, error)
}

type bookingStatusService struct {
	bookingRepo interfaces.BookingRepository
	paymentRepo interfaces.PaymentRepository
}

func NewBookingStatusService(bookingRepo interfaces.BookingRepository, paymentRepo interfaces.PaymentRepository) BookingStatusService {
	return &bookingStatusService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
	}
}

func (s *bookingStatusService) Attach(ctx context.Context, bookings []*models.Booking) ([]*models.BookingWithPayment, error) {
	if len(bookings) == 0 {
		return []*models.BookingWithPayment{}, nil
	}

	ids := make([]primitive.ObjectID, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	sums, err := s.paymentRepo.SumByBookings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	views := make([]*models.BookingWithPayment, len(bookings))
	for i, b := range bookings {
		paid := sums[b.ID]
		views[i] = &models.BookingWithPayment{
			Booking: *b,
			Payment: models.PaymentSummary{
				Cash:     paid.Cash,
				Transfer: paid.Transfer,
				Total:    paid.Total(),
			},
			Status: models.DeriveStatus(b, paid.Total()),
		}
	}
	return views, nil
}

func (s *bookingStatusService) ListBookingsWithPayment(ctx context.Context, filter *models.BookingFilter) ([]*models.BookingWithPayment, int64, error) {
	if filter == nil {
		filter = &models.BookingFilter{}
	}

	if filter.Status == "" {
		bookings, err := s.bookingRepo.List(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.bookingRepo.Count(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		views, err := s.Attach(ctx, bookings)
		return views, total, err
	}

	// Status is derived, so it can only be filtered after projection.
	unpaged := *filter
	unpaged.Limit, unpaged.Offset = 0, 0
	bookings, err := s.bookingRepo.List(ctx, &unpaged)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.Attach(ctx, bookings)
	if err != nil {
		return nil, 0, err
	}

	matched := views[:0]
	for _, v := range views {
		if v.Status == filter.Status {
			matched = append(matched, v)
		}
	}
	total := int64(len(matched))

	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []*models.BookingWithPayment{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && int64(len(matched)) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *bookingStatusService) SeatOccupancy(ctx context.Context, tripID primitive.ObjectID) (*models.SeatOccupancy, error) {
	bookings, err := s.bookingRepo.FindByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	occupancy := &models.SeatOccupancy{TripID: tripID, Seats: []models.OccupiedSeat{}}
	for _, b := range bookings {
		i := b.ItemIndex(tripID)
		if i < 0 {
			continue
		}
		for _, t := range b.Items[i].Tickets {
			occupancy.Seats = append(occupancy.Seats, models.OccupiedSeat{
				SeatID:    t.SeatID,
				Label:     t.SeatID,
				BookingID: b.ID,
				Status:    t.Status,
				Name:      utils.CoalesceString(t.Name, b.Passenger.Name),
				Phone:     utils.CoalesceString(t.Phone, b.Passenger.Phone),
			})
		}
	}
	sort.Slice(occupancy.Seats, func(i, j int) bool {
		return occupancy.Seats[i].SeatID < occupancy.Seats[j].SeatID
	})
	return occupancy, nil
}
