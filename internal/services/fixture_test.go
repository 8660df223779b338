package services

import (
	"context"
	"sync"
	"testing"

	"busledger/internal/config"
	"busledger/internal/models"
	"busledger/internal/repositories/interfaces"
	"busledger/internal/repositories/memory"
	"busledger/internal/validators"
	"busledger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SeatChangeEvent
}

func (p *recordingPublisher) PublishSeatChange(event models.SeatChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type engineFixture struct {
	ctx       context.Context
	store     *memory.Store
	bookings  interfaces.BookingRepository
	payments  interfaces.PaymentRepository
	histories interfaces.HistoryRepository
	ledger    PaymentLedgerService
	svc       BookingService
	events    *recordingPublisher

	sleeperA *models.Trip
	sleeperB *models.Trip
	cabin    *models.Trip
	extra    *models.Trip
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	store := memory.NewStore()
	f := &engineFixture{
		ctx:       context.Background(),
		store:     store,
		bookings:  memory.NewBookingRepository(store),
		payments:  memory.NewPaymentRepository(store),
		histories: memory.NewHistoryRepository(store),
		events:    &recordingPublisher{},
	}

	f.sleeperA = &models.Trip{DepartureDate: "2026-10-20", DepartureTime: "08:00", BusType: models.BusTypeSleeper}
	f.sleeperB = &models.Trip{DepartureDate: "2026-10-20", DepartureTime: "20:00"}
	f.cabin = &models.Trip{DepartureDate: "2026-10-21", DepartureTime: "08:00", BusType: models.BusTypeCabin}
	f.extra = &models.Trip{DepartureDate: "2026-10-22", DepartureTime: "06:30", BusType: models.BusTypeSleeper}
	store.AddTrip(f.sleeperA, &models.Route{Name: "Hà Nội - Sapa"})
	store.AddTrip(f.sleeperB, &models.Route{Name: "Sapa - Hà Nội"})
	store.AddTrip(f.cabin, &models.Route{Name: "Hà Nội - Hạ Long"})
	store.AddTrip(f.extra, &models.Route{Name: "Hà Nội - Sapa (Tăng cường)"})

	log := logger.NewNop()
	tripRepo := memory.NewTripRepository(store)
	f.ledger = NewPaymentLedgerService(f.payments, log)
	audit := NewAuditService(f.histories, log)
	status := NewBookingStatusService(f.bookings, f.payments)
	cfg := &config.BookingConfig{
		StorageDriver:    config.StorageDriverMemory,
		EnhancedKeywords: []string{"tăng cường", "tang cuong"},
	}
	f.svc = NewBookingService(store, f.bookings, tripRepo, f.ledger, audit, status, f.events, cfg, log)
	return f
}

func (f *engineFixture) book(t *testing.T, trip *models.Trip, seats ...string) *models.BookingWithPayment {
	t.Helper()
	view, err := f.svc.CreateBooking(f.ctx, &validators.CreateBookingRequest{
		Passenger: validators.PassengerRequest{Name: "Nguyen Van A", Phone: "0912345678"},
		Items:     []validators.BookingItemRequest{{TripID: trip.ID, SeatIDs: seats}},
	})
	require.NoError(t, err)
	return view
}

func (f *engineFixture) history(t *testing.T, id primitive.ObjectID) []*models.HistoryRecord {
	t.Helper()
	records, err := f.svc.GetHistory(f.ctx, id)
	require.NoError(t, err)
	return records
}

func (f *engineFixture) owner(t *testing.T, trip *models.Trip, seatID string) *models.Booking {
	t.Helper()
	b, err := f.bookings.FindBySeat(f.ctx, trip.ID, seatID)
	require.NoError(t, err)
	return b
}

// assertInvariants checks totals of every booking and that no seat is
// held twice on any trip.
func (f *engineFixture) assertInvariants(t *testing.T) {
	t.Helper()
	all, err := f.bookings.List(f.ctx, nil)
	require.NoError(t, err)

	held := map[string]primitive.ObjectID{}
	for _, b := range all {
		var price int64
		count := 0
		for _, item := range b.Items {
			assert.NotEmpty(t, item.Tickets, "empty item left on booking %s", b.ID.Hex())
			var itemPrice int64
			for _, tk := range item.Tickets {
				itemPrice += tk.Price
				key := models.SeatKey(item.TripID, tk.SeatID)
				if other, ok := held[key]; ok {
					t.Errorf("seat %s held by %s and %s", key, other.Hex(), b.ID.Hex())
				}
				held[key] = b.ID
			}
			assert.Equal(t, itemPrice, item.Price)
			price += itemPrice
			count += len(item.Tickets)
		}
		assert.Equal(t, price, b.TotalPrice, "total price of %s", b.ID.Hex())
		assert.Equal(t, count, b.TotalTickets, "ticket count of %s", b.ID.Hex())
	}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
