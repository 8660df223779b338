package memory

import (
	"context"
	"errors"
	"testing"

	"busledger/internal/domain"
	"busledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBooking(tripID primitive.ObjectID, seats ...string) *models.Booking {
	b := &models.Booking{Items: []models.BookingItem{{TripID: tripID}}}
	for _, s := range seats {
		b.Items[0].Tickets = append(b.Items[0].Tickets, models.Ticket{SeatID: s, Price: 1000})
	}
	b.Recalculate()
	return b
}

func TestRunAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	bookings := NewBookingRepository(store)
	payments := NewPaymentRepository(store)
	trip := primitive.NewObjectID()

	kept := newBooking(trip, "A01")
	require.NoError(t, bookings.Create(ctx, kept))

	boom := errors.New("boom")
	err := store.RunAtomic(ctx, func(ctx context.Context) error {
		if err := bookings.Create(ctx, newBooking(trip, "A02")); err != nil {
			return err
		}
		if err := payments.Create(ctx, &models.PaymentRecord{BookingID: kept.ID, CashAmount: 10}); err != nil {
			return err
		}
		kept.Items = nil
		kept.Recalculate()
		if err := bookings.Save(ctx, kept); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := bookings.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].TotalTickets)

	sum, err := payments.SumByBooking(ctx, kept.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestRunAtomicHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewStore().RunAtomic(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBookingRepositoryRejectsDuplicateSeat(t *testing.T) {
	ctx := context.Background()
	bookings := NewBookingRepository(NewStore())
	trip := primitive.NewObjectID()

	first := newBooking(trip, "A01", "A02")
	require.NoError(t, bookings.Create(ctx, first))

	err := bookings.Create(ctx, newBooking(trip, "A02"))
	assert.True(t, domain.IsConflict(err))

	// Re-saving the owner with the same seats is fine.
	require.NoError(t, bookings.Save(ctx, first))

	other := newBooking(primitive.NewObjectID(), "A02")
	require.NoError(t, bookings.Create(ctx, other))

	owner, err := bookings.FindBySeat(ctx, trip, "A02")
	require.NoError(t, err)
	assert.Equal(t, first.ID, owner.ID)

	free, err := bookings.FindBySeat(ctx, trip, "A03")
	require.NoError(t, err)
	assert.Nil(t, free)
}

func TestBookingRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	bookings := NewBookingRepository(NewStore())
	b := newBooking(primitive.NewObjectID(), "A01")
	require.NoError(t, bookings.Create(ctx, b))

	got, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	got.Items[0].Tickets[0].Price = 1

	again, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), again.Items[0].Tickets[0].Price)

	_, err = bookings.GetByID(ctx, primitive.NewObjectID())
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(bookings.Save(ctx, newBooking(primitive.NewObjectID()))))
}

func TestBookingRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	bookings := NewBookingRepository(NewStore())
	tripA, tripB := primitive.NewObjectID(), primitive.NewObjectID()

	a := newBooking(tripA, "A01")
	a.Passenger.Phone = "0900000001"
	require.NoError(t, bookings.Create(ctx, a))
	b := newBooking(tripB, "B01")
	require.NoError(t, bookings.Create(ctx, b))
	c := newBooking(tripA, "A02")
	require.NoError(t, bookings.Create(ctx, c))

	byTrip, err := bookings.List(ctx, &models.BookingFilter{TripID: &tripA})
	require.NoError(t, err)
	require.Len(t, byTrip, 2)
	assert.Equal(t, c.ID, byTrip[0].ID, "newest first")

	byPhone, err := bookings.List(ctx, &models.BookingFilter{Phone: "0900000001"})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, a.ID, byPhone[0].ID)

	paged, err := bookings.List(ctx, &models.BookingFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, b.ID, paged[0].ID)

	count, err := bookings.Count(ctx, &models.BookingFilter{TripID: &tripA, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
