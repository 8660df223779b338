package validators

import (
	"testing"

	"busledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateStruct_CreateBookingRequest(t *testing.T) {
	tripID := primitive.NewObjectID()
	negative := int64(-1)

	tests := []struct {
		name      string
		request   CreateBookingRequest
		wantField string
	}{
		{
			name: "valid",
			request: CreateBookingRequest{
				Passenger: PassengerRequest{Name: "A", Phone: "0912 345 678"},
				Items:     []BookingItemRequest{{TripID: tripID, SeatIDs: []string{"A01", "B-2"}}},
			},
		},
		{
			name:      "no items",
			request:   CreateBookingRequest{},
			wantField: "CreateBookingRequest.Items",
		},
		{
			name: "zero trip id",
			request: CreateBookingRequest{
				Items: []BookingItemRequest{{SeatIDs: []string{"A01"}}},
			},
			wantField: "CreateBookingRequest.Items[0].TripID",
		},
		{
			name: "bad seat id",
			request: CreateBookingRequest{
				Items: []BookingItemRequest{{TripID: tripID, SeatIDs: []string{"A 1"}}},
			},
			wantField: "CreateBookingRequest.Items[0].SeatIDs[0]",
		},
		{
			name: "negative price",
			request: CreateBookingRequest{
				Items: []BookingItemRequest{{TripID: tripID, Tickets: []TicketRequest{{SeatID: "A1", Price: &negative}}}},
			},
			wantField: "CreateBookingRequest.Items[0].Tickets[0].Price",
		},
		{
			name: "unknown status",
			request: CreateBookingRequest{
				Items:  []BookingItemRequest{{TripID: tripID, SeatIDs: []string{"A1"}}},
				Status: models.TicketStatus("sold"),
			},
			wantField: "CreateBookingRequest.Status",
		},
		{
			name: "bad phone",
			request: CreateBookingRequest{
				Passenger: PassengerRequest{Phone: "call me"},
				Items:     []BookingItemRequest{{TripID: tripID, SeatIDs: []string{"A1"}}},
			},
			wantField: "CreateBookingRequest.Passenger.Phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(&tt.request)
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}

func TestPassengerPatch_Apply(t *testing.T) {
	name := " <b>Le Van C</b> "
	patch := &PassengerPatch{Name: &name}
	assert.False(t, patch.IsEmpty())

	p := models.Passenger{Name: "old", Phone: "0900000000"}
	patch.Apply(&p)
	assert.Equal(t, "Le Van C", p.Name)
	assert.Equal(t, "0900000000", p.Phone)

	var nilPatch *PassengerPatch
	assert.True(t, nilPatch.IsEmpty())
	nilPatch.Apply(&p)
	assert.Equal(t, "Le Van C", p.Name)
}

func TestTicketPatch_ApplyReportsChangedFields(t *testing.T) {
	price := int64(250000)
	status := models.TicketStatusHold
	note := "window"
	patch := &TicketPatch{Price: &price, Status: &status, Note: &note}

	ticket := models.Ticket{SeatID: "A1", Price: 100000, Status: models.TicketStatusBooking}
	changed := patch.Apply(&ticket)

	assert.Equal(t, []string{"price", "status", "note"}, changed)
	assert.Equal(t, price, ticket.Price)
	assert.Equal(t, models.TicketStatusHold, ticket.Status)
	assert.Empty(t, (&TicketPatch{}).Apply(&ticket))
}

func TestIsValidSeatID(t *testing.T) {
	assert.True(t, IsValidSeatID("A01"))
	assert.True(t, IsValidSeatID("B_12"))
	assert.False(t, IsValidSeatID(""))
	assert.False(t, IsValidSeatID("-A"))
	assert.False(t, IsValidSeatID("A1234567890123456"))
}
