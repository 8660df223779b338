package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TicketStatus string
type BookingStatus string

const (
	TicketStatusBooking TicketStatus = "booking"
	TicketStatusHold    TicketStatus = "hold"
	TicketStatusPayment TicketStatus = "payment"

	BookingStatusBooking   BookingStatus = "booking"
	BookingStatusHold      BookingStatus = "hold"
	BookingStatusPayment   BookingStatus = "payment"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusBooking, TicketStatusHold, TicketStatusPayment:
		return true
	}
	return false
}

type Passenger struct {
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone" bson:"phone"`
	Note         string `json:"note" bson:"note"`
	PickupPoint  string `json:"pickup_point" bson:"pickup_point"`
	DropoffPoint string `json:"dropoff_point" bson:"dropoff_point"`
}

type Ticket struct {
	SeatID       string       `json:"seat_id" bson:"seat_id"`
	Price        int64        `json:"price" bson:"price"`
	Status       TicketStatus `json:"status" bson:"status"`
	PickupPoint  string       `json:"pickup_point" bson:"pickup_point"`
	DropoffPoint string       `json:"dropoff_point" bson:"dropoff_point"`
	Note         string       `json:"note" bson:"note"`
	Name         string       `json:"name" bson:"name"`
	Phone        string       `json:"phone" bson:"phone"`
}

// BookingItem holds the tickets of one booking on one trip. Trip date,
// time and route name are copied at creation for display.
type BookingItem struct {
	TripID     primitive.ObjectID `json:"trip_id" bson:"trip_id"`
	TripDate   string             `json:"trip_date" bson:"trip_date"`
	TripTime   string             `json:"trip_time" bson:"trip_time"`
	RouteName  string             `json:"route_name" bson:"route_name"`
	BusType    BusType            `json:"bus_type" bson:"bus_type"`
	IsEnhanced bool               `json:"is_enhanced" bson:"is_enhanced"`
	Tickets    []Ticket           `json:"tickets" bson:"tickets"`
	Price      int64              `json:"price" bson:"price"`
}

type Booking struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Passenger    Passenger          `json:"passenger" bson:"passenger"`
	Items        []BookingItem      `json:"items" bson:"items"`
	TotalPrice   int64              `json:"total_price" bson:"total_price"`
	TotalTickets int                `json:"total_tickets" bson:"total_tickets"`
	SeatKeys     []string           `json:"-" bson:"seat_keys,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// PaymentSummary is the paid total of a booking, summed from its ledger.
type PaymentSummary struct {
	Cash     int64 `json:"cash"`
	Transfer int64 `json:"transfer"`
	Total    int64 `json:"total"`
}

// BookingWithPayment is the read-side view of a booking. Payment and
// Status are computed on every read.
type BookingWithPayment struct {
	Booking
	Payment PaymentSummary `json:"payment"`
	Status  BookingStatus  `json:"status"`
}

type BookingFilter struct {
	TripID *primitive.ObjectID
	Phone  string
	From   *time.Time
	To     *time.Time
	Status BookingStatus
	Limit  int64
	Offset int64
	IDs    []primitive.ObjectID
}

func SeatKey(tripID primitive.ObjectID, seatID string) string {
	return tripID.Hex() + ":" + seatID
}

// Recalculate prunes empty items and rebuilds item prices, booking totals
// and seat keys from the tickets.
func (b *Booking) Recalculate() {
	items := b.Items[:0]
	var total int64
	count := 0
	keys := make([]string, 0, b.TotalTickets)
	for _, item := range b.Items {
		if len(item.Tickets) == 0 {
			continue
		}
		var price int64
		for _, t := range item.Tickets {
			price += t.Price
			keys = append(keys, SeatKey(item.TripID, t.SeatID))
		}
		item.Price = price
		total += price
		count += len(item.Tickets)
		items = append(items, item)
	}
	b.Items = items
	b.TotalPrice = total
	b.TotalTickets = count
	if len(keys) == 0 {
		keys = nil
	}
	b.SeatKeys = keys
}

func (b *Booking) ItemIndex(tripID primitive.ObjectID) int {
	for i := range b.Items {
		if b.Items[i].TripID == tripID {
			return i
		}
	}
	return -1
}

func (b *Booking) FindTicket(tripID primitive.ObjectID, seatID string) (int, int) {
	i := b.ItemIndex(tripID)
	if i < 0 {
		return -1, -1
	}
	for j, t := range b.Items[i].Tickets {
		if t.SeatID == seatID {
			return i, j
		}
	}
	return i, -1
}

// FindTicketAnyTrip returns the first ticket with the given seat id across
// all items.
func (b *Booking) FindTicketAnyTrip(seatID string) (int, int) {
	for i := range b.Items {
		for j, t := range b.Items[i].Tickets {
			if t.SeatID == seatID {
				return i, j
			}
		}
	}
	return -1, -1
}

// RemoveTicket detaches a ticket and drops the item when it empties.
func (b *Booking) RemoveTicket(tripID primitive.ObjectID, seatID string) (Ticket, bool) {
	i, j := b.FindTicket(tripID, seatID)
	if j < 0 {
		return Ticket{}, false
	}
	t := b.Items[i].Tickets[j]
	b.Items[i].Tickets = append(b.Items[i].Tickets[:j], b.Items[i].Tickets[j+1:]...)
	if len(b.Items[i].Tickets) == 0 {
		b.Items = append(b.Items[:i], b.Items[i+1:]...)
	}
	return t, true
}

// AddTicket appends a ticket to the item for trip, creating the item from
// template when the booking has none for that trip.
func (b *Booking) AddTicket(template BookingItem, t Ticket) {
	i := b.ItemIndex(template.TripID)
	if i < 0 {
		template.Tickets = nil
		template.Price = 0
		b.Items = append(b.Items, template)
		i = len(b.Items) - 1
	}
	b.Items[i].Tickets = append(b.Items[i].Tickets, t)
}

func (b *Booking) Clone() *Booking {
	c := *b
	c.Items = make([]BookingItem, len(b.Items))
	for i, item := range b.Items {
		item.Tickets = append([]Ticket(nil), item.Tickets...)
		c.Items[i] = item
	}
	c.SeatKeys = append([]string(nil), b.SeatKeys...)
	return &c
}

func (b *Booking) TripIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(b.Items))
	for _, item := range b.Items {
		ids = append(ids, item.TripID)
	}
	return ids
}

// DeriveStatus computes the booking status from its tickets and paid total.
func DeriveStatus(b *Booking, paid int64) BookingStatus {
	if b.TotalTickets == 0 {
		return BookingStatusCancelled
	}
	if paid > 0 {
		return BookingStatusPayment
	}
	for _, item := range b.Items {
		for _, t := range item.Tickets {
			if t.Status == TicketStatusHold {
				return BookingStatusHold
			}
		}
	}
	return BookingStatusBooking
}
