package validators

import (
	"busledger/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PassengerRequest struct {
	Name         string `json:"name" validate:"max=100"`
	Phone        string `json:"phone" validate:"omitempty,phone_number"`
	Note         string `json:"note" validate:"max=500"`
	PickupPoint  string `json:"pickup_point" validate:"max=255"`
	DropoffPoint string `json:"dropoff_point" validate:"max=255"`
}

func (p PassengerRequest) ToModel() models.Passenger {
	return models.Passenger{
		Name:         SanitizeInput(p.Name),
		Phone:        p.Phone,
		Note:         SanitizeInput(p.Note),
		PickupPoint:  SanitizeInput(p.PickupPoint),
		DropoffPoint: SanitizeInput(p.DropoffPoint),
	}
}

// TicketRequest is an explicit ticket. A nil Price means the caller did
// not price the seat.
type TicketRequest struct {
	SeatID       string              `json:"seat_id" validate:"required,seat_id"`
	Price        *int64              `json:"price" validate:"omitempty,money"`
	Status       models.TicketStatus `json:"status" validate:"omitempty,ticket_status"`
	PickupPoint  string              `json:"pickup_point" validate:"max=255"`
	DropoffPoint string              `json:"dropoff_point" validate:"max=255"`
	Note         string              `json:"note" validate:"max=500"`
	Name         string              `json:"name" validate:"max=100"`
	Phone        string              `json:"phone" validate:"omitempty,phone_number"`
}

// BookingItemRequest selects seats on one trip, either as bare seat ids or
// as explicit tickets. Tickets win when both are present.
type BookingItemRequest struct {
	TripID  primitive.ObjectID `json:"trip_id" validate:"object_id"`
	SeatIDs []string           `json:"seat_ids" validate:"omitempty,dive,seat_id"`
	Tickets []TicketRequest    `json:"tickets" validate:"omitempty,dive"`
}

// PaymentRequest is a cumulative paid target, not a delta.
type PaymentRequest struct {
	Cash     int64  `json:"cash" validate:"money"`
	Transfer int64  `json:"transfer" validate:"money"`
	Note     string `json:"note" validate:"max=500"`
}

func (p PaymentRequest) State() models.PaymentState {
	return models.PaymentState{Cash: p.Cash, Transfer: p.Transfer}
}

type CreateBookingRequest struct {
	Passenger PassengerRequest     `json:"passenger"`
	Items     []BookingItemRequest `json:"items" validate:"required,min=1,dive"`
	Payment   *PaymentRequest      `json:"payment"`
	Status    models.TicketStatus  `json:"status" validate:"omitempty,ticket_status"`
}

// UpdateBookingRequest replaces the item set when Items is non-nil; an
// empty list removes every ticket. Passenger and Payment are optional.
type UpdateBookingRequest struct {
	Items     []BookingItemRequest `json:"items" validate:"omitempty,dive"`
	Passenger *PassengerPatch      `json:"passenger"`
	Payment   *PaymentRequest      `json:"payment"`
	Status    models.TicketStatus  `json:"status" validate:"omitempty,ticket_status"`
}

type PassengerPatch struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Phone        *string `json:"phone" validate:"omitempty,phone_number"`
	Note         *string `json:"note" validate:"omitempty,max=500"`
	PickupPoint  *string `json:"pickup_point" validate:"omitempty,max=255"`
	DropoffPoint *string `json:"dropoff_point" validate:"omitempty,max=255"`
}

func (p *PassengerPatch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.Phone == nil && p.Note == nil && p.PickupPoint == nil && p.DropoffPoint == nil)
}

func (p *PassengerPatch) Apply(dst *models.Passenger) {
	if p == nil {
		return
	}
	if p.Name != nil {
		dst.Name = SanitizeInput(*p.Name)
	}
	if p.Phone != nil {
		dst.Phone = *p.Phone
	}
	if p.Note != nil {
		dst.Note = SanitizeInput(*p.Note)
	}
	if p.PickupPoint != nil {
		dst.PickupPoint = SanitizeInput(*p.PickupPoint)
	}
	if p.DropoffPoint != nil {
		dst.DropoffPoint = SanitizeInput(*p.DropoffPoint)
	}
}

// TicketPatch carries only the fields to change. TripID narrows the match
// when one booking holds the same seat id on two trips.
type TicketPatch struct {
	TripID       *primitive.ObjectID  `json:"trip_id"`
	Price        *int64               `json:"price" validate:"omitempty,money"`
	Status       *models.TicketStatus `json:"status" validate:"omitempty,ticket_status"`
	Note         *string              `json:"note" validate:"omitempty,max=500"`
	PickupPoint  *string              `json:"pickup_point" validate:"omitempty,max=255"`
	DropoffPoint *string              `json:"dropoff_point" validate:"omitempty,max=255"`
	Name         *string              `json:"name" validate:"omitempty,max=100"`
	Phone        *string              `json:"phone" validate:"omitempty,phone_number"`
}

// Apply merges the present fields and returns their names.
func (p *TicketPatch) Apply(t *models.Ticket) []string {
	var changed []string
	if p.Price != nil {
		t.Price = *p.Price
		changed = append(changed, "price")
	}
	if p.Status != nil {
		t.Status = *p.Status
		changed = append(changed, "status")
	}
	if p.Note != nil {
		t.Note = SanitizeInput(*p.Note)
		changed = append(changed, "note")
	}
	if p.PickupPoint != nil {
		t.PickupPoint = SanitizeInput(*p.PickupPoint)
		changed = append(changed, "pickup_point")
	}
	if p.DropoffPoint != nil {
		t.DropoffPoint = SanitizeInput(*p.DropoffPoint)
		changed = append(changed, "dropoff_point")
	}
	if p.Name != nil {
		t.Name = SanitizeInput(*p.Name)
		changed = append(changed, "name")
	}
	if p.Phone != nil {
		t.Phone = *p.Phone
		changed = append(changed, "phone")
	}
	return changed
}

type SwapSeatsRequest struct {
	TripID1 primitive.ObjectID `json:"trip_id_1" validate:"object_id"`
	SeatID1 string             `json:"seat_id_1" validate:"required,seat_id"`
	TripID2 primitive.ObjectID `json:"trip_id_2" validate:"object_id"`
	SeatID2 string             `json:"seat_id_2" validate:"required,seat_id"`
}

type SeatTransfer struct {
	FromSeatID string `json:"from_seat_id" validate:"required,seat_id"`
	ToSeatID   string `json:"to_seat_id" validate:"required,seat_id"`
}

type TransferSeatRequest struct {
	FromTripID primitive.ObjectID `json:"from_trip_id" validate:"object_id"`
	ToTripID   primitive.ObjectID `json:"to_trip_id" validate:"object_id"`
	Seats      []SeatTransfer     `json:"seats" validate:"required,min=1,dive"`
}

// BatchPaymentRequest applies one cumulative target to every listed
// booking.
type BatchPaymentRequest struct {
	BookingIDs []primitive.ObjectID `json:"booking_ids" validate:"required,min=1,dive,object_id"`
	Payment    PaymentRequest       `json:"payment"`
}

// SeatSettlementRequest pays or refunds individual seats. Cash and
// Transfer are the amounts moved by this call, not cumulative targets.
type SeatSettlementRequest struct {
	TripID   primitive.ObjectID `json:"trip_id" validate:"object_id"`
	SeatIDs  []string           `json:"seat_ids" validate:"required,min=1,dive,seat_id"`
	Cash     int64              `json:"cash" validate:"money"`
	Transfer int64              `json:"transfer" validate:"money"`
	Note     string             `json:"note" validate:"max=500"`
}

type BookingListQuery struct {
	TripID   string `form:"trip_id" validate:"omitempty,object_id"`
	Phone    string `form:"phone" validate:"omitempty,phone_number"`
	From     string `form:"from"`
	To       string `form:"to"`
	Status   string `form:"status" validate:"omitempty,booking_status"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=500"`
}
