package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentType string
type PaymentMethod string

const (
	PaymentTypePayment PaymentType = "payment"
	PaymentTypeRefund  PaymentType = "refund"

	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodMixed    PaymentMethod = "mixed"
)

// PaymentRecord is one immutable ledger entry. Amounts are signed deltas;
// a booking's paid totals are the sums over its records.
type PaymentRecord struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingID      primitive.ObjectID `json:"booking_id" bson:"booking_id"`
	CashAmount     int64              `json:"cash_amount" bson:"cash_amount"`
	TransferAmount int64              `json:"transfer_amount" bson:"transfer_amount"`
	Type           PaymentType        `json:"type" bson:"type"`
	Method         PaymentMethod      `json:"method" bson:"method"`
	Note           string             `json:"note" bson:"note"`
	Details        PaymentDetails     `json:"details" bson:"details"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

type PaymentDetails struct {
	Trips        []PaymentTripSnapshot `json:"trips" bson:"trips"`
	TotalPrice   int64                 `json:"total_price" bson:"total_price"`
	TotalTickets int                   `json:"total_tickets" bson:"total_tickets"`
}

type PaymentTripSnapshot struct {
	TripID    primitive.ObjectID `json:"trip_id" bson:"trip_id"`
	RouteName string             `json:"route_name" bson:"route_name"`
	TripDate  string             `json:"trip_date" bson:"trip_date"`
	TripTime  string             `json:"trip_time" bson:"trip_time"`
	Seats     []string           `json:"seats" bson:"seats"`
	Labels    []string           `json:"labels" bson:"labels"`
}

// PaymentState is a cumulative paid amount split by channel.
type PaymentState struct {
	Cash     int64 `json:"cash"`
	Transfer int64 `json:"transfer"`
}

func (p PaymentState) Total() int64 {
	return p.Cash + p.Transfer
}

func (p PaymentState) IsZero() bool {
	return p.Cash == 0 && p.Transfer == 0
}
