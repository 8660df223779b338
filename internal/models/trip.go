package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BusType string

const (
	BusTypeSleeper BusType = "sleeper"
	BusTypeCabin   BusType = "cabin"
)

// Trip is one scheduled departure. Trips and routes are maintained by the
// surrounding application and only read here.
type Trip struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RouteID       primitive.ObjectID `json:"route_id" bson:"route_id"`
	DepartureDate string             `json:"departure_date" bson:"departure_date"`
	DepartureTime string             `json:"departure_time" bson:"departure_time"`
	BusID         primitive.ObjectID `json:"bus_id" bson:"bus_id,omitempty"`
	BusType       BusType            `json:"bus_type" bson:"bus_type"`
	Price         int64              `json:"price" bson:"price"`
	IsEnhanced    bool               `json:"is_enhanced" bson:"is_enhanced"`
}

type Route struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	IsEnhanced bool               `json:"is_enhanced" bson:"is_enhanced"`
}

// SameBusClass reports whether tickets can move between the two trips
// without changing the seat layout. An unset bus type counts as sleeper.
func SameBusClass(a, b *Trip) bool {
	return a.BusClass() == b.BusClass()
}

func (t *Trip) BusClass() BusType {
	if t.BusType == "" {
		return BusTypeSleeper
	}
	return t.BusType
}

type SeatOccupancy struct {
	TripID primitive.ObjectID `json:"trip_id"`
	Seats  []OccupiedSeat     `json:"seats"`
}

type OccupiedSeat struct {
	SeatID    string             `json:"seat_id"`
	Label     string             `json:"label"`
	BookingID primitive.ObjectID `json:"booking_id"`
	Status    TicketStatus       `json:"status"`
	Name      string             `json:"name"`
	Phone     string             `json:"phone"`
}
