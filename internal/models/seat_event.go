package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeatChangeEvent tells subscribers of a trip that its seat map changed.
// Subscribers re-read the occupancy; the event carries no seat state.
type SeatChangeEvent struct {
	TripID     primitive.ObjectID   `json:"trip_id"`
	Action     HistoryAction        `json:"action"`
	BookingIDs []primitive.ObjectID `json:"booking_ids"`
	OccurredAt time.Time            `json:"occurred_at"`
}
