package services

import (
	"time"

	"busledger/internal/models"
	"busledger/internal/utils"
	"busledger/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomPublisher is the part of the websocket hub the seat notifier uses.
type RoomPublisher interface {
	PublishToRoom(roomID, messageType string, data map[string]interface{})
}

type seatNotifier struct {
	rooms RoomPublisher
}

// NewSeatNotifier forwards seat changes to the trip's websocket room.
func NewSeatNotifier(rooms RoomPublisher) SeatEventPublisher {
	return &seatNotifier{rooms: rooms}
}

var _ RoomPublisher = (*websocket.Hub)(nil)

func (n *seatNotifier) PublishSeatChange(event models.SeatChangeEvent) {
	ids := make([]string, 0, len(event.BookingIDs))
	for _, id := range event.BookingIDs {
		if id != primitive.NilObjectID {
			ids = append(ids, id.Hex())
		}
	}
	n.rooms.PublishToRoom(utils.TripRoom(event.TripID.Hex()), utils.WSEventSeatsChanged, map[string]interface{}{
		"trip_id":     event.TripID.Hex(),
		"action":      string(event.Action),
		"booking_ids": ids,
		"occurred_at": event.OccurredAt.Format(time.RFC3339),
	})
}
