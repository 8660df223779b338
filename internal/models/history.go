package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HistoryAction string

const (
	HistoryActionCreate          HistoryAction = "CREATE"
	HistoryActionUpdate          HistoryAction = "UPDATE"
	HistoryActionCancel          HistoryAction = "CANCEL"
	HistoryActionSwap            HistoryAction = "SWAP"
	HistoryActionPassengerUpdate HistoryAction = "PASSENGER_UPDATE"
	HistoryActionDelete          HistoryAction = "DELETE"
	HistoryActionTransfer        HistoryAction = "TRANSFER"
	HistoryActionPaySeat         HistoryAction = "PAY_SEAT"
	HistoryActionRefundSeat      HistoryAction = "REFUND_SEAT"
)

type HistoryRecord struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	BookingID   primitive.ObjectID     `json:"booking_id" bson:"booking_id"`
	Action      HistoryAction          `json:"action" bson:"action"`
	Description string                 `json:"description" bson:"description"`
	Details     map[string]interface{} `json:"details" bson:"details"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
}
