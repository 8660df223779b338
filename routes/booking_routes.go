package routes

import (
	"busledger/internal/handlers"
	"busledger/internal/utils"
	"busledger/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetupBookingRoutes sets up the booking ledger routes
func SetupBookingRoutes(r *gin.RouterGroup, bookingHandler *handlers.BookingHandler) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("", bookingHandler.ListBookings)

		// Multi-booking operations
		bookings.POST("/swap", bookingHandler.SwapBookings)
		bookings.PUT("/payment", bookingHandler.UpdateBookingPayment)

		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PUT("/:id", bookingHandler.UpdateBooking)
		bookings.DELETE("/:id", bookingHandler.DeleteBooking)
		bookings.PATCH("/:id/passenger", bookingHandler.UpdatePassenger)
		bookings.PATCH("/:id/tickets/:seat_id", bookingHandler.UpdateTicket)
		bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
		bookings.POST("/:id/transfer", bookingHandler.TransferSeat)

		// Per-seat settlement
		bookings.POST("/:id/pay-seats", bookingHandler.PaySeats)
		bookings.POST("/:id/refund-seats", bookingHandler.RefundSeats)

		// Audit trail
		bookings.GET("/:id/history", bookingHandler.GetHistory)
		bookings.GET("/:id/payments", bookingHandler.GetPayments)
	}

	trips := r.Group("/trips")
	{
		trips.GET("/:id/seats", bookingHandler.GetTripSeats)
	}
}

// SetupWebSocketRoutes exposes the live seat-change feed of a trip
func SetupWebSocketRoutes(r *gin.Engine, wsHandler *websocket.Handler) {
	r.GET("/ws/trips/:id", wsHandler.HandleRoom(func(c *gin.Context) string {
		tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return ""
		}
		return utils.TripRoom(tripID.Hex())
	}))
}
