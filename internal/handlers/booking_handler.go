package handlers

import (
	"net/http"
	"time"

	"busledger/internal/models"
	"busledger/internal/services"
	"busledger/internal/utils"
	"busledger/internal/validators"
	"busledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingHandler struct {
	bookingService services.BookingService
	logger         *logger.Logger
	location       *time.Location
	exposeErrors   bool
}

// NewBookingHandler builds the booking endpoints. Plain dates in list
// filters are read in loc; exposeErrors attaches internal error text to
// 500 responses.
func NewBookingHandler(bookingService services.BookingService, log *logger.Logger, loc *time.Location, exposeErrors bool) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{
		bookingService: bookingService,
		logger:         log,
		location:       loc,
		exposeErrors:   exposeErrors,
	}
}

// CreateBooking books seats on one or more trips
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var request validators.CreateBookingRequest
	if !h.bindJSON(c, &request) {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &request)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.CreatedResponse(c, "Booking created successfully", booking)
}

// GetBooking returns a booking with its paid totals and derived status
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	var query validators.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, validationDetails(errs))
		return
	}

	params := utils.GetPaginationParams(c)
	filter := &models.BookingFilter{
		Phone:  query.Phone,
		Status: models.BookingStatus(query.Status),
		Limit:  params.GetLimit(),
		Offset: params.GetSkip(),
	}
	if query.TripID != "" {
		tripID, _ := primitive.ObjectIDFromHex(query.TripID)
		filter.TripID = &tripID
	}
	if query.From != "" {
		from, err := utils.ParseFlexibleTime(query.From, h.location)
		if err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"from": err.Error()})
			return
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := utils.ParseFlexibleTime(query.To, h.location)
		if err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"to": err.Error()})
			return
		}
		// A bare date covers the whole day.
		if len(query.To) == len("2006-01-02") {
			to = utils.EndOfDay(to)
		}
		filter.To = &to
	}

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved successfully", bookings, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(bookings),
	})
}

// UpdateBooking replaces items, passenger, payment target or status
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var request validators.UpdateBookingRequest
	if !h.bindJSON(c, &request) {
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), id, &request)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking updated successfully", booking)
}

func (h *BookingHandler) UpdatePassenger(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var patch validators.PassengerPatch
	if !h.bindJSON(c, &patch) {
		return
	}

	booking, err := h.bookingService.UpdatePassenger(c.Request.Context(), id, &patch)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Passenger updated successfully", booking)
}

func (h *BookingHandler) UpdateTicket(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	seatID := c.Param("seat_id")
	if !validators.IsValidSeatID(seatID) {
		utils.ValidationErrorResponse(c, map[string]string{"seat_id": "invalid seat id"})
		return
	}

	var patch validators.TicketPatch
	if !h.bindJSON(c, &patch) {
		return
	}

	booking, err := h.bookingService.UpdateTicket(c.Request.Context(), id, seatID, &patch)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Ticket updated successfully", booking)
}

// CancelBooking releases every seat but keeps the booking and its ledger
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled successfully", booking)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	if err := h.bookingService.DeleteBooking(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking deleted successfully", gin.H{"id": id.Hex()})
}

// SwapBookings exchanges the occupants of two seats
func (h *BookingHandler) SwapBookings(c *gin.Context) {
	var request validators.SwapSeatsRequest
	if !h.bindJSON(c, &request) {
		return
	}

	if err := h.bookingService.SwapBookings(c.Request.Context(), &request); err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Seats swapped successfully", nil)
}

// TransferSeat moves tickets of a booking to another trip
func (h *BookingHandler) TransferSeat(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var request validators.TransferSeatRequest
	if !h.bindJSON(c, &request) {
		return
	}

	booking, err := h.bookingService.TransferSeat(c.Request.Context(), id, &request)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Seats transferred successfully", booking)
}

// UpdateBookingPayment sets the same paid target on several bookings
func (h *BookingHandler) UpdateBookingPayment(c *gin.Context) {
	var request validators.BatchPaymentRequest
	if !h.bindJSON(c, &request) {
		return
	}

	bookings, err := h.bookingService.UpdateBookingPayment(c.Request.Context(), &request)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Payments updated successfully", bookings)
}

func (h *BookingHandler) PaySeats(c *gin.Context) {
	h.settle(c, true)
}

func (h *BookingHandler) RefundSeats(c *gin.Context) {
	h.settle(c, false)
}

func (h *BookingHandler) settle(c *gin.Context, pay bool) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var request validators.SeatSettlementRequest
	if !h.bindJSON(c, &request) {
		return
	}

	var (
		booking *models.BookingWithPayment
		err     error
		message string
	)
	if pay {
		booking, err = h.bookingService.PaySeats(c.Request.Context(), id, &request)
		message = "Seats paid successfully"
	} else {
		booking, err = h.bookingService.RefundSeats(c.Request.Context(), id, &request)
		message = "Seats refunded successfully"
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, message, booking)
}

func (h *BookingHandler) GetHistory(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	history, err := h.bookingService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking history retrieved successfully", history)
}

func (h *BookingHandler) GetPayments(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	payments, err := h.bookingService.GetPayments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Payments retrieved successfully", payments)
}

// GetTripSeats returns the seats currently held on a trip
func (h *BookingHandler) GetTripSeats(c *gin.Context) {
	tripID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidID)
		return
	}

	occupancy, err := h.bookingService.GetSeatOccupancy(c.Request.Context(), tripID)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, "Seat occupancy retrieved successfully", occupancy)
}

func (h *BookingHandler) bookingID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidID)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *BookingHandler) bindJSON(c *gin.Context, request interface{}) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}

func (h *BookingHandler) fail(c *gin.Context, err error) {
	utils.DomainErrorResponse(c, err, h.exposeErrors)
	if c.Writer.Status() >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).
			Error("Booking request failed")
	}
}

func validationDetails(errs validators.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		details[e.Field] = e.Message
	}
	return details
}
