package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"busledger/internal/config"
	"busledger/internal/handlers"
	"busledger/internal/models"
	"busledger/internal/repositories/memory"
	"busledger/internal/services"
	"busledger/internal/utils"
	"busledger/pkg/logger"
	"busledger/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
	Meta   *utils.Meta     `json:"meta"`
}

type bookingView struct {
	ID           string                `json:"id"`
	Status       models.BookingStatus  `json:"status"`
	TotalPrice   int64                 `json:"total_price"`
	TotalTickets int                   `json:"total_tickets"`
	Payment      models.PaymentSummary `json:"payment"`
}

type handlerFixture struct {
	router *gin.Engine
	tripA  *models.Trip
	tripB  *models.Trip
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	f := &handlerFixture{
		tripA: &models.Trip{DepartureDate: "2026-10-20", DepartureTime: "08:00", BusType: models.BusTypeSleeper},
		tripB: &models.Trip{DepartureDate: "2026-10-20", DepartureTime: "20:00", BusType: models.BusTypeSleeper},
	}
	store.AddTrip(f.tripA, &models.Route{Name: "Hà Nội - Sapa"})
	store.AddTrip(f.tripB, &models.Route{Name: "Sapa - Hà Nội"})

	log := logger.NewNop()
	bookings := memory.NewBookingRepository(store)
	payments := memory.NewPaymentRepository(store)
	svc := services.NewBookingService(
		store,
		bookings,
		memory.NewTripRepository(store),
		services.NewPaymentLedgerService(payments, log),
		services.NewAuditService(memory.NewHistoryRepository(store), log),
		services.NewBookingStatusService(bookings, payments),
		nil,
		&config.BookingConfig{StorageDriver: config.StorageDriverMemory},
		log,
	)

	f.router = gin.New()
	routes.SetupBookingRoutes(f.router.Group("/api/v1"), handlers.NewBookingHandler(svc, log, time.UTC, true))
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (f *handlerFixture) create(t *testing.T, trip *models.Trip, seats ...string) bookingView {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"passenger": gin.H{"name": "Tran Thi B", "phone": "0987654321"},
		"items":     []gin.H{{"trip_id": trip.ID.Hex(), "seat_ids": seats}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view bookingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func TestCreateBooking_WithPaymentAndPricedTickets(t *testing.T) {
	f := newHandlerFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/v1/bookings", gin.H{
		"passenger": gin.H{"name": "Tran Thi B", "phone": "0987654321"},
		"items": []gin.H{{
			"trip_id": f.tripA.ID.Hex(),
			"tickets": []gin.H{
				{"seat_id": "A1", "price": 300000},
				{"seat_id": "A2", "price": 300000},
			},
		}},
		"payment": gin.H{"cash": 200000, "transfer": 100000},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, utils.StatusSuccess, env.Status)

	var view bookingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, int64(600000), view.TotalPrice)
	assert.Equal(t, 2, view.TotalTickets)
	assert.Equal(t, models.BookingStatusPayment, view.Status)
	assert.Equal(t, int64(300000), view.Payment.Total)

	w, env = f.do(t, http.MethodGet, "/api/v1/bookings/"+view.ID+"/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.PaymentRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, models.PaymentMethodMixed, records[0].Method)
}

func TestCreateBooking_Errors(t *testing.T) {
	f := newHandlerFixture(t)
	f.create(t, f.tripA, "B1")

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{
			name:   "malformed json",
			body:   "{",
			status: http.StatusBadRequest,
			code:   utils.CodeBadRequest,
		},
		{
			name:   "no items",
			body:   gin.H{"passenger": gin.H{"name": "X"}, "items": []gin.H{}},
			status: http.StatusBadRequest,
			code:   utils.CodeValidationError,
		},
		{
			name:   "unknown trip",
			body:   gin.H{"items": []gin.H{{"trip_id": primitive.NewObjectID().Hex(), "seat_ids": []string{"A1"}}}},
			status: http.StatusNotFound,
			code:   utils.CodeNotFound,
		},
		{
			name:   "seat already held",
			body:   gin.H{"items": []gin.H{{"trip_id": f.tripA.ID.Hex(), "seat_ids": []string{"B1"}}}},
			status: http.StatusConflict,
			code:   utils.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := f.do(t, http.MethodPost, "/api/v1/bookings", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, utils.StatusError, env.Status)
		})
	}
}

func TestGetBooking(t *testing.T) {
	f := newHandlerFixture(t)
	created := f.create(t, f.tripA, "A1")

	w, env := f.do(t, http.MethodGet, "/api/v1/bookings/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view bookingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, models.BookingStatusBooking, view.Status)

	w, _ = f.do(t, http.MethodGet, "/api/v1/bookings/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/bookings/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBookings_FiltersAndPagination(t *testing.T) {
	f := newHandlerFixture(t)
	f.create(t, f.tripA, "A1")
	f.create(t, f.tripA, "A2")
	f.create(t, f.tripB, "A1")

	w, env := f.do(t, http.MethodGet, "/api/v1/bookings?trip_id="+f.tripA.ID.Hex()+"&page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var views []bookingView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	assert.Len(t, views, 1)
	require.NotNil(t, env.Meta)
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, int64(2), env.Meta.Pagination.Total)
	assert.True(t, env.Meta.Pagination.HasNext)

	w, _ = f.do(t, http.MethodGet, "/api/v1/bookings?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/bookings?status=unknown", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	today := time.Now().UTC().Format("2006-01-02")
	w, env = f.do(t, http.MethodGet, "/api/v1/bookings?from="+today+"&to="+today, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &views))
	assert.Len(t, views, 3)
}

func TestCancelBooking_ReleasesSeats(t *testing.T) {
	f := newHandlerFixture(t)
	created := f.create(t, f.tripA, "A1", "A2")

	w, env := f.do(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view bookingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, models.BookingStatusCancelled, view.Status)
	assert.Zero(t, view.TotalTickets)

	w, env = f.do(t, http.MethodGet, "/api/v1/trips/"+f.tripA.ID.Hex()+"/seats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var occupancy models.SeatOccupancy
	require.NoError(t, json.Unmarshal(env.Data, &occupancy))
	assert.Empty(t, occupancy.Seats)

	w, env = f.do(t, http.MethodGet, "/api/v1/bookings/"+created.ID+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.HistoryRecord
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.NotEmpty(t, history)
	assert.Equal(t, models.HistoryActionCancel, history[0].Action)
}

func TestSwapBookings_Endpoint(t *testing.T) {
	f := newHandlerFixture(t)
	first := f.create(t, f.tripA, "A1")
	second := f.create(t, f.tripA, "A2")

	w, _ := f.do(t, http.MethodPost, "/api/v1/bookings/swap", gin.H{
		"trip_id_1": f.tripA.ID.Hex(), "seat_id_1": "A1",
		"trip_id_2": f.tripA.ID.Hex(), "seat_id_2": "A2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := f.do(t, http.MethodGet, "/api/v1/trips/"+f.tripA.ID.Hex()+"/seats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var occupancy models.SeatOccupancy
	require.NoError(t, json.Unmarshal(env.Data, &occupancy))
	require.Len(t, occupancy.Seats, 2)
	assert.Equal(t, "A1", occupancy.Seats[0].SeatID)
	assert.Equal(t, second.ID, occupancy.Seats[0].BookingID.Hex())
	assert.Equal(t, first.ID, occupancy.Seats[1].BookingID.Hex())
}

func TestUpdateBookingPayment_Endpoint(t *testing.T) {
	f := newHandlerFixture(t)
	first := f.create(t, f.tripA, "A1")
	second := f.create(t, f.tripB, "A1")

	w, env := f.do(t, http.MethodPut, "/api/v1/bookings/payment", gin.H{
		"booking_ids": []string{first.ID, second.ID},
		"payment":     gin.H{"cash": 150000},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var views []bookingView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, int64(150000), v.Payment.Cash)
		assert.Equal(t, models.BookingStatusPayment, v.Status)
	}

	w, _ = f.do(t, http.MethodPut, "/api/v1/bookings/payment", gin.H{
		"booking_ids": []string{first.ID, primitive.NewObjectID().Hex()},
		"payment":     gin.H{"cash": 1},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTicket_RejectsBadSeatParam(t *testing.T) {
	f := newHandlerFixture(t)
	created := f.create(t, f.tripA, "A1")

	w, env := f.do(t, http.MethodPatch, "/api/v1/bookings/"+created.ID+"/tickets/%20", gin.H{"note": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, utils.CodeValidationError, env.Error.Code)

	w, _ = f.do(t, http.MethodPatch, "/api/v1/bookings/"+created.ID+"/tickets/A1", gin.H{"note": "window"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDeleteBooking_Endpoint(t *testing.T) {
	f := newHandlerFixture(t)
	created := f.create(t, f.tripA, "A1")

	w, _ := f.do(t, http.MethodDelete, "/api/v1/bookings/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = f.do(t, http.MethodGet, "/api/v1/bookings/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
