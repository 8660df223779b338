package utils

// DefaultTimeZone is used for plain-date filters when none is configured.
const DefaultTimeZone = "Asia/Ho_Chi_Minh"

// Pagination Constants
const (
	DefaultPageSize = 50
	MinPageSize     = 1
	MaxPageSize     = 500
)

// Response Status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Error Messages
const (
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrInvalidID        = "Invalid ID format"
)

// WSEventSeatsChanged tells trip subscribers to re-read the seat map.
const WSEventSeatsChanged = "seats_changed"

// TripRoom is the websocket room carrying seat changes for one trip.
func TripRoom(tripHex string) string {
	return "trip_" + tripHex
}
