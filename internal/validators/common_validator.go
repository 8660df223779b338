package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

var (
	phoneRegex  = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	seatIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,15}$`)
	htmlRegex   = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	validate = validator.New()

	// Register custom validation functions
	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("seat_id", validateSeatID)
	validate.RegisterValidation("ticket_status", validateTicketStatus)
	validate.RegisterValidation("booking_status", validateBookingStatus)
	validate.RegisterValidation("money", validateMoney)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Namespace(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "seat_id":
		return "Invalid seat id"
	case "ticket_status":
		return "Status must be one of booking, hold, payment"
	case "booking_status":
		return "Status must be one of booking, hold, payment, cancelled"
	case "money":
		return "Amount must not be negative"
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", err.Field())
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateObjectID(fl validator.FieldLevel) bool {
	if id, ok := fl.Field().Interface().(primitive.ObjectID); ok {
		return !id.IsZero()
	}
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return phoneRegex.MatchString(strings.ReplaceAll(phone, " ", ""))
}

func validateSeatID(fl validator.FieldLevel) bool {
	return seatIDRegex.MatchString(fl.Field().String())
}

func validateTicketStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "booking", "hold", "payment":
		return true
	}
	return false
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "booking", "hold", "payment", "cancelled":
		return true
	}
	return false
}

func validateMoney(fl validator.FieldLevel) bool {
	return fl.Field().Int() >= 0
}

func IsValidSeatID(id string) bool {
	return seatIDRegex.MatchString(id)
}

func SanitizeInput(input string) string {
	cleaned := htmlRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}
