package utils

import (
	"errors"
	"net/http"
	"time"

	"busledger/internal/domain"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Total      int64           `json:"total,omitempty"`
	Count      int             `json:"count,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func SuccessResponseWithMeta(c *gin.Context, message string, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now(),
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

func ErrorResponseWithDetails(c *gin.Context, statusCode int, code, message string, details map[string]string) {
	c.JSON(statusCode, APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	})
}

func ValidationErrorResponse(c *gin.Context, details map[string]string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, CodeValidationError, ErrValidationFailed, details)
}

func InternalServerErrorResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, CodeInternalError, ErrInternalServer)
}

func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, CodeNotFound, message)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, CodeConflict, message)
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, message)
}

// DomainErrorResponse maps the domain error taxonomy onto HTTP statuses.
// Anything else is reported as an InternalError: its Msg is the public
// message, and the underlying text is attached only when exposeInternal is set.
func DomainErrorResponse(c *gin.Context, err error, exposeInternal bool) {
	switch {
	case domain.IsValidation(err):
		var verr domain.ValidationError
		details := map[string]string{}
		if errors.As(err, &verr) && verr.Field != "" {
			details[verr.Field] = verr.Msg
		}
		ErrorResponseWithDetails(c, http.StatusBadRequest, CodeValidationError, err.Error(), details)
	case domain.IsNotFound(err):
		NotFoundResponse(c, err.Error())
	case domain.IsConflict(err):
		ConflictResponse(c, err.Error())
	default:
		var ierr domain.InternalError
		if !errors.As(err, &ierr) {
			ierr = domain.InternalError{Msg: ErrInternalServer, Err: err}
		}
		if exposeInternal {
			ErrorResponseWithDetails(c, http.StatusInternalServerError, CodeInternalError, ierr.Error(),
				map[string]string{"error": err.Error()})
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, CodeInternalError, ierr.Error())
	}
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}
