package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"busledger/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderDomainError(t *testing.T, err error, exposeInternal bool) (int, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	DomainErrorResponse(c, err, exposeInternal)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return w.Code, resp
}

func TestDomainErrorResponse(t *testing.T) {
	tests := []struct {
		description string
		err         error
		status      int
		code        string
		message     string
	}{
		{"validation", domain.ValidationError{Field: "seat_id", Msg: "seat already taken"}, http.StatusBadRequest, CodeValidationError, "seat_id: seat already taken"},
		{"not found", domain.NotFoundError{Resource: "booking", ID: "abc"}, http.StatusNotFound, CodeNotFound, "booking abc not found"},
		{"conflict", domain.ConflictError{Resource: "booking", Msg: "retry"}, http.StatusConflict, CodeConflict, ""},
		{"unclassified", errors.New("socket closed"), http.StatusInternalServerError, CodeInternalError, ErrInternalServer},
		{"internal with message", domain.InternalError{Msg: "ledger unavailable", Err: errors.New("socket closed")}, http.StatusInternalServerError, CodeInternalError, "ledger unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			status, resp := renderDomainError(t, tt.err, false)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
		})
	}
}

func TestDomainErrorResponseValidationDetails(t *testing.T) {
	_, resp := renderDomainError(t, domain.ValidationError{Field: "seat_id", Msg: "seat already taken"}, false)
	assert.Equal(t, "seat already taken", resp.Error.Details["seat_id"])
}

func TestDomainErrorResponseHidesInternalText(t *testing.T) {
	cause := domain.StorageTopologyError{Err: errors.New("insert failed")}

	_, hidden := renderDomainError(t, cause, false)
	assert.Equal(t, ErrInternalServer, hidden.Error.Message)
	assert.Empty(t, hidden.Error.Details)

	_, exposed := renderDomainError(t, cause, true)
	assert.Equal(t, ErrInternalServer, exposed.Error.Message)
	assert.Contains(t, exposed.Error.Details["error"], "insert failed")
}
