package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/rentledger/payment-engine/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccessAndCreated(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]string{"id": "p-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode(t, w)
	assert.True(t, body.Success)
	assert.Equal(t, map[string]interface{}{"id": "p-1"}, body.Data)
	assert.False(t, body.Timestamp.IsZero())

	w = httptest.NewRecorder()
	Created(w, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "validation",
			err:     customError.WrapValidation("amount must be greater than zero"),
			status:  http.StatusBadRequest,
			code:    customError.ErrCodeValidation,
			message: "amount must be greater than zero",
		},
		{
			name:    "not found",
			err:     customError.WrapNotFound("Payment", "p-1"),
			status:  http.StatusNotFound,
			code:    customError.ErrCodeNotFound,
			message: "Payment with ID p-1 not found",
		},
		{
			name:    "already allocated",
			err:     customError.WrapAlreadyAllocated("PAY-20240120-ABC123"),
			status:  http.StatusConflict,
			code:    customError.ErrCodeAlreadyAllocated,
			message: "Payment PAY-20240120-ABC123 has already been allocated",
		},
		{
			name:    "already processed",
			err:     customError.WrapAlreadyProcessed("Payout", "PO-20240120-ABC123", "processed"),
			status:  http.StatusConflict,
			code:    customError.ErrCodeAlreadyProcessed,
			message: "Payout PO-20240120-ABC123 is already processed",
		},
		{
			name:    "database",
			err:     customError.WrapDatabaseError(errors.New("connection reset")),
			status:  http.StatusInternalServerError,
			code:    customError.ErrCodeDatabaseError,
			message: "internal server error",
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    customError.ErrCodeDatabaseError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, "Invalid request body", customError.WrapValidation("bad json"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Invalid request body", body.Message)
	assert.Equal(t, customError.ErrCodeValidation, body.Code)

	w = httptest.NewRecorder()
	NotFound(w, "route not found")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, decode(t, w).Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("X-Company-ID", "company-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/api/v1/payments", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "company-1", entry["company_id"])
}
