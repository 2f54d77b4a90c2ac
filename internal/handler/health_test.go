package handler_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rentledger/payment-engine/internal/handler"
	"github.com/rentledger/payment-engine/internal/mocks"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
	}{
		{name: "ready", expectedStatus: http.StatusOK},
		{name: "database down", pingErr: errors.New("dial tcp: connection refused"), expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mocks.MockPinger{}
			db.On("Ping", mock.Anything).Return(tt.pingErr).Once()

			router := mux.NewRouter()
			handler.NewHealthHandler(db, nil, time.Second).Register(router)

			w, env := do(t, router, http.MethodGet, "/health/ready", nil, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, string(env.Data), `"redis":"disabled"`)
			db.AssertExpectations(t)

			w, env = do(t, router, http.MethodGet, "/health", nil, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, env.Success)
		})
	}
}
