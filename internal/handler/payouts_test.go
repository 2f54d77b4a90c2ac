package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/handler"
	"github.com/rentledger/payment-engine/internal/mocks"
	customError "github.com/rentledger/payment-engine/pkg/errors"
)

func TestPayoutHandler_ProcessPayout(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*mocks.MockPayoutService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "processed",
			body: map[string]string{"transaction_reference": "TX-991"},
			setupMock: func(m *mocks.MockPayoutService) {
				ref := "TX-991"
				m.On("ProcessPayout", mock.Anything, company, "po-1", "TX-991").
					Return(&domain.BeneficiaryPayout{ID: "po-1", Status: domain.PayoutStatusProcessed, TransactionReference: &ref}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "already processed",
			body: map[string]string{"transaction_reference": "TX-992"},
			setupMock: func(m *mocks.MockPayoutService) {
				m.On("ProcessPayout", mock.Anything, company, "po-1", "TX-992").
					Return(nil, customError.WrapAlreadyProcessed("Payout", "PO-20240120-ABC123", "processed")).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   customError.ErrCodeAlreadyProcessed,
		},
		{
			name: "missing transaction reference",
			body: map[string]string{},
			setupMock: func(m *mocks.MockPayoutService) {
				m.On("ProcessPayout", mock.Anything, company, "po-1", "").
					Return(nil, customError.WrapValidation("transaction_reference is required")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payouts := &mocks.MockPayoutService{}
			tt.setupMock(payouts)
			router := newRouter(handler.NewPayoutHandler(payouts))

			w, env := do(t, router, http.MethodPost, "/api/v1/payouts/po-1/process", tt.body, scoped())

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, env.Code)
			payouts.AssertExpectations(t)
		})
	}
}

func TestPayoutHandler_FailCancelAndList(t *testing.T) {
	payouts := &mocks.MockPayoutService{}
	reason := "account closed"
	payouts.On("FailPayout", mock.Anything, company, "po-1", reason).
		Return(&domain.BeneficiaryPayout{ID: "po-1", Status: domain.PayoutStatusFailed, FailureReason: &reason}, nil).Once()
	payouts.On("CancelPayout", mock.Anything, company, "po-2").
		Return(&domain.BeneficiaryPayout{ID: "po-2", Status: domain.PayoutStatusCancelled}, nil).Once()
	payouts.On("List", mock.Anything, company, domain.PayoutStatusPending).
		Return([]*domain.BeneficiaryPayout{{ID: "po-3"}}, nil).Once()

	router := newRouter(handler.NewPayoutHandler(payouts))

	w, env := do(t, router, http.MethodPost, "/api/v1/payouts/po-1/fail", map[string]string{"reason": reason}, scoped())
	assert.Equal(t, http.StatusOK, w.Code)
	var failed domain.BeneficiaryPayout
	require.NoError(t, json.Unmarshal(env.Data, &failed))
	assert.Equal(t, domain.PayoutStatusFailed, failed.Status)

	w, _ = do(t, router, http.MethodPost, "/api/v1/payouts/po-2/cancel", nil, scoped())
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, router, http.MethodGet, "/api/v1/payouts?status=pending", nil, scoped())
	assert.Equal(t, http.StatusOK, w.Code)
	var listed []domain.BeneficiaryPayout
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	payouts.AssertExpectations(t)
}
