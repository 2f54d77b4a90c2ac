package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/recurrence"
)

func validPaymentRequest() domain.CreatePaymentRequest {
	return domain.CreatePaymentRequest{
		CompanyID:  "company-1",
		PropertyID: "property-1",
		Amount:     decimal.NewFromInt(1000),
		Currency:   "USD",
		DueDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew_CreatePaymentRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name          string
		mutate        func(*domain.CreatePaymentRequest)
		expectedError bool
		errorContains string
	}{
		{name: "valid request", mutate: func(*domain.CreatePaymentRequest) {}},
		{
			name:          "zero amount",
			mutate:        func(r *domain.CreatePaymentRequest) { r.Amount = decimal.Zero },
			expectedError: true,
			errorContains: "amount must be greater than zero",
		},
		{
			name:          "negative amount",
			mutate:        func(r *domain.CreatePaymentRequest) { r.Amount = decimal.NewFromInt(-5) },
			expectedError: true,
			errorContains: "amount must be greater than zero",
		},
		{
			name:          "missing property",
			mutate:        func(r *domain.CreatePaymentRequest) { r.PropertyID = "" },
			expectedError: true,
			errorContains: "property_id is required",
		},
		{
			name:          "missing due date",
			mutate:        func(r *domain.CreatePaymentRequest) { r.DueDate = time.Time{} },
			expectedError: true,
			errorContains: "due_date is required",
		},
		{
			name:          "bad currency",
			mutate:        func(r *domain.CreatePaymentRequest) { r.Currency = "DOLLARS" },
			expectedError: true,
			errorContains: "currency must be 3 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPaymentRequest()
			tt.mutate(&req)

			err := v.Struct(req)
			if !tt.expectedError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, Describe(err), tt.errorContains)
		})
	}
}

func TestNew_CreateScheduleRequest_Frequency(t *testing.T) {
	v := New()
	req := domain.CreateScheduleRequest{
		CompanyID:   "company-1",
		PropertyID:  "property-1",
		TenantID:    "tenant-1",
		Amount:      decimal.NewFromInt(1200),
		Frequency:   recurrence.Monthly,
		NextDueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, v.Struct(req))

	req.Frequency = "daily"
	err := v.Struct(req)
	require.Error(t, err)
	assert.Contains(t, Describe(err), "frequency must be one of")
}

func TestNew_CreateReminderRequest_RelatedEntity(t *testing.T) {
	v := New()
	req := domain.CreateReminderRequest{
		CompanyID:      "company-1",
		Related:        domain.RelatedEntity{Kind: domain.EntityKindVendor, ID: "42"},
		Title:          "Insurance renewal",
		RecipientEmail: "owner@example.com",
		Frequency:      recurrence.Annual,
		NextDueDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, v.Struct(req))

	req.Related.Kind = "invoice"
	err := v.Struct(req)
	require.Error(t, err)
	assert.Contains(t, Describe(err), "kind is not a known entity kind")
}
