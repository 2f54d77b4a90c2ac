package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusProcessed PayoutStatus = "processed"
	PayoutStatusFailed    PayoutStatus = "failed"
	PayoutStatusCancelled PayoutStatus = "cancelled"
)

func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusProcessed, PayoutStatusFailed, PayoutStatusCancelled:
		return true
	}
	return false
}

// PayoutReferencePrefix prefixes every payout reference.
const PayoutReferencePrefix = "PO"

// BeneficiaryPayout is the obligation to transfer one allocation to its beneficiary.
type BeneficiaryPayout struct {
	ID                   string          `json:"id" db:"id"`
	CompanyID            string          `json:"company_id" db:"company_id"`
	Reference            string          `json:"reference" db:"reference"`
	AllocationID         string          `json:"allocation_id" db:"allocation_id"`
	PaymentID            string          `json:"payment_id" db:"payment_id"`
	BeneficiaryID        string          `json:"beneficiary_id" db:"beneficiary_id"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	Status               PayoutStatus    `json:"status" db:"status"`
	TransactionReference *string         `json:"transaction_reference,omitempty" db:"transaction_reference"`
	PaymentDate          *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	FailureReason        *string         `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

type ProcessPayoutRequest struct {
	TransactionReference string `json:"transaction_reference" validate:"required,max=100"`
}

type FailPayoutRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
