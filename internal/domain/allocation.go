package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationType distinguishes beneficiary shares from the owner remainder.
type AllocationType string

const (
	AllocationTypeBeneficiary    AllocationType = "beneficiary"
	AllocationTypeOwnerRemainder AllocationType = "owner_remainder"
)

// Allocation is one line of a confirmed payment's distribution. Rows are
// written once, as a batch, and never updated.
type Allocation struct {
	ID             string          `json:"id" db:"id"`
	PaymentID      string          `json:"payment_id" db:"payment_id"`
	BeneficiaryID  *string         `json:"beneficiary_id,omitempty" db:"beneficiary_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Percentage     decimal.Decimal `json:"percentage" db:"percentage"`
	AllocationType AllocationType  `json:"allocation_type" db:"allocation_type"`
	AllocationDate time.Time       `json:"allocation_date" db:"allocation_date"`
	AllocatedBy    string          `json:"allocated_by" db:"allocated_by"`
}

// HasBeneficiary reports whether the row pays a third party rather than the owner.
func (a *Allocation) HasBeneficiary() bool {
	return a.BeneficiaryID != nil && *a.BeneficiaryID != ""
}
