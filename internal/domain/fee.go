package domain

import (
	"github.com/shopspring/decimal"
)

// LateFeeRule charges fixed + percentage of the amount once a payment is
// at least GracePeriodDays late.
type LateFeeRule struct {
	ID              string          `json:"id" db:"id"`
	CompanyID       string          `json:"company_id" db:"company_id"`
	Name            string          `json:"name" db:"name"`
	GracePeriodDays int             `json:"grace_period_days" db:"grace_period_days"`
	FixedAmount     decimal.Decimal `json:"fixed_amount" db:"fixed_amount"`
	Percentage      decimal.Decimal `json:"percentage" db:"percentage"`
	IsActive        bool            `json:"is_active" db:"is_active"`
}

// PaymentMethod carries the processing fee of a way of paying.
type PaymentMethod struct {
	ID                      string          `json:"id" db:"id"`
	CompanyID               string          `json:"company_id" db:"company_id"`
	Name                    string          `json:"name" db:"name"`
	ProcessingFeeFixed      decimal.Decimal `json:"processing_fee_fixed" db:"processing_fee_fixed"`
	ProcessingFeePercentage decimal.Decimal `json:"processing_fee_percentage" db:"processing_fee_percentage"`
	IsActive                bool            `json:"is_active" db:"is_active"`
}
