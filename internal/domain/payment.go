package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the externally settable status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusConfirmed     PaymentStatus = "confirmed"
	PaymentStatusCancelled     PaymentStatus = "cancelled"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusOverdue       PaymentStatus = "overdue"
)

// PaymentStatuses lists every settable status.
var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusConfirmed,
	PaymentStatusCancelled,
	PaymentStatusRefunded,
	PaymentStatusPartiallyPaid,
	PaymentStatusOverdue,
}

func (s PaymentStatus) Valid() bool {
	for _, known := range PaymentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether a payment in status s can no longer change status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCancelled || s == PaymentStatusRefunded
}

// PaymentReferencePrefix prefixes every payment reference.
const PaymentReferencePrefix = "PAY"

// Payment represents one rent obligation tied to a property and optionally a tenant
type Payment struct {
	ID                  string              `json:"id" db:"id"`
	CompanyID           string              `json:"company_id" db:"company_id"`
	PropertyID          string              `json:"property_id" db:"property_id"`
	TenantID            *string             `json:"tenant_id,omitempty" db:"tenant_id"`
	ScheduleID          *string             `json:"schedule_id,omitempty" db:"schedule_id"`
	PaymentMethodID     *string             `json:"payment_method_id,omitempty" db:"payment_method_id"`
	Reference           string              `json:"reference" db:"reference"`
	Amount              decimal.Decimal     `json:"amount" db:"amount"`
	Currency            string              `json:"currency" db:"currency"`
	DueDate             time.Time           `json:"due_date" db:"due_date"`
	PaymentDate         *time.Time          `json:"payment_date,omitempty" db:"payment_date"`
	Status              PaymentStatus       `json:"status" db:"status"`
	LateFeeAmount       decimal.NullDecimal `json:"late_fee_amount" db:"late_fee_amount"`
	ProcessingFeeAmount decimal.NullDecimal `json:"processing_fee_amount" db:"processing_fee_amount"`
	NetAmount           decimal.Decimal     `json:"net_amount" db:"net_amount"`
	IsLate              bool                `json:"is_late" db:"is_late"`
	DaysLate            int                 `json:"days_late" db:"days_late"`
	IsAllocated         bool                `json:"is_allocated" db:"is_allocated"`
	AllocationDate      *time.Time          `json:"allocation_date,omitempty" db:"allocation_date"`
	Notes               string              `json:"notes" db:"notes"`
	CreatedBy           string              `json:"created_by" db:"created_by"`
	CreatedAt           time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" db:"updated_at"`
}

// RecomputeNet sets NetAmount to amount plus both fees. A null fee counts as zero.
func (p *Payment) RecomputeNet() {
	net := p.Amount
	if p.LateFeeAmount.Valid {
		net = net.Add(p.LateFeeAmount.Decimal)
	}
	if p.ProcessingFeeAmount.Valid {
		net = net.Add(p.ProcessingFeeAmount.Decimal)
	}
	p.NetAmount = net
}

// PaymentFilter narrows payment listings. Zero fields are ignored.
type PaymentFilter struct {
	PropertyID string
	Status     PaymentStatus
	DueFrom    *time.Time
	DueTo      *time.Time
}

// DTOs for requests and responses

type CreatePaymentRequest struct {
	CompanyID       string          `json:"-" validate:"required"`
	PropertyID      string          `json:"property_id" validate:"required"`
	TenantID        *string         `json:"tenant_id,omitempty" validate:"omitempty,min=1"`
	PaymentMethodID *string         `json:"payment_method_id,omitempty" validate:"omitempty,min=1"`
	ScheduleID      *string         `json:"-"`
	Amount          decimal.Decimal `json:"amount" validate:"decimal_gt_zero"`
	Currency        string          `json:"currency" validate:"omitempty,len=3,alpha"`
	DueDate         time.Time       `json:"due_date" validate:"required"`
	Notes           string          `json:"notes" validate:"max=1000"`
	CreatedBy       string          `json:"-"`
}

type UpdatePaymentStatusRequest struct {
	Status PaymentStatus `json:"status" validate:"required"`
}

type PaymentDetailResponse struct {
	Payment     *Payment             `json:"payment"`
	Allocations []*Allocation        `json:"allocations"`
	Payouts     []*BeneficiaryPayout `json:"payouts"`
}
