package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentledger/payment-engine/internal/recurrence"
)

// PaymentSchedule is a recurring rent obligation template
type PaymentSchedule struct {
	ID                string               `json:"id" db:"id"`
	CompanyID         string               `json:"company_id" db:"company_id"`
	PropertyID        string               `json:"property_id" db:"property_id"`
	TenantID          string               `json:"tenant_id" db:"tenant_id"`
	PaymentMethodID   *string              `json:"payment_method_id,omitempty" db:"payment_method_id"`
	Amount            decimal.Decimal      `json:"amount" db:"amount"`
	Currency          string               `json:"currency" db:"currency"`
	Frequency         recurrence.Frequency `json:"frequency" db:"frequency"`
	DayOfMonth        int                  `json:"day_of_month" db:"day_of_month"`
	NextDueDate       time.Time            `json:"next_due_date" db:"next_due_date"`
	LastGeneratedDate *time.Time           `json:"last_generated_date,omitempty" db:"last_generated_date"`
	DaysBeforeDue     int                  `json:"days_before_due" db:"days_before_due"`
	AutoGenerate      bool                 `json:"auto_generate" db:"auto_generate"`
	IsActive          bool                 `json:"is_active" db:"is_active"`
	CreatedAt         time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at" db:"updated_at"`
}

// Series exposes the schedule's recurrence.
func (s *PaymentSchedule) Series() recurrence.Series {
	return recurrence.Series{
		Frequency: s.Frequency,
		AnchorDay: s.DayOfMonth,
		NextDue:   s.NextDueDate,
		LeadDays:  s.DaysBeforeDue,
	}
}

type CreateScheduleRequest struct {
	CompanyID       string               `json:"-" validate:"required"`
	PropertyID      string               `json:"property_id" validate:"required"`
	TenantID        string               `json:"tenant_id" validate:"required"`
	PaymentMethodID *string              `json:"payment_method_id,omitempty" validate:"omitempty,min=1"`
	Amount          decimal.Decimal      `json:"amount" validate:"decimal_gt_zero"`
	Currency        string               `json:"currency" validate:"omitempty,len=3,alpha"`
	Frequency       recurrence.Frequency `json:"frequency" validate:"required,frequency"`
	DayOfMonth      int                  `json:"day_of_month" validate:"gte=0,lte=31"`
	NextDueDate     time.Time            `json:"next_due_date" validate:"required"`
	DaysBeforeDue   int                  `json:"days_before_due" validate:"gte=0,lte=90"`
	AutoGenerate    *bool                `json:"auto_generate,omitempty"`
}

type GenerateDueRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

type GenerateDueResponse struct {
	Generated int       `json:"generated"`
	AsOf      time.Time `json:"as_of"`
}
