package domain

import (
	"fmt"
	"time"

	"github.com/rentledger/payment-engine/internal/recurrence"
)

// EntityKind tags what a RelatedEntity points at.
type EntityKind string

const (
	EntityKindProperty          EntityKind = "property"
	EntityKindTenant            EntityKind = "tenant"
	EntityKindPayment           EntityKind = "payment"
	EntityKindSchedule          EntityKind = "schedule"
	EntityKindVendor            EntityKind = "vendor"
	EntityKindMaintenanceTicket EntityKind = "maintenance_ticket"
)

func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindProperty, EntityKindTenant, EntityKindPayment,
		EntityKindSchedule, EntityKindVendor, EntityKindMaintenanceTicket:
		return true
	}
	return false
}

// RelatedEntity addresses any record of the wider system by kind and id.
// Identifiers of every kind are carried as strings.
type RelatedEntity struct {
	Kind EntityKind `json:"kind" db:"related_kind" validate:"required,entity_kind"`
	ID   string     `json:"id" db:"related_id" validate:"required"`
}

func (e RelatedEntity) String() string {
	return fmt.Sprintf("%s/%s", e.Kind, e.ID)
}

// Reminder is a recurring notification attached to a related entity.
type Reminder struct {
	ID             string `json:"id" db:"id"`
	CompanyID      string `json:"company_id" db:"company_id"`
	RelatedEntity  `json:"related"`
	Title          string               `json:"title" db:"title"`
	Message        string               `json:"message" db:"message"`
	RecipientEmail string               `json:"recipient_email" db:"recipient_email"`
	Frequency      recurrence.Frequency `json:"frequency" db:"frequency"`
	DayOfMonth     int                  `json:"day_of_month" db:"day_of_month"`
	NextDueDate    time.Time            `json:"next_due_date" db:"next_due_date"`
	DaysBeforeDue  int                  `json:"days_before_due" db:"days_before_due"`
	LastSentDate   *time.Time           `json:"last_sent_date,omitempty" db:"last_sent_date"`
	IsActive       bool                 `json:"is_active" db:"is_active"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" db:"updated_at"`
}

func (r *Reminder) Series() recurrence.Series {
	return recurrence.Series{
		Frequency: r.Frequency,
		AnchorDay: r.DayOfMonth,
		NextDue:   r.NextDueDate,
		LeadDays:  r.DaysBeforeDue,
	}
}

// ReminderOccurrence records that a reminder fired for one due date.
type ReminderOccurrence struct {
	ReminderID string    `json:"reminder_id" db:"reminder_id"`
	DueDate    time.Time `json:"due_date" db:"due_date"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"`
}

type CreateReminderRequest struct {
	CompanyID      string               `json:"-" validate:"required"`
	Related        RelatedEntity        `json:"related"`
	Title          string               `json:"title" validate:"required,max=200"`
	Message        string               `json:"message" validate:"max=2000"`
	RecipientEmail string               `json:"recipient_email" validate:"required,email"`
	Frequency      recurrence.Frequency `json:"frequency" validate:"required,frequency"`
	DayOfMonth     int                  `json:"day_of_month" validate:"gte=0,lte=31"`
	NextDueDate    time.Time            `json:"next_due_date" validate:"required"`
	DaysBeforeDue  int                  `json:"days_before_due" validate:"gte=0,lte=90"`
}
