package repository

import (
	"context"
	"time"

	"github.com/rentledger/payment-engine/internal/domain"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create inserts a payment. A reference collision returns ErrDuplicate.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment inside a company scope
	GetByID(ctx context.Context, companyID, id string) (*domain.Payment, error)

	// List returns the company's payments matching the filter, newest due date first
	List(ctx context.Context, companyID string, filter domain.PaymentFilter) ([]*domain.Payment, error)

	// ReferenceExists reports whether a payment already uses the reference
	ReferenceExists(ctx context.Context, reference string) (bool, error)

	// ExistsForDueDate reports whether a payment exists for the property, tenant and due date
	ExistsForDueDate(ctx context.Context, propertyID, tenantID string, dueDate time.Time) (bool, error)

	// UpdateStatus sets the status and payment date of a payment
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentDate *time.Time, updatedAt time.Time) error

	// ClaimAllocation flips is_allocated from false to true. It reports false
	// when the payment was already claimed.
	ClaimAllocation(ctx context.Context, id string, at time.Time) (bool, error)

	// UpdateLateness persists status, lateness, late fee and net amount while
	// the stored payment is still pending. It reports whether the row changed.
	UpdateLateness(ctx context.Context, payment *domain.Payment) (bool, error)

	// ListOverdueCandidates returns pending payments due before asOf. An empty
	// companyID covers every company.
	ListOverdueCandidates(ctx context.Context, companyID string, asOf time.Time) ([]*domain.Payment, error)
}

// AllocationRepository defines the interface for allocation data operations
type AllocationRepository interface {
	// CreateBatch inserts every allocation of one payment
	CreateBatch(ctx context.Context, allocations []*domain.Allocation) error

	// ListByPayment returns a payment's allocations, beneficiary rows first
	ListByPayment(ctx context.Context, paymentID string) ([]*domain.Allocation, error)
}

// PayoutRepository defines the interface for beneficiary payout data operations
type PayoutRepository interface {
	// Create inserts a payout. A reference collision returns ErrDuplicate.
	Create(ctx context.Context, payout *domain.BeneficiaryPayout) error

	ReferenceExists(ctx context.Context, reference string) (bool, error)

	GetByID(ctx context.Context, companyID, id string) (*domain.BeneficiaryPayout, error)

	ListByPayment(ctx context.Context, paymentID string) ([]*domain.BeneficiaryPayout, error)

	// List returns the company's payouts, optionally narrowed to one status
	List(ctx context.Context, companyID string, status domain.PayoutStatus) ([]*domain.BeneficiaryPayout, error)

	// Transition persists payout's status and settlement fields if the stored
	// status still equals from. It reports whether the row changed.
	Transition(ctx context.Context, payout *domain.BeneficiaryPayout, from domain.PayoutStatus) (bool, error)
}

// ScheduleRepository defines the interface for payment schedule data operations
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.PaymentSchedule) error

	GetByID(ctx context.Context, companyID, id string) (*domain.PaymentSchedule, error)

	List(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error)

	// ListGenerationCandidates returns active auto-generating schedules. An
	// empty companyID covers every company.
	ListGenerationCandidates(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error)

	// Advance moves the schedule to its next due date
	Advance(ctx context.Context, id string, nextDue time.Time, lastGenerated *time.Time, updatedAt time.Time) error

	Deactivate(ctx context.Context, companyID, id string, updatedAt time.Time) error
}

// BeneficiaryRepository reads the beneficiaries of a property
type BeneficiaryRepository interface {
	// ListActiveByProperty returns active beneficiaries ordered by ID
	ListActiveByProperty(ctx context.Context, companyID, propertyID string) ([]*domain.Beneficiary, error)

	GetByID(ctx context.Context, companyID, id string) (*domain.Beneficiary, error)
}

// FeeRepository reads fee rules and payment methods
type FeeRepository interface {
	// ActiveLateFeeRule returns the company's active late fee rule, or nil when it has none
	ActiveLateFeeRule(ctx context.Context, companyID string) (*domain.LateFeeRule, error)

	PaymentMethod(ctx context.Context, companyID, id string) (*domain.PaymentMethod, error)
}

// DirectoryRepository resolves properties and tenants within a company
type DirectoryRepository interface {
	GetProperty(ctx context.Context, companyID, id string) (*domain.Property, error)

	GetTenant(ctx context.Context, companyID, id string) (*domain.Tenant, error)
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error

	GetByID(ctx context.Context, companyID, id string) (*domain.Reminder, error)

	// List returns the company's reminders, optionally for one related entity
	List(ctx context.Context, companyID string, related *domain.RelatedEntity) ([]*domain.Reminder, error)

	// ListDispatchCandidates returns active reminders. An empty companyID
	// covers every company.
	ListDispatchCandidates(ctx context.Context, companyID string) ([]*domain.Reminder, error)

	OccurrenceExists(ctx context.Context, reminderID string, dueDate time.Time) (bool, error)

	CreateOccurrence(ctx context.Context, occurrence *domain.ReminderOccurrence) error

	Advance(ctx context.Context, id string, nextDue time.Time, lastSent *time.Time, updatedAt time.Time) error

	Deactivate(ctx context.Context, companyID, id string, updatedAt time.Time) error
}

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Payments      PaymentRepository
	Allocations   AllocationRepository
	Payouts       PayoutRepository
	Schedules     ScheduleRepository
	Beneficiaries BeneficiaryRepository
	Fees          FeeRepository
	Directory     DirectoryRepository
	Reminders     ReminderRepository
}

// UnitOfWork hands out repositories and runs atomic sequences
type UnitOfWork interface {
	// Repositories returns repositories outside any transaction
	Repositories() *Repositories

	// WithTx runs fn in one transaction, committing only when fn returns nil
	WithTx(ctx context.Context, fn func(repos *Repositories) error) error
}
