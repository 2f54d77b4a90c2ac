package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/config"
	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/lock"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/internal/recurrence"
	"github.com/rentledger/payment-engine/internal/repository"
	"github.com/rentledger/payment-engine/internal/validation"
	customError "github.com/rentledger/payment-engine/pkg/errors"
	"github.com/rentledger/payment-engine/pkg/money"
)

// PaymentLifecycle owns payment creation and status transitions. Moving a
// payment into confirmed allocates it in the same transaction.
type PaymentLifecycle struct {
	uow       repository.UnitOfWork
	locker    lock.Locker
	allocator *AllocationEngine
	refs      *ReferenceGenerator
	fees      *FeeCalculator
	validate  *validator.Validate
	clock     clock.Clock
	config    config.BusinessConfig
	logger    *slog.Logger
}

func NewPaymentLifecycle(
	uow repository.UnitOfWork,
	locker lock.Locker,
	allocator *AllocationEngine,
	refs *ReferenceGenerator,
	fees *FeeCalculator,
	clk clock.Clock,
	cfg config.BusinessConfig,
	log *slog.Logger,
) *PaymentLifecycle {
	return &PaymentLifecycle{
		uow:       uow,
		locker:    locker,
		allocator: allocator,
		refs:      refs,
		fees:      fees,
		validate:  validation.New(),
		clock:     clk,
		config:    cfg,
		logger:    logger.OrDiscard(log),
	}
}

// Create records a new pending payment with its fees and reference.
func (s *PaymentLifecycle) Create(ctx context.Context, request *domain.CreatePaymentRequest) (*domain.Payment, error) {
	if err := s.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Describe(err))
	}

	var payment *domain.Payment
	err := s.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		payment, err = s.createInTx(ctx, repos, request)
		return err
	})
	if err != nil {
		return nil, customError.Lift(err)
	}

	s.logger.InfoContext(ctx, "payment created",
		slog.String("payment", payment.Reference),
		slog.String("company_id", payment.CompanyID),
		slog.String("amount", payment.Amount.StringFixed(2)),
		slog.String("net_amount", payment.NetAmount.StringFixed(2)),
		slog.Bool("is_late", payment.IsLate),
	)
	return payment, nil
}

// createInTx is the single creation path shared by Create and schedule generation.
func (s *PaymentLifecycle) createInTx(ctx context.Context, repos *repository.Repositories, request *domain.CreatePaymentRequest) (*domain.Payment, error) {
	// 1. Resolve links inside the company
	if err := s.resolveLinks(ctx, repos, request.CompanyID, request.PropertyID, request.TenantID); err != nil {
		return nil, err
	}

	var method *domain.PaymentMethod
	if request.PaymentMethodID != nil {
		var err error
		method, err = repos.Fees.PaymentMethod(ctx, request.CompanyID, *request.PaymentMethodID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, customError.WrapValidationf("payment method %s does not exist", *request.PaymentMethodID)
		}
		if err != nil {
			return nil, err
		}
	}

	amount := money.Round(request.Amount)
	if !amount.IsPositive() {
		return nil, customError.WrapValidation("amount must be greater than zero")
	}

	// 2. Lateness and fees
	now := s.clock.Now()
	dueDate := recurrence.CalendarDate(request.DueDate)
	daysLate := recurrence.DaysBetween(dueDate, now)
	if daysLate < 0 {
		daysLate = 0
	}

	rule, err := repos.Fees.ActiveLateFeeRule(ctx, request.CompanyID)
	if err != nil {
		return nil, err
	}

	lateFee := s.fees.ComputeLateFee(rule, amount, daysLate)
	processingFee := s.fees.ComputeProcessingFee(method, amount)

	currency := strings.ToUpper(request.Currency)
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	payment := &domain.Payment{
		ID:                  uuid.New().String(),
		CompanyID:           request.CompanyID,
		PropertyID:          request.PropertyID,
		TenantID:            request.TenantID,
		ScheduleID:          request.ScheduleID,
		PaymentMethodID:     request.PaymentMethodID,
		Amount:              amount,
		Currency:            currency,
		DueDate:             dueDate,
		Status:              domain.PaymentStatusPending,
		LateFeeAmount:       decimal.NewNullDecimal(lateFee),
		ProcessingFeeAmount: decimal.NewNullDecimal(processingFee),
		IsLate:              daysLate > 0,
		DaysLate:            daysLate,
		Notes:               request.Notes,
		CreatedBy:           request.CreatedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	payment.RecomputeNet()

	// 3. Reference and insert
	_, err = s.refs.Assign(ctx, domain.PaymentReferencePrefix, repos.Payments.ReferenceExists, func(reference string) error {
		payment.Reference = reference
		return repos.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (s *PaymentLifecycle) resolveLinks(ctx context.Context, repos *repository.Repositories, companyID, propertyID string, tenantID *string) error {
	if _, err := repos.Directory.GetProperty(ctx, companyID, propertyID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return customError.WrapValidationf("property %s does not exist", propertyID)
		}
		return err
	}

	if tenantID != nil {
		if _, err := repos.Directory.GetTenant(ctx, companyID, *tenantID); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return customError.WrapValidationf("tenant %s does not exist", *tenantID)
			}
			return err
		}
	}
	return nil
}

// UpdateStatus sets a payment's status. Cancelled and refunded payments keep
// their status. Entering confirmed from any other status stamps the payment date and allocates the payment unless it was
// allocated before. Status, allocation rows, payouts and the allocated flag
// are committed together or not at all.
func (s *PaymentLifecycle) UpdateStatus(ctx context.Context, companyID, paymentID string, status domain.PaymentStatus, actor string) (*domain.Payment, error) {
	if !status.Valid() {
		return nil, customError.WrapValidationf("invalid payment status %q", status)
	}

	release, err := s.locker.Lock(ctx, paymentLockKey(paymentID))
	if err != nil {
		return nil, fmt.Errorf("lock payment %s: %w", paymentID, err)
	}
	defer release()

	var (
		payment  *domain.Payment
		previous domain.PaymentStatus
	)

	err = s.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		payment, err = repos.Payments.GetByID(ctx, companyID, paymentID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return customError.WrapNotFound("Payment", paymentID)
		}
		if err != nil {
			return err
		}

		previous = payment.Status
		if previous.Terminal() && status != previous {
			return customError.WrapValidationf("payment %s is %s and cannot change status", payment.Reference, previous)
		}

		now := s.clock.Now()
		confirming := status == domain.PaymentStatusConfirmed && previous != domain.PaymentStatusConfirmed
		if confirming {
			payment.PaymentDate = &now
		}

		if err := repos.Payments.UpdateStatus(ctx, payment.ID, status, payment.PaymentDate, now); err != nil {
			return err
		}
		payment.Status = status
		payment.UpdatedAt = now

		if confirming && !payment.IsAllocated {
			if _, err := s.allocator.allocate(ctx, repos, payment, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, customError.Lift(err)
	}

	s.logger.InfoContext(ctx, "payment status updated",
		slog.String("payment", payment.Reference),
		slog.String("from", string(previous)),
		slog.String("to", string(status)),
		slog.Bool("is_allocated", payment.IsAllocated),
		slog.String("actor", actor),
	)
	return payment, nil
}

// Get returns one payment of the company.
func (s *PaymentLifecycle) Get(ctx context.Context, companyID, paymentID string) (*domain.Payment, error) {
	return s.get(ctx, s.uow.Repositories(), companyID, paymentID)
}

func (s *PaymentLifecycle) get(ctx context.Context, repos *repository.Repositories, companyID, paymentID string) (*domain.Payment, error) {
	payment, err := repos.Payments.GetByID(ctx, companyID, paymentID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, customError.WrapNotFound("Payment", paymentID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payment, nil
}

// Detail returns a payment with its allocations and payouts.
func (s *PaymentLifecycle) Detail(ctx context.Context, companyID, paymentID string) (*domain.PaymentDetailResponse, error) {
	repos := s.uow.Repositories()

	payment, err := s.get(ctx, repos, companyID, paymentID)
	if err != nil {
		return nil, err
	}

	allocations, err := repos.Allocations.ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	payouts, err := repos.Payouts.ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.PaymentDetailResponse{
		Payment:     payment,
		Allocations: allocations,
		Payouts:     payouts,
	}, nil
}

// List returns the company's payments matching filter.
func (s *PaymentLifecycle) List(ctx context.Context, companyID string, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, customError.WrapValidationf("invalid payment status %q", filter.Status)
	}
	if filter.DueFrom != nil && filter.DueTo != nil && filter.DueFrom.After(*filter.DueTo) {
		return nil, customError.WrapValidation("due_from must not be after due_to")
	}

	payments, err := s.uow.Repositories().Payments.List(ctx, companyID, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// Allocations returns the allocation rows of one payment.
func (s *PaymentLifecycle) Allocations(ctx context.Context, companyID, paymentID string) ([]*domain.Allocation, error) {
	repos := s.uow.Repositories()

	payment, err := s.get(ctx, repos, companyID, paymentID)
	if err != nil {
		return nil, err
	}

	allocations, err := repos.Allocations.ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return allocations, nil
}

// Payouts returns the payouts created from one payment.
func (s *PaymentLifecycle) Payouts(ctx context.Context, companyID, paymentID string) ([]*domain.BeneficiaryPayout, error) {
	repos := s.uow.Repositories()

	payment, err := s.get(ctx, repos, companyID, paymentID)
	if err != nil {
		return nil, err
	}

	payouts, err := repos.Payouts.ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payouts, nil
}

// MarkOverdue moves pending payments due before asOf to overdue and
// refreshes their lateness, late fee and net amount. An empty companyID
// covers every company. It returns the number of payments updated.
func (s *PaymentLifecycle) MarkOverdue(ctx context.Context, companyID string, asOf time.Time) (int, error) {
	asOfDate := recurrence.DateOf(asOf)

	candidates, err := s.uow.Repositories().Payments.ListOverdueCandidates(ctx, companyID, asOfDate)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	marked := 0
	for _, payment := range candidates {
		changed, err := s.markOverdue(ctx, payment, asOfDate)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to mark payment overdue",
				slog.String("payment", payment.Reference),
				slog.Any("error", err),
			)
			continue
		}
		if changed {
			marked++
		}
	}

	s.logger.InfoContext(ctx, "overdue payments marked",
		slog.Int("candidates", len(candidates)),
		slog.Int("marked", marked),
		slog.Time("as_of", asOfDate),
	)
	return marked, nil
}

func (s *PaymentLifecycle) markOverdue(ctx context.Context, payment *domain.Payment, asOf time.Time) (bool, error) {
	release, err := s.locker.Lock(ctx, paymentLockKey(payment.ID))
	if err != nil {
		return false, err
	}
	defer release()

	var changed bool
	err = s.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		rule, err := repos.Fees.ActiveLateFeeRule(ctx, payment.CompanyID)
		if err != nil {
			return err
		}

		daysLate := recurrence.DaysBetween(payment.DueDate, asOf)
		payment.Status = domain.PaymentStatusOverdue
		payment.IsLate = daysLate > 0
		payment.DaysLate = daysLate
		payment.LateFeeAmount = decimal.NewNullDecimal(s.fees.ComputeLateFee(rule, payment.Amount, daysLate))
		payment.RecomputeNet()
		payment.UpdatedAt = s.clock.Now()

		changed, err = repos.Payments.UpdateLateness(ctx, payment)
		return err
	})
	return changed, err
}
