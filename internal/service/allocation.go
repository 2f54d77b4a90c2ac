package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/lock"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/internal/repository"
	customError "github.com/rentledger/payment-engine/pkg/errors"
	"github.com/rentledger/payment-engine/pkg/money"
)

// AllocationEngine distributes a confirmed payment's gross amount across the
// property's active beneficiaries and gives the remainder to the owner.
type AllocationEngine struct {
	uow     repository.UnitOfWork
	locker  lock.Locker
	payouts *PayoutManager
	clock   clock.Clock
	logger  *slog.Logger
}

func NewAllocationEngine(
	uow repository.UnitOfWork,
	locker lock.Locker,
	payouts *PayoutManager,
	clk clock.Clock,
	log *slog.Logger,
) *AllocationEngine {
	return &AllocationEngine{
		uow:     uow,
		locker:  locker,
		payouts: payouts,
		clock:   clk,
		logger:  logger.OrDiscard(log),
	}
}

func paymentLockKey(paymentID string) string {
	return "payment:" + paymentID
}

// Allocate allocates a confirmed payment that has not been allocated yet.
func (e *AllocationEngine) Allocate(ctx context.Context, companyID, paymentID, actor string) ([]*domain.Allocation, error) {
	release, err := e.locker.Lock(ctx, paymentLockKey(paymentID))
	if err != nil {
		return nil, fmt.Errorf("lock payment %s: %w", paymentID, err)
	}
	defer release()

	var allocations []*domain.Allocation
	err = e.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		payment, err := repos.Payments.GetByID(ctx, companyID, paymentID)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return customError.WrapNotFound("Payment", paymentID)
		}
		if err != nil {
			return err
		}

		if payment.IsAllocated {
			return customError.WrapAlreadyAllocated(payment.Reference)
		}
		if payment.Status != domain.PaymentStatusConfirmed {
			return customError.WrapValidationf("payment %s must be confirmed before allocation, status is %s",
				payment.Reference, payment.Status)
		}

		allocations, err = e.allocate(ctx, repos, payment, actor)
		return err
	})
	if err != nil {
		return nil, customError.Lift(err)
	}

	return allocations, nil
}

// allocate runs inside the caller's transaction. The conditional claim on
// the payment row makes a second allocation of the same payment impossible
// even when two confirmations race.
func (e *AllocationEngine) allocate(ctx context.Context, repos *repository.Repositories, payment *domain.Payment, actor string) ([]*domain.Allocation, error) {
	now := e.clock.Now()

	// 1. Claim the payment
	claimed, err := repos.Payments.ClaimAllocation(ctx, payment.ID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, customError.WrapAlreadyAllocated(payment.Reference)
	}

	// 2. Compute the distribution
	beneficiaries, err := repos.Beneficiaries.ListActiveByProperty(ctx, payment.CompanyID, payment.PropertyID)
	if err != nil {
		return nil, err
	}

	allocations, err := ComputeAllocations(payment, beneficiaries, now, actor)
	if err != nil {
		return nil, err
	}

	// 3. Persist rows and payouts
	if err := repos.Allocations.CreateBatch(ctx, allocations); err != nil {
		return nil, err
	}

	payouts, err := e.payouts.CreatePayoutsFromAllocations(ctx, repos, allocations, payment)
	if err != nil {
		return nil, err
	}

	payment.IsAllocated = true
	payment.AllocationDate = &now

	e.logger.InfoContext(ctx, "payment allocated",
		slog.String("payment", payment.Reference),
		slog.Int("allocations", len(allocations)),
		slog.Int("payouts", len(payouts)),
		slog.String("actor", actor),
	)
	return allocations, nil
}

// ComputeAllocations splits payment.Amount across beneficiaries.
//
// Beneficiaries are taken in ID order. A percentage commission gets
// amount * value / 100 and a fixed commission gets value, each rounded to
// cents. Whatever is left goes to the owner as one remainder row; nothing is
// emitted for an exact split. Commissions adding up to more than the payment
// are rejected rather than over-distributed.
func ComputeAllocations(payment *domain.Payment, beneficiaries []*domain.Beneficiary, at time.Time, actor string) ([]*domain.Allocation, error) {
	gross := payment.Amount

	ordered := make([]*domain.Beneficiary, len(beneficiaries))
	copy(ordered, beneficiaries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	allocations := make([]*domain.Allocation, 0, len(ordered)+1)
	allocated := decimal.Zero

	for _, b := range ordered {
		var amount, percentage decimal.Decimal
		switch b.CommissionType {
		case domain.CommissionTypePercentage:
			amount = money.Round(money.Percent(gross, b.CommissionValue))
			percentage = b.CommissionValue
		case domain.CommissionTypeFixed:
			amount = money.Round(b.CommissionValue)
			percentage = decimal.Zero
		default:
			return nil, customError.WrapValidationf("beneficiary %s has unknown commission type %q", b.ID, b.CommissionType)
		}

		beneficiaryID := b.ID
		allocations = append(allocations, &domain.Allocation{
			ID:             uuid.New().String(),
			PaymentID:      payment.ID,
			BeneficiaryID:  &beneficiaryID,
			Amount:         amount,
			Percentage:     percentage,
			AllocationType: domain.AllocationTypeBeneficiary,
			AllocationDate: at,
			AllocatedBy:    actor,
		})
		allocated = allocated.Add(amount)
	}

	remainder := gross.Sub(allocated)
	if remainder.IsNegative() {
		return nil, customError.WrapValidationf("beneficiary allocations of %s exceed payment %s amount of %s",
			allocated.StringFixed(2), payment.Reference, gross.StringFixed(2))
	}

	if remainder.IsPositive() {
		allocations = append(allocations, &domain.Allocation{
			ID:             uuid.New().String(),
			PaymentID:      payment.ID,
			Amount:         remainder,
			Percentage:     money.ShareOf(remainder, gross),
			AllocationType: domain.AllocationTypeOwnerRemainder,
			AllocationDate: at,
			AllocatedBy:    actor,
		})
	}

	return allocations, nil
}
