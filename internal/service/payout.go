package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/internal/notification"
	"github.com/rentledger/payment-engine/internal/repository"
	customError "github.com/rentledger/payment-engine/pkg/errors"
)

// PayoutManager creates beneficiary payouts from allocations and moves them
// through pending -> processed | failed | cancelled.
type PayoutManager struct {
	uow      repository.UnitOfWork
	refs     *ReferenceGenerator
	notifier *notification.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

func NewPayoutManager(
	uow repository.UnitOfWork,
	refs *ReferenceGenerator,
	notifier *notification.Notifier,
	clk clock.Clock,
	log *slog.Logger,
) *PayoutManager {
	return &PayoutManager{
		uow:      uow,
		refs:     refs,
		notifier: notifier,
		clock:    clk,
		logger:   logger.OrDiscard(log),
	}
}

// CreatePayoutsFromAllocations creates one pending payout per beneficiary
// allocation inside the caller's transaction. Owner remainder rows are skipped.
func (m *PayoutManager) CreatePayoutsFromAllocations(
	ctx context.Context,
	repos *repository.Repositories,
	allocations []*domain.Allocation,
	payment *domain.Payment,
) ([]*domain.BeneficiaryPayout, error) {
	now := m.clock.Now()
	payouts := make([]*domain.BeneficiaryPayout, 0, len(allocations))

	for _, allocation := range allocations {
		if !allocation.HasBeneficiary() {
			continue
		}

		payout := &domain.BeneficiaryPayout{
			ID:            uuid.New().String(),
			CompanyID:     payment.CompanyID,
			AllocationID:  allocation.ID,
			PaymentID:     payment.ID,
			BeneficiaryID: *allocation.BeneficiaryID,
			Amount:        allocation.Amount,
			Status:        domain.PayoutStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		_, err := m.refs.Assign(ctx, domain.PayoutReferencePrefix, repos.Payouts.ReferenceExists, func(reference string) error {
			payout.Reference = reference
			return repos.Payouts.Create(ctx, payout)
		})
		if err != nil {
			return nil, fmt.Errorf("create payout for allocation %s: %w", allocation.ID, err)
		}

		payouts = append(payouts, payout)
	}

	return payouts, nil
}

// ProcessPayout records that a pending payout was paid out under the given
// external transaction reference, then notifies the beneficiary.
func (m *PayoutManager) ProcessPayout(ctx context.Context, companyID, payoutID, transactionReference string) (*domain.BeneficiaryPayout, error) {
	transactionReference = strings.TrimSpace(transactionReference)

	var (
		payout      *domain.BeneficiaryPayout
		beneficiary *domain.Beneficiary
	)

	err := m.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		payout, err = m.loadPending(ctx, repos, companyID, payoutID)
		if err != nil {
			return err
		}
		if transactionReference == "" {
			return customError.WrapValidation("transaction_reference is required")
		}

		now := m.clock.Now()
		payout.Status = domain.PayoutStatusProcessed
		payout.TransactionReference = &transactionReference
		payout.PaymentDate = &now
		payout.UpdatedAt = now

		if err := m.transition(ctx, repos, payout, domain.PayoutStatusPending); err != nil {
			return err
		}

		beneficiary, err = repos.Beneficiaries.GetByID(ctx, companyID, payout.BeneficiaryID)
		if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, customError.Lift(err)
	}

	m.logger.InfoContext(ctx, "payout processed",
		slog.String("payout", payout.Reference),
		slog.String("transaction_reference", transactionReference),
		slog.String("amount", payout.Amount.StringFixed(2)),
	)

	if beneficiary != nil {
		m.notifier.Notify(ctx, beneficiary.Email,
			fmt.Sprintf("Payout %s processed", payout.Reference),
			fmt.Sprintf("Hello %s,\n\nYour payout %s of %s has been sent (transaction %s).",
				beneficiary.Name, payout.Reference, payout.Amount.StringFixed(2), transactionReference),
		)
	}

	return payout, nil
}

// FailPayout marks a pending payout failed with a reason.
func (m *PayoutManager) FailPayout(ctx context.Context, companyID, payoutID, reason string) (*domain.BeneficiaryPayout, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, customError.WrapValidation("reason is required")
	}

	return m.close(ctx, companyID, payoutID, domain.PayoutStatusFailed, &reason)
}

// CancelPayout withdraws a pending payout.
func (m *PayoutManager) CancelPayout(ctx context.Context, companyID, payoutID string) (*domain.BeneficiaryPayout, error) {
	return m.close(ctx, companyID, payoutID, domain.PayoutStatusCancelled, nil)
}

func (m *PayoutManager) close(ctx context.Context, companyID, payoutID string, status domain.PayoutStatus, reason *string) (*domain.BeneficiaryPayout, error) {
	var payout *domain.BeneficiaryPayout

	err := m.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		payout, err = m.loadPending(ctx, repos, companyID, payoutID)
		if err != nil {
			return err
		}

		payout.Status = status
		payout.FailureReason = reason
		payout.UpdatedAt = m.clock.Now()
		return m.transition(ctx, repos, payout, domain.PayoutStatusPending)
	})
	if err != nil {
		return nil, customError.Lift(err)
	}

	m.logger.InfoContext(ctx, "payout closed",
		slog.String("payout", payout.Reference),
		slog.String("status", string(status)),
	)
	return payout, nil
}

// List returns the company's payouts. An empty status lists all of them.
func (m *PayoutManager) List(ctx context.Context, companyID string, status domain.PayoutStatus) ([]*domain.BeneficiaryPayout, error) {
	if status != "" && !status.Valid() {
		return nil, customError.WrapValidationf("invalid payout status %q", status)
	}

	payouts, err := m.uow.Repositories().Payouts.List(ctx, companyID, status)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payouts, nil
}

func (m *PayoutManager) loadPending(ctx context.Context, repos *repository.Repositories, companyID, payoutID string) (*domain.BeneficiaryPayout, error) {
	payout, err := repos.Payouts.GetByID(ctx, companyID, payoutID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, customError.WrapNotFound("Payout", payoutID)
	}
	if err != nil {
		return nil, err
	}

	if payout.Status != domain.PayoutStatusPending {
		return nil, customError.WrapAlreadyProcessed("Payout", payout.Reference, string(payout.Status))
	}
	return payout, nil
}

func (m *PayoutManager) transition(ctx context.Context, repos *repository.Repositories, payout *domain.BeneficiaryPayout, from domain.PayoutStatus) error {
	changed, err := repos.Payouts.Transition(ctx, payout, from)
	if err != nil {
		return err
	}
	if !changed {
		// Another writer moved the payout between our read and this update.
		return customError.NewBusinessError(
			customError.ErrCodeAlreadyProcessed,
			fmt.Sprintf("Payout %s is no longer pending", payout.Reference),
			customError.ErrAlreadyProcessed,
		)
	}
	return nil
}
