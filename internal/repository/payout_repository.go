package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/domain"
)

const payoutColumns = `id, company_id, reference, allocation_id, payment_id, beneficiary_id, amount, status,
	transaction_reference, payment_date, failure_reason, created_at, updated_at`

type payoutRepository struct {
	ext  sqlx.ExtContext
	inTx bool
}

func (r *payoutRepository) Create(ctx context.Context, payout *domain.BeneficiaryPayout) error {
	query := `
		INSERT INTO beneficiary_payouts (` + payoutColumns + `)
		VALUES (:id, :company_id, :reference, :allocation_id, :payment_id, :beneficiary_id, :amount, :status,
			:transaction_reference, :payment_date, :failure_reason, :created_at, :updated_at)
	`

	err := insertUnique(ctx, r.ext, r.inTx, "payout_insert", func() error {
		_, err := sqlx.NamedExecContext(ctx, r.ext, query, payout)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert payout %s: %w", payout.Reference, err)
	}
	return nil
}

func (r *payoutRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	query := r.ext.Rebind(`SELECT COUNT(*) FROM beneficiary_payouts WHERE reference = ?`)

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, query, reference); err != nil {
		return false, fmt.Errorf("check payout reference: %w", err)
	}
	return count > 0, nil
}

func (r *payoutRepository) GetByID(ctx context.Context, companyID, id string) (*domain.BeneficiaryPayout, error) {
	query := r.ext.Rebind(`SELECT ` + payoutColumns + ` FROM beneficiary_payouts WHERE company_id = ? AND id = ?`)

	var payout domain.BeneficiaryPayout
	if err := sqlx.GetContext(ctx, r.ext, &payout, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &payout, nil
}

func (r *payoutRepository) ListByPayment(ctx context.Context, paymentID string) ([]*domain.BeneficiaryPayout, error) {
	query := r.ext.Rebind(`SELECT ` + payoutColumns + ` FROM beneficiary_payouts WHERE payment_id = ? ORDER BY beneficiary_id, id`)

	payouts := []*domain.BeneficiaryPayout{}
	if err := sqlx.SelectContext(ctx, r.ext, &payouts, query, paymentID); err != nil {
		return nil, fmt.Errorf("list payouts for payment: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) List(ctx context.Context, companyID string, status domain.PayoutStatus) ([]*domain.BeneficiaryPayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM beneficiary_payouts WHERE company_id = ?`
	args := []any{companyID}

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, reference`

	payouts := []*domain.BeneficiaryPayout{}
	if err := sqlx.SelectContext(ctx, r.ext, &payouts, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) Transition(ctx context.Context, payout *domain.BeneficiaryPayout, from domain.PayoutStatus) (bool, error) {
	query := r.ext.Rebind(`
		UPDATE beneficiary_payouts
		SET status = ?, transaction_reference = ?, payment_date = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	res, err := r.ext.ExecContext(ctx, query,
		payout.Status,
		payout.TransactionReference,
		payout.PaymentDate,
		payout.FailureReason,
		payout.UpdatedAt,
		payout.ID,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("update payout %s: %w", payout.Reference, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
