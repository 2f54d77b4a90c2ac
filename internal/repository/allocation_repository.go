package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/domain"
)

type allocationRepository struct {
	ext sqlx.ExtContext
}

// CreateBatch expects to run inside the transaction that claimed the payment.
func (r *allocationRepository) CreateBatch(ctx context.Context, allocations []*domain.Allocation) error {
	query := `
		INSERT INTO allocations (id, payment_id, beneficiary_id, amount, percentage, allocation_type, allocation_date, allocated_by)
		VALUES (:id, :payment_id, :beneficiary_id, :amount, :percentage, :allocation_type, :allocation_date, :allocated_by)
	`

	for _, allocation := range allocations {
		if _, err := sqlx.NamedExecContext(ctx, r.ext, query, allocation); err != nil {
			return fmt.Errorf("insert allocation for payment %s: %w", allocation.PaymentID, err)
		}
	}
	return nil
}

func (r *allocationRepository) ListByPayment(ctx context.Context, paymentID string) ([]*domain.Allocation, error) {
	query := r.ext.Rebind(`
		SELECT id, payment_id, beneficiary_id, amount, percentage, allocation_type, allocation_date, allocated_by
		FROM allocations
		WHERE payment_id = ?
		ORDER BY CASE allocation_type WHEN 'beneficiary' THEN 0 ELSE 1 END, beneficiary_id, id
	`)

	allocations := []*domain.Allocation{}
	if err := sqlx.SelectContext(ctx, r.ext, &allocations, query, paymentID); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}
