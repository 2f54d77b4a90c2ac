package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/domain"
)

const paymentColumns = `id, company_id, property_id, tenant_id, schedule_id, payment_method_id, reference,
	amount, currency, due_date, payment_date, status, late_fee_amount, processing_fee_amount,
	net_amount, is_late, days_late, is_allocated, allocation_date, notes, created_by, created_at, updated_at`

type paymentRepository struct {
	ext  sqlx.ExtContext
	inTx bool
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (:id, :company_id, :property_id, :tenant_id, :schedule_id, :payment_method_id, :reference,
			:amount, :currency, :due_date, :payment_date, :status, :late_fee_amount, :processing_fee_amount,
			:net_amount, :is_late, :days_late, :is_allocated, :allocation_date, :notes, :created_by, :created_at, :updated_at)
	`

	err := insertUnique(ctx, r.ext, r.inTx, "payment_insert", func() error {
		_, err := sqlx.NamedExecContext(ctx, r.ext, query, payment)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert payment %s: %w", payment.Reference, err)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, companyID, id string) (*domain.Payment, error) {
	query := r.ext.Rebind(`SELECT ` + paymentColumns + ` FROM payments WHERE company_id = ? AND id = ?`)

	var payment domain.Payment
	if err := sqlx.GetContext(ctx, r.ext, &payment, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, companyID string, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	var where strings.Builder
	args := []any{companyID}
	where.WriteString("company_id = ?")

	if filter.PropertyID != "" {
		where.WriteString(" AND property_id = ?")
		args = append(args, filter.PropertyID)
	}
	if filter.Status != "" {
		where.WriteString(" AND status = ?")
		args = append(args, filter.Status)
	}
	if filter.DueFrom != nil {
		where.WriteString(" AND due_date >= ?")
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		where.WriteString(" AND due_date <= ?")
		args = append(args, *filter.DueTo)
	}

	query := r.ext.Rebind(`SELECT ` + paymentColumns + ` FROM payments WHERE ` + where.String() +
		` ORDER BY due_date DESC, reference`)

	payments := []*domain.Payment{}
	if err := sqlx.SelectContext(ctx, r.ext, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	query := r.ext.Rebind(`SELECT COUNT(*) FROM payments WHERE reference = ?`)

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, query, reference); err != nil {
		return false, fmt.Errorf("check payment reference: %w", err)
	}
	return count > 0, nil
}

func (r *paymentRepository) ExistsForDueDate(ctx context.Context, propertyID, tenantID string, dueDate time.Time) (bool, error) {
	query := r.ext.Rebind(`
		SELECT COUNT(*) FROM payments
		WHERE property_id = ? AND tenant_id = ? AND due_date = ?
	`)

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, query, propertyID, tenantID, dueDate); err != nil {
		return false, fmt.Errorf("check payment for due date: %w", err)
	}
	return count > 0, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentDate *time.Time, updatedAt time.Time) error {
	query := r.ext.Rebind(`
		UPDATE payments
		SET status = ?, payment_date = ?, updated_at = ?
		WHERE id = ?
	`)

	res, err := r.ext.ExecContext(ctx, query, status, paymentDate, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *paymentRepository) ClaimAllocation(ctx context.Context, id string, at time.Time) (bool, error) {
	query := r.ext.Rebind(`
		UPDATE payments
		SET is_allocated = TRUE, allocation_date = ?, updated_at = ?
		WHERE id = ? AND is_allocated = FALSE
	`)

	res, err := r.ext.ExecContext(ctx, query, at, at, id)
	if err != nil {
		return false, fmt.Errorf("claim payment allocation: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *paymentRepository) UpdateLateness(ctx context.Context, payment *domain.Payment) (bool, error) {
	query := `
		UPDATE payments
		SET status = :status, is_late = :is_late, days_late = :days_late,
			late_fee_amount = :late_fee_amount, net_amount = :net_amount, updated_at = :updated_at
		WHERE id = :id AND status = 'pending'
	`

	res, err := sqlx.NamedExecContext(ctx, r.ext, query, payment)
	if err != nil {
		return false, fmt.Errorf("update payment lateness: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *paymentRepository) ListOverdueCandidates(ctx context.Context, companyID string, asOf time.Time) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = ? AND due_date < ?`
	args := []any{domain.PaymentStatusPending, asOf}

	if companyID != "" {
		query += ` AND company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY due_date, id`

	payments := []*domain.Payment{}
	if err := sqlx.SelectContext(ctx, r.ext, &payments, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list overdue candidates: %w", err)
	}
	return payments, nil
}
