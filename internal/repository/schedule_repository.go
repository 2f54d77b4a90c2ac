package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/domain"
)

const scheduleColumns = `id, company_id, property_id, tenant_id, payment_method_id, amount, currency, frequency,
	day_of_month, next_due_date, last_generated_date, days_before_due, auto_generate, is_active, created_at, updated_at`

type scheduleRepository struct {
	ext sqlx.ExtContext
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.PaymentSchedule) error {
	query := `
		INSERT INTO payment_schedules (` + scheduleColumns + `)
		VALUES (:id, :company_id, :property_id, :tenant_id, :payment_method_id, :amount, :currency, :frequency,
			:day_of_month, :next_due_date, :last_generated_date, :days_before_due, :auto_generate, :is_active, :created_at, :updated_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.ext, query, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, companyID, id string) (*domain.PaymentSchedule, error) {
	query := r.ext.Rebind(`SELECT ` + scheduleColumns + ` FROM payment_schedules WHERE company_id = ? AND id = ?`)

	var schedule domain.PaymentSchedule
	if err := sqlx.GetContext(ctx, r.ext, &schedule, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) List(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error) {
	query := r.ext.Rebind(`SELECT ` + scheduleColumns + ` FROM payment_schedules WHERE company_id = ? ORDER BY next_due_date, id`)

	schedules := []*domain.PaymentSchedule{}
	if err := sqlx.SelectContext(ctx, r.ext, &schedules, query, companyID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) ListGenerationCandidates(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM payment_schedules WHERE is_active = TRUE AND auto_generate = TRUE`
	var args []any

	if companyID != "" {
		query += ` AND company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY next_due_date, id`

	schedules := []*domain.PaymentSchedule{}
	if err := sqlx.SelectContext(ctx, r.ext, &schedules, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list generation candidates: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) Advance(ctx context.Context, id string, nextDue time.Time, lastGenerated *time.Time, updatedAt time.Time) error {
	query := r.ext.Rebind(`
		UPDATE payment_schedules
		SET next_due_date = ?, last_generated_date = COALESCE(?, last_generated_date), updated_at = ?
		WHERE id = ?
	`)

	res, err := r.ext.ExecContext(ctx, query, nextDue, lastGenerated, updatedAt, id)
	if err != nil {
		return fmt.Errorf("advance schedule %s: %w", id, err)
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

func (r *scheduleRepository) Deactivate(ctx context.Context, companyID, id string, updatedAt time.Time) error {
	query := r.ext.Rebind(`UPDATE payment_schedules SET is_active = FALSE, updated_at = ? WHERE company_id = ? AND id = ?`)

	res, err := r.ext.ExecContext(ctx, query, updatedAt, companyID, id)
	if err != nil {
		return fmt.Errorf("deactivate schedule %s: %w", id, err)
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
