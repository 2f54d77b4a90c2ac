package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/domain"
)

const reminderColumns = `id, company_id, related_kind, related_id, title, message, recipient_email, frequency,
	day_of_month, next_due_date, days_before_due, last_sent_date, is_active, created_at, updated_at`

type reminderRepository struct {
	ext sqlx.ExtContext
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES (:id, :company_id, :related_kind, :related_id, :title, :message, :recipient_email, :frequency,
			:day_of_month, :next_due_date, :days_before_due, :last_sent_date, :is_active, :created_at, :updated_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.ext, query, reminder); err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, companyID, id string) (*domain.Reminder, error) {
	query := r.ext.Rebind(`SELECT ` + reminderColumns + ` FROM reminders WHERE company_id = ? AND id = ?`)

	var reminder domain.Reminder
	if err := sqlx.GetContext(ctx, r.ext, &reminder, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &reminder, nil
}

func (r *reminderRepository) List(ctx context.Context, companyID string, related *domain.RelatedEntity) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE company_id = ?`
	args := []any{companyID}

	if related != nil {
		query += ` AND related_kind = ? AND related_id = ?`
		args = append(args, related.Kind, related.ID)
	}
	query += ` ORDER BY next_due_date, id`

	reminders := []*domain.Reminder{}
	if err := sqlx.SelectContext(ctx, r.ext, &reminders, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) ListDispatchCandidates(ctx context.Context, companyID string) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE is_active = TRUE`
	var args []any

	if companyID != "" {
		query += ` AND company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY next_due_date, id`

	reminders := []*domain.Reminder{}
	if err := sqlx.SelectContext(ctx, r.ext, &reminders, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list dispatch candidates: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) OccurrenceExists(ctx context.Context, reminderID string, dueDate time.Time) (bool, error) {
	query := r.ext.Rebind(`SELECT COUNT(*) FROM reminder_occurrences WHERE reminder_id = ? AND due_date = ?`)

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, query, reminderID, dueDate); err != nil {
		return false, fmt.Errorf("check reminder occurrence: %w", err)
	}
	return count > 0, nil
}

func (r *reminderRepository) CreateOccurrence(ctx context.Context, occurrence *domain.ReminderOccurrence) error {
	query := `
		INSERT INTO reminder_occurrences (reminder_id, due_date, sent_at)
		VALUES (:reminder_id, :due_date, :sent_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.ext, query, occurrence); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reminder %s already sent for %s", ErrDuplicate, occurrence.ReminderID, occurrence.DueDate.Format("2006-01-02"))
		}
		return fmt.Errorf("insert reminder occurrence: %w", err)
	}
	return nil
}

func (r *reminderRepository) Advance(ctx context.Context, id string, nextDue time.Time, lastSent *time.Time, updatedAt time.Time) error {
	query := r.ext.Rebind(`
		UPDATE reminders
		SET next_due_date = ?, last_sent_date = COALESCE(?, last_sent_date), updated_at = ?
		WHERE id = ?
	`)

	res, err := r.ext.ExecContext(ctx, query, nextDue, lastSent, updatedAt, id)
	if err != nil {
		return fmt.Errorf("advance reminder %s: %w", id, err)
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

func (r *reminderRepository) Deactivate(ctx context.Context, companyID, id string, updatedAt time.Time) error {
	query := r.ext.Rebind(`UPDATE reminders SET is_active = FALSE, updated_at = ? WHERE company_id = ? AND id = ?`)

	res, err := r.ext.ExecContext(ctx, query, updatedAt, companyID, id)
	if err != nil {
		return fmt.Errorf("deactivate reminder %s: %w", id, err)
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
