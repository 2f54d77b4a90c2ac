package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/internal/notification"
	"github.com/rentledger/payment-engine/internal/recurrence"
	"github.com/rentledger/payment-engine/internal/repository"
	"github.com/rentledger/payment-engine/internal/validation"
	customError "github.com/rentledger/payment-engine/pkg/errors"
)

// ReminderDispatcher sends recurring reminders attached to any entity of the
// system. It steps reminders with the same recurrence as payment schedules;
// the occurrence table keeps each due date from being sent twice.
type ReminderDispatcher struct {
	uow      repository.UnitOfWork
	notifier *notification.Notifier
	validate *validator.Validate
	clock    clock.Clock
	logger   *slog.Logger
}

func NewReminderDispatcher(
	uow repository.UnitOfWork,
	notifier *notification.Notifier,
	clk clock.Clock,
	log *slog.Logger,
) *ReminderDispatcher {
	return &ReminderDispatcher{
		uow:      uow,
		notifier: notifier,
		validate: validation.New(),
		clock:    clk,
		logger:   logger.OrDiscard(log),
	}
}

// CreateReminder stores a reminder. Entities owned by this service must
// exist in the company; vendors and maintenance tickets are taken as given.
func (d *ReminderDispatcher) CreateReminder(ctx context.Context, request *domain.CreateReminderRequest) (*domain.Reminder, error) {
	if err := d.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Describe(err))
	}

	repos := d.uow.Repositories()
	if err := d.resolveRelated(ctx, repos, request.CompanyID, request.Related); err != nil {
		return nil, customError.Lift(err)
	}

	nextDue := recurrence.CalendarDate(request.NextDueDate)
	anchor := request.DayOfMonth
	if anchor == 0 {
		anchor = nextDue.Day()
	}

	now := d.clock.Now()
	reminder := &domain.Reminder{
		ID:             uuid.New().String(),
		CompanyID:      request.CompanyID,
		RelatedEntity:  request.Related,
		Title:          request.Title,
		Message:        request.Message,
		RecipientEmail: request.RecipientEmail,
		Frequency:      request.Frequency,
		DayOfMonth:     anchor,
		NextDueDate:    nextDue,
		DaysBeforeDue:  request.DaysBeforeDue,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := repos.Reminders.Create(ctx, reminder); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	d.logger.InfoContext(ctx, "reminder created",
		slog.String("reminder_id", reminder.ID),
		slog.String("related", reminder.RelatedEntity.String()),
	)
	return reminder, nil
}

func (d *ReminderDispatcher) resolveRelated(ctx context.Context, repos *repository.Repositories, companyID string, related domain.RelatedEntity) error {
	var err error
	switch related.Kind {
	case domain.EntityKindProperty:
		_, err = repos.Directory.GetProperty(ctx, companyID, related.ID)
	case domain.EntityKindTenant:
		_, err = repos.Directory.GetTenant(ctx, companyID, related.ID)
	case domain.EntityKindPayment:
		_, err = repos.Payments.GetByID(ctx, companyID, related.ID)
	case domain.EntityKindSchedule:
		_, err = repos.Schedules.GetByID(ctx, companyID, related.ID)
	default:
		return nil
	}

	if errors.Is(err, repository.ErrRecordNotFound) {
		return customError.WrapValidationf("%s %s does not exist", related.Kind, related.ID)
	}
	return err
}

// ListReminders returns the company's reminders, optionally for one entity.
func (d *ReminderDispatcher) ListReminders(ctx context.Context, companyID string, related *domain.RelatedEntity) ([]*domain.Reminder, error) {
	reminders, err := d.uow.Repositories().Reminders.List(ctx, companyID, related)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return reminders, nil
}

func (d *ReminderDispatcher) DeactivateReminder(ctx context.Context, companyID, reminderID string) (*domain.Reminder, error) {
	repos := d.uow.Repositories()

	err := repos.Reminders.Deactivate(ctx, companyID, reminderID, d.clock.Now())
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, customError.WrapNotFound("Reminder", reminderID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	reminder, err := repos.Reminders.GetByID(ctx, companyID, reminderID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return reminder, nil
}

// DispatchDue sends every active reminder whose window has opened by asOf
// and advances it by one period. An empty companyID covers every company.
// It returns the number of reminders sent.
func (d *ReminderDispatcher) DispatchDue(ctx context.Context, companyID string, asOf time.Time) (int, error) {
	candidates, err := d.uow.Repositories().Reminders.ListDispatchCandidates(ctx, companyID)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	sent := 0
	for _, reminder := range candidates {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if !reminder.Series().Due(asOf) {
			continue
		}

		due := recurrence.DateOf(reminder.NextDueDate)
		created, err := d.step(ctx, reminder)
		if err != nil {
			d.logger.ErrorContext(ctx, "reminder dispatch failed",
				slog.String("reminder_id", reminder.ID),
				slog.Any("error", err),
			)
			continue
		}
		if !created {
			continue
		}

		d.notifier.Notify(ctx, reminder.RecipientEmail, reminder.Title, reminderBody(reminder, due))
		sent++
	}

	d.logger.InfoContext(ctx, "reminder dispatch finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("sent", sent),
	)
	return sent, nil
}

func (d *ReminderDispatcher) step(ctx context.Context, reminder *domain.Reminder) (bool, error) {
	var created bool

	err := d.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		now := d.clock.Now()

		var lastSent *time.Time
		var next time.Time
		var err error
		created, next, err = reminder.Series().Step(ctx, recurrence.Hooks{
			Exists: func(ctx context.Context, due time.Time) (bool, error) {
				return repos.Reminders.OccurrenceExists(ctx, reminder.ID, due)
			},
			Create: func(ctx context.Context, due time.Time) error {
				if err := repos.Reminders.CreateOccurrence(ctx, &domain.ReminderOccurrence{
					ReminderID: reminder.ID,
					DueDate:    due,
					SentAt:     now,
				}); err != nil {
					return err
				}
				lastSent = &now
				return nil
			},
			Advance: func(ctx context.Context, next time.Time) error {
				return repos.Reminders.Advance(ctx, reminder.ID, next, lastSent, now)
			},
		})
		if err != nil {
			return err
		}

		reminder.NextDueDate = next
		return nil
	})
	return created, err
}

func reminderBody(reminder *domain.Reminder, due time.Time) string {
	body := fmt.Sprintf("Due %s for %s.", due.Format("2006-01-02"), reminder.RelatedEntity)
	if reminder.Message != "" {
		body = reminder.Message + "\n\n" + body
	}
	return body
}
