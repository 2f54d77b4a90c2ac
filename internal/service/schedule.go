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

// RecurrenceScheduler turns payment schedules into payments.
type RecurrenceScheduler struct {
	uow      repository.UnitOfWork
	locker   lock.Locker
	payments *PaymentLifecycle
	validate *validator.Validate
	clock    clock.Clock
	config   config.BusinessConfig
	logger   *slog.Logger
}

func NewRecurrenceScheduler(
	uow repository.UnitOfWork,
	locker lock.Locker,
	payments *PaymentLifecycle,
	clk clock.Clock,
	cfg config.BusinessConfig,
	log *slog.Logger,
) *RecurrenceScheduler {
	return &RecurrenceScheduler{
		uow:      uow,
		locker:   locker,
		payments: payments,
		validate: validation.New(),
		clock:    clk,
		config:   cfg,
		logger:   logger.OrDiscard(log),
	}
}

// GenerateDue creates the payment for every active auto-generating schedule
// whose generation window has opened by asOf, and advances each schedule by
// one period. A payment already present for the schedule's property, tenant
// and due date is not duplicated; the schedule still advances past it.
// Failures are logged per schedule and do not stop the batch. An empty
// companyID covers every company. It returns the number of payments created.
func (s *RecurrenceScheduler) GenerateDue(ctx context.Context, companyID string, asOf time.Time) (int, error) {
	candidates, err := s.uow.Repositories().Schedules.ListGenerationCandidates(ctx, companyID)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	generated := 0
	for _, schedule := range candidates {
		if err := ctx.Err(); err != nil {
			return generated, err
		}
		if !schedule.Series().Due(asOf) {
			continue
		}

		created, err := s.generate(ctx, schedule)
		if err != nil {
			s.logger.ErrorContext(ctx, "schedule generation failed",
				slog.String("schedule_id", schedule.ID),
				slog.Time("next_due_date", schedule.NextDueDate),
				slog.Any("error", err),
			)
			continue
		}
		if created {
			generated++
		}
	}

	s.logger.InfoContext(ctx, "schedule generation finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("generated", generated),
		slog.Time("as_of", recurrence.DateOf(asOf)),
	)
	return generated, nil
}

func (s *RecurrenceScheduler) generate(ctx context.Context, schedule *domain.PaymentSchedule) (bool, error) {
	release, err := s.locker.Lock(ctx, "schedule:"+schedule.ID)
	if err != nil {
		return false, err
	}
	defer release()

	var created bool
	err = s.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		now := s.clock.Now()
		tenantID := schedule.TenantID
		scheduleID := schedule.ID

		var lastGenerated *time.Time
		var next time.Time
		var err error
		created, next, err = schedule.Series().Step(ctx, recurrence.Hooks{
			Exists: func(ctx context.Context, due time.Time) (bool, error) {
				return repos.Payments.ExistsForDueDate(ctx, schedule.PropertyID, schedule.TenantID, due)
			},
			Create: func(ctx context.Context, due time.Time) error {
				_, err := s.payments.createInTx(ctx, repos, &domain.CreatePaymentRequest{
					CompanyID:       schedule.CompanyID,
					PropertyID:      schedule.PropertyID,
					TenantID:        &tenantID,
					PaymentMethodID: schedule.PaymentMethodID,
					ScheduleID:      &scheduleID,
					Amount:          schedule.Amount,
					Currency:        schedule.Currency,
					DueDate:         due,
					Notes:           fmt.Sprintf("Generated from %s schedule", schedule.Frequency),
					CreatedBy:       s.config.SystemActor,
				})
				if err != nil {
					return err
				}
				lastGenerated = &now
				return nil
			},
			Advance: func(ctx context.Context, next time.Time) error {
				return repos.Schedules.Advance(ctx, schedule.ID, next, lastGenerated, now)
			},
		})
		if err != nil {
			return err
		}

		if !created {
			s.logger.InfoContext(ctx, "payment already exists for due date, schedule advanced",
				slog.String("schedule_id", schedule.ID),
				slog.Time("due_date", recurrence.DateOf(schedule.NextDueDate)),
			)
		}
		schedule.NextDueDate = next
		return nil
	})
	return created, err
}

// CreateSchedule stores a new schedule. A zero day_of_month anchors the
// schedule on the day of its first due date.
func (s *RecurrenceScheduler) CreateSchedule(ctx context.Context, request *domain.CreateScheduleRequest) (*domain.PaymentSchedule, error) {
	if err := s.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Describe(err))
	}

	nextDue := recurrence.CalendarDate(request.NextDueDate)
	anchor := request.DayOfMonth
	if anchor == 0 {
		anchor = nextDue.Day()
	}

	autoGenerate := true
	if request.AutoGenerate != nil {
		autoGenerate = *request.AutoGenerate
	}

	currency := strings.ToUpper(request.Currency)
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	now := s.clock.Now()
	schedule := &domain.PaymentSchedule{
		ID:              uuid.New().String(),
		CompanyID:       request.CompanyID,
		PropertyID:      request.PropertyID,
		TenantID:        request.TenantID,
		PaymentMethodID: request.PaymentMethodID,
		Amount:          money.Round(request.Amount),
		Currency:        currency,
		Frequency:       request.Frequency,
		DayOfMonth:      anchor,
		NextDueDate:     nextDue,
		DaysBeforeDue:   request.DaysBeforeDue,
		AutoGenerate:    autoGenerate,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.uow.WithTx(ctx, func(repos *repository.Repositories) error {
		tenantID := request.TenantID
		if err := s.payments.resolveLinks(ctx, repos, request.CompanyID, request.PropertyID, &tenantID); err != nil {
			return err
		}

		if request.PaymentMethodID != nil {
			_, err := repos.Fees.PaymentMethod(ctx, request.CompanyID, *request.PaymentMethodID)
			if errors.Is(err, repository.ErrRecordNotFound) {
				return customError.WrapValidationf("payment method %s does not exist", *request.PaymentMethodID)
			}
			if err != nil {
				return err
			}
		}

		return repos.Schedules.Create(ctx, schedule)
	})
	if err != nil {
		return nil, customError.Lift(err)
	}

	s.logger.InfoContext(ctx, "schedule created",
		slog.String("schedule_id", schedule.ID),
		slog.String("frequency", string(schedule.Frequency)),
		slog.Time("next_due_date", schedule.NextDueDate),
	)
	return schedule, nil
}

func (s *RecurrenceScheduler) GetSchedule(ctx context.Context, companyID, scheduleID string) (*domain.PaymentSchedule, error) {
	schedule, err := s.uow.Repositories().Schedules.GetByID(ctx, companyID, scheduleID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, customError.WrapNotFound("Schedule", scheduleID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return schedule, nil
}

func (s *RecurrenceScheduler) ListSchedules(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error) {
	schedules, err := s.uow.Repositories().Schedules.List(ctx, companyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return schedules, nil
}

// DeactivateSchedule stops generation for a schedule. The schedule is kept.
func (s *RecurrenceScheduler) DeactivateSchedule(ctx context.Context, companyID, scheduleID string) (*domain.PaymentSchedule, error) {
	err := s.uow.Repositories().Schedules.Deactivate(ctx, companyID, scheduleID, s.clock.Now())
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, customError.WrapNotFound("Schedule", scheduleID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.InfoContext(ctx, "schedule deactivated", slog.String("schedule_id", scheduleID))
	return s.GetSchedule(ctx, companyID, scheduleID)
}
