package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/recurrence"
	customError "github.com/rentledger/payment-engine/pkg/errors"
)

type scheduleFixture struct {
	property *domain.Property
	tenant   *domain.Tenant
}

func newScheduleFixture(env *testEnv) scheduleFixture {
	return scheduleFixture{
		property: env.seed.Property(testCompany, "owner@example.com"),
		tenant:   env.seed.Tenant(testCompany, "tenant@example.com"),
	}
}

func (f scheduleFixture) request(frequency recurrence.Frequency, nextDue time.Time, leadDays int) *domain.CreateScheduleRequest {
	return &domain.CreateScheduleRequest{
		CompanyID:     testCompany,
		PropertyID:    f.property.ID,
		TenantID:      f.tenant.ID,
		Amount:        decimal.RequireFromString("1500.00"),
		Frequency:     frequency,
		NextDueDate:   nextDue,
		DaysBeforeDue: leadDays,
	}
}

func TestRecurrenceScheduler_GeneratesInsideWindow(t *testing.T) {
	now := time.Date(2024, 1, 27, 2, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	ctx := context.Background()
	fixture := newScheduleFixture(env)

	schedule, err := env.schedules.CreateSchedule(ctx, fixture.request(recurrence.Monthly, date(2024, 2, 1), 5))
	require.NoError(t, err)
	assert.Equal(t, 1, schedule.DayOfMonth)
	assert.True(t, schedule.AutoGenerate)
	assert.Equal(t, "USD", schedule.Currency)

	generated, err := env.schedules.GenerateDue(ctx, testCompany, date(2024, 1, 26))
	require.NoError(t, err)
	assert.Equal(t, 0, generated)

	generated, err = env.schedules.GenerateDue(ctx, testCompany, date(2024, 1, 27))
	require.NoError(t, err)
	assert.Equal(t, 1, generated)

	payments, err := env.payments.List(ctx, testCompany, domain.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	payment := payments[0]
	assert.True(t, payment.DueDate.Equal(date(2024, 2, 1)))
	assert.Equal(t, "1500.00", payment.Amount.StringFixed(2))
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.Equal(t, "system", payment.CreatedBy)
	assert.Equal(t, "Generated from monthly schedule", payment.Notes)
	assert.False(t, payment.IsLate)
	require.NotNil(t, payment.ScheduleID)
	assert.Equal(t, schedule.ID, *payment.ScheduleID)
	require.NotNil(t, payment.TenantID)
	assert.Equal(t, fixture.tenant.ID, *payment.TenantID)

	stored, err := env.schedules.GetSchedule(ctx, testCompany, schedule.ID)
	require.NoError(t, err)
	assert.True(t, stored.NextDueDate.Equal(date(2024, 3, 1)))
	require.NotNil(t, stored.LastGeneratedDate)

	// The March window only opens on 2024-02-25.
	generated, err = env.schedules.GenerateDue(ctx, testCompany, date(2024, 1, 27))
	require.NoError(t, err)
	assert.Equal(t, 0, generated)
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM payments`))
}

func TestRecurrenceScheduler_MonthEndRollover(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	fixture := newScheduleFixture(env)

	schedule, err := env.schedules.CreateSchedule(ctx, fixture.request(recurrence.Monthly, date(2024, 1, 31), 0))
	require.NoError(t, err)
	assert.Equal(t, 31, schedule.DayOfMonth)

	expected := []time.Time{date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30)}
	asOf := date(2024, 1, 31)
	for _, next := range expected {
		generated, err := env.schedules.GenerateDue(ctx, testCompany, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, generated)

		stored, err := env.schedules.GetSchedule(ctx, testCompany, schedule.ID)
		require.NoError(t, err)
		assert.True(t, stored.NextDueDate.Equal(next), "want %s, got %s", next, stored.NextDueDate)
		asOf = next
	}
}

func TestRecurrenceScheduler_SkipsExistingPaymentButAdvances(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	fixture := newScheduleFixture(env)

	schedule, err := env.schedules.CreateSchedule(ctx, fixture.request(recurrence.Monthly, date(2024, 2, 1), 5))
	require.NoError(t, err)

	_, err = env.payments.Create(ctx, &domain.CreatePaymentRequest{
		CompanyID:  testCompany,
		PropertyID: fixture.property.ID,
		TenantID:   &fixture.tenant.ID,
		Amount:     decimal.RequireFromString("1500.00"),
		DueDate:    date(2024, 2, 1),
	})
	require.NoError(t, err)

	generated, err := env.schedules.GenerateDue(ctx, testCompany, date(2024, 1, 28))
	require.NoError(t, err)
	assert.Equal(t, 0, generated)
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM payments`))

	stored, err := env.schedules.GetSchedule(ctx, testCompany, schedule.ID)
	require.NoError(t, err)
	assert.True(t, stored.NextDueDate.Equal(date(2024, 3, 1)))
	assert.Nil(t, stored.LastGeneratedDate)
}

func TestRecurrenceScheduler_FailureDoesNotStopBatch(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	fixture := newScheduleFixture(env)

	good, err := env.schedules.CreateSchedule(ctx, fixture.request(recurrence.Weekly, date(2024, 1, 29), 3))
	require.NoError(t, err)

	// A schedule whose tenant belongs to another company cannot generate.
	foreignTenant := env.seed.Tenant(otherCompny, "stray@example.com")
	broken := &domain.PaymentSchedule{
		ID:           uuid.New().String(),
		CompanyID:    testCompany,
		PropertyID:   fixture.property.ID,
		TenantID:     foreignTenant.ID,
		Amount:       decimal.RequireFromString("900.00"),
		Currency:     "USD",
		Frequency:    recurrence.Monthly,
		DayOfMonth:   1,
		NextDueDate:  date(2024, 1, 28),
		AutoGenerate: true,
		IsActive:     true,
		CreatedAt:    env.clock.Now(),
		UpdatedAt:    env.clock.Now(),
	}
	require.NoError(t, env.store.Repositories().Schedules.Create(ctx, broken))

	generated, err := env.schedules.GenerateDue(ctx, testCompany, date(2024, 1, 28))
	require.NoError(t, err)
	assert.Equal(t, 1, generated)

	stored, err := env.schedules.GetSchedule(ctx, testCompany, good.ID)
	require.NoError(t, err)
	assert.True(t, stored.NextDueDate.Equal(date(2024, 2, 5)))

	stuck, err := env.schedules.GetSchedule(ctx, testCompany, broken.ID)
	require.NoError(t, err)
	assert.True(t, stuck.NextDueDate.Equal(date(2024, 1, 28)))
}

func TestRecurrenceScheduler_IgnoresInactiveAndManualSchedules(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	fixture := newScheduleFixture(env)

	manual := fixture.request(recurrence.Monthly, date(2024, 2, 1), 5)
	off := false
	manual.AutoGenerate = &off
	_, err := env.schedules.CreateSchedule(ctx, manual)
	require.NoError(t, err)

	deactivated, err := env.schedules.CreateSchedule(ctx, fixture.request(recurrence.Quarterly, date(2024, 2, 1), 5))
	require.NoError(t, err)
	stopped, err := env.schedules.DeactivateSchedule(ctx, testCompany, deactivated.ID)
	require.NoError(t, err)
	assert.False(t, stopped.IsActive)

	generated, err := env.schedules.GenerateDue(ctx, "", date(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 0, generated)

	schedules, err := env.schedules.ListSchedules(ctx, testCompany)
	require.NoError(t, err)
	assert.Len(t, schedules, 2)

	_, err = env.schedules.DeactivateSchedule(ctx, otherCompny, deactivated.ID)
	assert.ErrorIs(t, err, customError.ErrNotFound)
}

func TestRecurrenceScheduler_CreateScheduleValidation(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	fixture := newScheduleFixture(env)
	foreign := env.seed.Property(otherCompny, "other@example.com")

	tests := []struct {
		name   string
		mutate func(r *domain.CreateScheduleRequest)
	}{
		{name: "unknown frequency", mutate: func(r *domain.CreateScheduleRequest) { r.Frequency = "daily" }},
		{name: "zero amount", mutate: func(r *domain.CreateScheduleRequest) { r.Amount = decimal.Zero }},
		{name: "anchor out of range", mutate: func(r *domain.CreateScheduleRequest) { r.DayOfMonth = 32 }},
		{name: "negative lead days", mutate: func(r *domain.CreateScheduleRequest) { r.DaysBeforeDue = -1 }},
		{name: "foreign property", mutate: func(r *domain.CreateScheduleRequest) { r.PropertyID = foreign.ID }},
		{name: "unknown payment method", mutate: func(r *domain.CreateScheduleRequest) { r.PaymentMethodID = strPtr("card-404") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := fixture.request(recurrence.Monthly, date(2024, 2, 1), 5)
			tt.mutate(request)

			_, err := env.schedules.CreateSchedule(ctx, request)
			assert.ErrorIs(t, err, customError.ErrValidation)
		})
	}

	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM payment_schedules`))
}

func TestRecurrenceScheduler_GetScheduleNotFound(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC))

	_, err := env.schedules.GetSchedule(context.Background(), testCompany, "missing")
	assert.ErrorIs(t, err, customError.ErrNotFound)
}
