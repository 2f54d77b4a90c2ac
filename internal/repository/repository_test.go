package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/recurrence"
	"github.com/rentledger/payment-engine/internal/testutil"
)

const companyID = "company-1"

var now = time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)

func newPayment(property *domain.Property, tenant *domain.Tenant, reference string, due time.Time) *domain.Payment {
	tenantID := tenant.ID
	p := &domain.Payment{
		ID:         uuid.New().String(),
		CompanyID:  property.CompanyID,
		PropertyID: property.ID,
		TenantID:   &tenantID,
		Reference:  reference,
		Amount:     decimal.RequireFromString("1000.00"),
		Currency:   "USD",
		DueDate:    recurrence.DateOf(due),
		Status:     domain.PaymentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.RecomputeNet()
	return p
}

func setup(t *testing.T) (*Store, *testutil.Seed) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewStore(db), testutil.NewSeed(t, db)
}

func TestPaymentRepository_CreateAndGet(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	property := seed.Property(companyID, "owner@example.com")
	tenant := seed.Tenant(companyID, "tenant@example.com")

	p := newPayment(property, tenant, "PAY-20240120-AAAAAA", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	p.LateFeeAmount = decimal.NewNullDecimal(decimal.RequireFromString("35.00"))
	p.RecomputeNet()
	require.NoError(t, store.Repositories().Payments.Create(ctx, p))

	got, err := store.Repositories().Payments.GetByID(ctx, companyID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Reference, got.Reference)
	assert.Equal(t, "1000.00", got.Amount.StringFixed(2))
	assert.Equal(t, "1035.00", got.NetAmount.StringFixed(2))
	assert.True(t, got.LateFeeAmount.Valid)
	assert.False(t, got.ProcessingFeeAmount.Valid)
	assert.True(t, got.DueDate.Equal(p.DueDate))
	require.NotNil(t, got.TenantID)
	assert.Equal(t, tenant.ID, *got.TenantID)
	assert.Nil(t, got.PaymentDate)
	assert.False(t, got.IsAllocated)

	_, err = store.Repositories().Payments.GetByID(ctx, "other-company", p.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPaymentRepository_DuplicateReferenceKeepsTransactionUsable(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	property := seed.Property(companyID, "")
	tenant := seed.Tenant(companyID, "")
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Repositories().Payments.Create(ctx, newPayment(property, tenant, "PAY-20240120-AAAAAA", due)))

	var retried *domain.Payment
	err := store.WithTx(ctx, func(repos *Repositories) error {
		dup := newPayment(property, tenant, "PAY-20240120-AAAAAA", due)
		err := repos.Payments.Create(ctx, dup)
		if !errors.Is(err, ErrDuplicate) {
			return errors.New("expected a duplicate reference")
		}

		retried = dup
		retried.Reference = "PAY-20240120-BBBBBB"
		return repos.Payments.Create(ctx, retried)
	})
	require.NoError(t, err)

	exists, err := store.Repositories().Payments.ReferenceExists(ctx, "PAY-20240120-BBBBBB")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPaymentRepository_ClaimAllocationOnce(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	p := newPayment(seed.Property(companyID, ""), seed.Tenant(companyID, ""), "PAY-20240120-CCCCCC", now)
	require.NoError(t, store.Repositories().Payments.Create(ctx, p))

	claimed, err := store.Repositories().Payments.ClaimAllocation(ctx, p.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Repositories().Payments.ClaimAllocation(ctx, p.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := store.Repositories().Payments.GetByID(ctx, companyID, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAllocated)
	require.NotNil(t, got.AllocationDate)
	assert.True(t, got.AllocationDate.Equal(now))
}

func TestPaymentRepository_ExistsForDueDateAndList(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	property := seed.Property(companyID, "")
	tenant := seed.Tenant(companyID, "")
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	confirmed := newPayment(property, tenant, "PAY-20240120-000001", march)
	confirmed.Status = domain.PaymentStatusConfirmed
	require.NoError(t, store.Repositories().Payments.Create(ctx, confirmed))
	require.NoError(t, store.Repositories().Payments.Create(ctx, newPayment(property, tenant, "PAY-20240120-000002", april)))

	exists, err := store.Repositories().Payments.ExistsForDueDate(ctx, property.ID, tenant.ID, march)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Repositories().Payments.ExistsForDueDate(ctx, property.ID, tenant.ID, march.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, exists)

	all, err := store.Repositories().Payments.List(ctx, companyID, domain.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "PAY-20240120-000002", all[0].Reference)

	byStatus, err := store.Repositories().Payments.List(ctx, companyID, domain.PaymentFilter{Status: domain.PaymentStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, confirmed.ID, byStatus[0].ID)

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	byRange, err := store.Repositories().Payments.List(ctx, companyID, domain.PaymentFilter{DueFrom: &from})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, "PAY-20240120-000002", byRange[0].Reference)

	overdue, err := store.Repositories().Payments.ListOverdueCandidates(ctx, "", time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "PAY-20240120-000002", overdue[0].Reference)

	late := overdue[0]
	late.Status = domain.PaymentStatusOverdue
	late.IsLate = true
	late.DaysLate = 1
	changed, err := store.Repositories().Payments.UpdateLateness(ctx, late)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Repositories().Payments.UpdateLateness(ctx, late)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	p := newPayment(seed.Property(companyID, ""), seed.Tenant(companyID, ""), "PAY-20240120-DDDDDD", now)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(repos *Repositories) error {
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Repositories().Payments.GetByID(ctx, companyID, p.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestAllocationAndPayoutRepositories(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	property := seed.Property(companyID, "")
	agent := seed.Beneficiary("b-1", property, domain.CommissionTypePercentage, "10")
	p := newPayment(property, seed.Tenant(companyID, ""), "PAY-20240120-EEEEEE", now)
	require.NoError(t, store.Repositories().Payments.Create(ctx, p))

	agentID := agent.ID
	rows := []*domain.Allocation{
		{ID: uuid.New().String(), PaymentID: p.ID, Amount: decimal.RequireFromString("900.00"), Percentage: decimal.RequireFromString("90"), AllocationType: domain.AllocationTypeOwnerRemainder, AllocationDate: now, AllocatedBy: "tester"},
		{ID: uuid.New().String(), PaymentID: p.ID, BeneficiaryID: &agentID, Amount: decimal.RequireFromString("100.00"), Percentage: decimal.RequireFromString("10"), AllocationType: domain.AllocationTypeBeneficiary, AllocationDate: now, AllocatedBy: "tester"},
	}

	var created bool
	err := store.WithTx(ctx, func(repos *Repositories) error {
		if err := repos.Allocations.CreateBatch(ctx, rows); err != nil {
			return err
		}
		payout := &domain.BeneficiaryPayout{
			ID:            uuid.New().String(),
			CompanyID:     companyID,
			Reference:     "PO-20240120-AAAAAA",
			AllocationID:  rows[1].ID,
			PaymentID:     p.ID,
			BeneficiaryID: agentID,
			Amount:        rows[1].Amount,
			Status:        domain.PayoutStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		created = true
		return repos.Payouts.Create(ctx, payout)
	})
	require.NoError(t, err)
	require.True(t, created)

	allocations, err := store.Repositories().Allocations.ListByPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	assert.Equal(t, domain.AllocationTypeBeneficiary, allocations[0].AllocationType)
	assert.True(t, allocations[0].HasBeneficiary())
	assert.False(t, allocations[1].HasBeneficiary())

	payouts, err := store.Repositories().Payouts.ListByPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)

	payout := payouts[0]
	ref := "TXN-1"
	paidAt := now.Add(time.Hour)
	payout.Status = domain.PayoutStatusProcessed
	payout.TransactionReference = &ref
	payout.PaymentDate = &paidAt
	payout.UpdatedAt = paidAt

	changed, err := store.Repositories().Payouts.Transition(ctx, payout, domain.PayoutStatusPending)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Repositories().Payouts.Transition(ctx, payout, domain.PayoutStatusPending)
	require.NoError(t, err)
	assert.False(t, changed)

	processed, err := store.Repositories().Payouts.List(ctx, companyID, domain.PayoutStatusProcessed)
	require.NoError(t, err)
	require.Len(t, processed, 1)
	require.NotNil(t, processed[0].TransactionReference)
	assert.Equal(t, "TXN-1", *processed[0].TransactionReference)
}

func TestLookupRepositories(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	repos := store.Repositories()
	property := seed.Property(companyID, "owner@example.com")
	seed.Beneficiary("b-2", property, domain.CommissionTypeFixed, "50")
	seed.Beneficiary("b-1", property, domain.CommissionTypePercentage, "10")

	beneficiaries, err := repos.Beneficiaries.ListActiveByProperty(ctx, companyID, property.ID)
	require.NoError(t, err)
	require.Len(t, beneficiaries, 2)
	assert.Equal(t, "b-1", beneficiaries[0].ID)
	assert.Equal(t, "50.00", beneficiaries[1].CommissionValue.StringFixed(2))

	b, err := repos.Beneficiaries.GetByID(ctx, companyID, "b-2")
	require.NoError(t, err)
	assert.Equal(t, "b-2@example.com", b.Email)

	rule, err := repos.Fees.ActiveLateFeeRule(ctx, companyID)
	require.NoError(t, err)
	assert.Nil(t, rule)

	seed.LateFeeRule(companyID, 10, "25", "2")
	rule, err = repos.Fees.ActiveLateFeeRule(ctx, companyID)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, 10, rule.GracePeriodDays)

	_, err = repos.Fees.PaymentMethod(ctx, companyID, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	got, err := repos.Directory.GetProperty(ctx, companyID, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", got.Email)

	_, err = repos.Directory.GetTenant(ctx, companyID, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestScheduleRepository(t *testing.T) {
	store, seed := setup(t)
	ctx := context.Background()
	repos := store.Repositories()
	property := seed.Property(companyID, "")
	tenant := seed.Tenant(companyID, "")

	schedule := &domain.PaymentSchedule{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		PropertyID:    property.ID,
		TenantID:      tenant.ID,
		Amount:        decimal.RequireFromString("1200"),
		Currency:      "USD",
		Frequency:     recurrence.Monthly,
		DayOfMonth:    31,
		NextDueDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		DaysBeforeDue: 5,
		AutoGenerate:  true,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repos.Schedules.Create(ctx, schedule))

	candidates, err := repos.Schedules.ListGenerationCandidates(ctx, "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, recurrence.Monthly, candidates[0].Frequency)

	next := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Schedules.Advance(ctx, schedule.ID, next, &now, now))

	got, err := repos.Schedules.GetByID(ctx, companyID, schedule.ID)
	require.NoError(t, err)
	assert.True(t, got.NextDueDate.Equal(next))
	require.NotNil(t, got.LastGeneratedDate)

	// A nil last generated date keeps the stored one.
	require.NoError(t, repos.Schedules.Advance(ctx, schedule.ID, next.AddDate(0, 1, 0), nil, now))
	got, err = repos.Schedules.GetByID(ctx, companyID, schedule.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastGeneratedDate)
	assert.True(t, got.LastGeneratedDate.Equal(now))

	require.NoError(t, repos.Schedules.Deactivate(ctx, companyID, schedule.ID, now))
	candidates, err = repos.Schedules.ListGenerationCandidates(ctx, companyID)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	assert.ErrorIs(t, repos.Schedules.Deactivate(ctx, "other-company", schedule.ID, now), ErrRecordNotFound)
}

func TestReminderRepository(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()
	repos := store.Repositories()

	reminder := &domain.Reminder{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		RelatedEntity:  domain.RelatedEntity{Kind: domain.EntityKindVendor, ID: "vendor-7"},
		Title:          "Renew insurance",
		RecipientEmail: "ops@example.com",
		Frequency:      recurrence.Annual,
		NextDueDate:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		DaysBeforeDue:  14,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repos.Reminders.Create(ctx, reminder))

	listed, err := repos.Reminders.List(ctx, companyID, &domain.RelatedEntity{Kind: domain.EntityKindVendor, ID: "vendor-7"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "vendor/vendor-7", listed[0].RelatedEntity.String())

	occurrence := &domain.ReminderOccurrence{ReminderID: reminder.ID, DueDate: reminder.NextDueDate, SentAt: now}
	require.NoError(t, repos.Reminders.CreateOccurrence(ctx, occurrence))
	assert.ErrorIs(t, repos.Reminders.CreateOccurrence(ctx, occurrence), ErrDuplicate)

	exists, err := repos.Reminders.OccurrenceExists(ctx, reminder.ID, reminder.NextDueDate)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repos.Reminders.Deactivate(ctx, companyID, reminder.ID, now))
	candidates, err := repos.Reminders.ListDispatchCandidates(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
