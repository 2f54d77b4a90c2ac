package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/config"
	"github.com/rentledger/payment-engine/internal/lock"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/internal/notification"
	"github.com/rentledger/payment-engine/internal/repository"
	"github.com/rentledger/payment-engine/internal/testutil"
)

const (
	testCompany = "company-1"
	otherCompny = "company-2"
	testActor   = "user-7"
)

type sentMessage struct {
	Recipient string
	Subject   string
	Body      string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (s *recordingSender) Sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

type testEnv struct {
	db        *sqlx.DB
	store     *repository.Store
	seed      *testutil.Seed
	clock     *clock.Fixed
	sender    *recordingSender
	payouts   *PayoutManager
	allocator *AllocationEngine
	payments  *PaymentLifecycle
	schedules *RecurrenceScheduler
	reminders *ReminderDispatcher
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	store := repository.NewStore(db)
	clk := clock.NewFixed(now)
	sender := &recordingSender{}
	log := logger.Discard()
	locker := lock.NewLocal()
	notifier := notification.NewNotifier(sender, log)
	business := config.BusinessConfig{
		DefaultCurrency:      "USD",
		LockTTL:              5 * time.Second,
		ReferenceMaxAttempts: 10,
		SystemActor:          "system",
	}

	refs := NewReferenceGenerator(clk, business.ReferenceMaxAttempts)
	fees := NewFeeCalculator(log)
	payouts := NewPayoutManager(store, refs, notifier, clk, log)
	allocator := NewAllocationEngine(store, locker, payouts, clk, log)
	payments := NewPaymentLifecycle(store, locker, allocator, refs, fees, clk, business, log)

	return &testEnv{
		db:        db,
		store:     store,
		seed:      testutil.NewSeed(t, db),
		clock:     clk,
		sender:    sender,
		payouts:   payouts,
		allocator: allocator,
		payments:  payments,
		schedules: NewRecurrenceScheduler(store, locker, payments, clk, business, log),
		reminders: NewReminderDispatcher(store, notifier, clk, log),
	}
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, e.db.Rebind(query), args...); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

var errSenderDown = errors.New("smtp relay unavailable")

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}
