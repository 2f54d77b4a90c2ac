package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rentledger/payment-engine/internal/domain"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, request *domain.CreatePaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) Detail(ctx context.Context, companyID, paymentID string) (*domain.PaymentDetailResponse, error) {
	args := m.Called(ctx, companyID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentDetailResponse), args.Error(1)
}

func (m *MockPaymentService) List(ctx context.Context, companyID string, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) UpdateStatus(ctx context.Context, companyID, paymentID string, status domain.PaymentStatus, actor string) (*domain.Payment, error) {
	args := m.Called(ctx, companyID, paymentID, status, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) Allocations(ctx context.Context, companyID, paymentID string) ([]*domain.Allocation, error) {
	args := m.Called(ctx, companyID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Allocation), args.Error(1)
}

func (m *MockPaymentService) Payouts(ctx context.Context, companyID, paymentID string) ([]*domain.BeneficiaryPayout, error) {
	args := m.Called(ctx, companyID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BeneficiaryPayout), args.Error(1)
}

type MockAllocationService struct {
	mock.Mock
}

func (m *MockAllocationService) Allocate(ctx context.Context, companyID, paymentID, actor string) ([]*domain.Allocation, error) {
	args := m.Called(ctx, companyID, paymentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Allocation), args.Error(1)
}

type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) ProcessPayout(ctx context.Context, companyID, payoutID, transactionReference string) (*domain.BeneficiaryPayout, error) {
	args := m.Called(ctx, companyID, payoutID, transactionReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BeneficiaryPayout), args.Error(1)
}

func (m *MockPayoutService) FailPayout(ctx context.Context, companyID, payoutID, reason string) (*domain.BeneficiaryPayout, error) {
	args := m.Called(ctx, companyID, payoutID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BeneficiaryPayout), args.Error(1)
}

func (m *MockPayoutService) CancelPayout(ctx context.Context, companyID, payoutID string) (*domain.BeneficiaryPayout, error) {
	args := m.Called(ctx, companyID, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BeneficiaryPayout), args.Error(1)
}

func (m *MockPayoutService) List(ctx context.Context, companyID string, status domain.PayoutStatus) ([]*domain.BeneficiaryPayout, error) {
	args := m.Called(ctx, companyID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BeneficiaryPayout), args.Error(1)
}

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) CreateSchedule(ctx context.Context, request *domain.CreateScheduleRequest) (*domain.PaymentSchedule, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleService) GetSchedule(ctx context.Context, companyID, scheduleID string) (*domain.PaymentSchedule, error) {
	args := m.Called(ctx, companyID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleService) ListSchedules(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleService) DeactivateSchedule(ctx context.Context, companyID, scheduleID string) (*domain.PaymentSchedule, error) {
	args := m.Called(ctx, companyID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleService) GenerateDue(ctx context.Context, companyID string, asOf time.Time) (int, error) {
	args := m.Called(ctx, companyID, asOf)
	return args.Int(0), args.Error(1)
}

type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) CreateReminder(ctx context.Context, request *domain.CreateReminderRequest) (*domain.Reminder, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *MockReminderService) ListReminders(ctx context.Context, companyID string, related *domain.RelatedEntity) ([]*domain.Reminder, error) {
	args := m.Called(ctx, companyID, related)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reminder), args.Error(1)
}

func (m *MockReminderService) DeactivateReminder(ctx context.Context, companyID, reminderID string) (*domain.Reminder, error) {
	args := m.Called(ctx, companyID, reminderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

// MockPinger stubs a storage health check.
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
