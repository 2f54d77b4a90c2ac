package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rentledger/payment-engine/internal/domain"
	customError "github.com/rentledger/payment-engine/pkg/errors"
	"github.com/rentledger/payment-engine/pkg/response"
)

const (
	headerCompanyID = "X-Company-ID"
	headerUserID    = "X-User-ID"

	// anonymousActor is recorded when a request carries no X-User-ID.
	anonymousActor = "api"

	dateLayout = "2006-01-02"
)

// PaymentService defines the payment operations exposed over HTTP
type PaymentService interface {
	Create(ctx context.Context, request *domain.CreatePaymentRequest) (*domain.Payment, error)
	Detail(ctx context.Context, companyID, paymentID string) (*domain.PaymentDetailResponse, error)
	List(ctx context.Context, companyID string, filter domain.PaymentFilter) ([]*domain.Payment, error)
	UpdateStatus(ctx context.Context, companyID, paymentID string, status domain.PaymentStatus, actor string) (*domain.Payment, error)
	Allocations(ctx context.Context, companyID, paymentID string) ([]*domain.Allocation, error)
	Payouts(ctx context.Context, companyID, paymentID string) ([]*domain.BeneficiaryPayout, error)
}

// AllocationService defines the manual allocation trigger
type AllocationService interface {
	Allocate(ctx context.Context, companyID, paymentID, actor string) ([]*domain.Allocation, error)
}

// PayoutService defines the payout operations exposed over HTTP
type PayoutService interface {
	ProcessPayout(ctx context.Context, companyID, payoutID, transactionReference string) (*domain.BeneficiaryPayout, error)
	FailPayout(ctx context.Context, companyID, payoutID, reason string) (*domain.BeneficiaryPayout, error)
	CancelPayout(ctx context.Context, companyID, payoutID string) (*domain.BeneficiaryPayout, error)
	List(ctx context.Context, companyID string, status domain.PayoutStatus) ([]*domain.BeneficiaryPayout, error)
}

// ScheduleService defines the schedule operations exposed over HTTP
type ScheduleService interface {
	CreateSchedule(ctx context.Context, request *domain.CreateScheduleRequest) (*domain.PaymentSchedule, error)
	GetSchedule(ctx context.Context, companyID, scheduleID string) (*domain.PaymentSchedule, error)
	ListSchedules(ctx context.Context, companyID string) ([]*domain.PaymentSchedule, error)
	DeactivateSchedule(ctx context.Context, companyID, scheduleID string) (*domain.PaymentSchedule, error)
	GenerateDue(ctx context.Context, companyID string, asOf time.Time) (int, error)
}

// ReminderService defines the reminder operations exposed over HTTP
type ReminderService interface {
	CreateReminder(ctx context.Context, request *domain.CreateReminderRequest) (*domain.Reminder, error)
	ListReminders(ctx context.Context, companyID string, related *domain.RelatedEntity) ([]*domain.Reminder, error)
	DeactivateReminder(ctx context.Context, companyID, reminderID string) (*domain.Reminder, error)
}

// companyID reads the tenant scope of the request. It writes a 400 and
// returns false when the header is missing.
func companyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(headerCompanyID))
	if id == "" {
		response.FromError(w, customError.WrapValidation(headerCompanyID+" header is required"))
		return "", false
	}
	return id, true
}

func actor(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get(headerUserID)); user != "" {
		return user
	}
	return anonymousActor
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// decode reads a JSON body into v and writes a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid request body", customError.WrapValidation(err.Error()))
		return false
	}
	return true
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, customError.WrapValidationf("%s must be a date in YYYY-MM-DD format", name)
	}
	return &t, nil
}
