package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/pkg/response"
)

type PaymentHandler struct {
	payments  PaymentService
	allocator AllocationService
}

func NewPaymentHandler(payments PaymentService, allocator AllocationService) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		allocator: allocator,
	}
}

// Register mounts the payment routes on an /api/v1 subrouter.
func (h *PaymentHandler) Register(api *mux.Router) {
	api.HandleFunc("/payments", h.CreatePayment).Methods(http.MethodPost)
	api.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.GetPayment).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/status", h.UpdateStatus).Methods(http.MethodPut)
	api.HandleFunc("/payments/{id}/allocate", h.Allocate).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}/allocations", h.ListAllocations).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/payouts", h.ListPayouts).Methods(http.MethodGet)
}

// CreatePayment handles POST /payments
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.CreatePaymentRequest
	if !decode(w, r, &request) {
		return
	}
	request.CompanyID = company
	request.CreatedBy = actor(r)

	payment, err := h.payments.Create(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, payment)
}

// ListPayments handles GET /payments?property_id=&status=&due_from=&due_to=
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := domain.PaymentFilter{
		PropertyID: query.Get("property_id"),
		Status:     domain.PaymentStatus(query.Get("status")),
	}

	var err error
	if filter.DueFrom, err = queryDate(r, "due_from"); err != nil {
		response.FromError(w, err)
		return
	}
	if filter.DueTo, err = queryDate(r, "due_to"); err != nil {
		response.FromError(w, err)
		return
	}

	payments, err := h.payments.List(r.Context(), company, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payments)
}

// GetPayment handles GET /payments/{id} and includes allocations and payouts.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	detail, err := h.payments.Detail(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, detail)
}

// UpdateStatus handles PUT /payments/{id}/status
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.UpdatePaymentStatusRequest
	if !decode(w, r, &request) {
		return
	}

	payment, err := h.payments.UpdateStatus(r.Context(), company, pathID(r), request.Status, actor(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payment)
}

// Allocate handles POST /payments/{id}/allocate
func (h *PaymentHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	allocations, err := h.allocator.Allocate(r.Context(), company, pathID(r), actor(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, allocations)
}

func (h *PaymentHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	allocations, err := h.payments.Allocations(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, allocations)
}

func (h *PaymentHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	payouts, err := h.payments.Payouts(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payouts)
}
