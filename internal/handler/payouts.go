package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/pkg/response"
)

type PayoutHandler struct {
	payouts PayoutService
}

func NewPayoutHandler(payouts PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

func (h *PayoutHandler) Register(api *mux.Router) {
	api.HandleFunc("/payouts", h.ListPayouts).Methods(http.MethodGet)
	api.HandleFunc("/payouts/{id}/process", h.ProcessPayout).Methods(http.MethodPost)
	api.HandleFunc("/payouts/{id}/fail", h.FailPayout).Methods(http.MethodPost)
	api.HandleFunc("/payouts/{id}/cancel", h.CancelPayout).Methods(http.MethodPost)
}

// ListPayouts handles GET /payouts?status=
func (h *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	payouts, err := h.payouts.List(r.Context(), company, domain.PayoutStatus(r.URL.Query().Get("status")))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payouts)
}

// ProcessPayout handles POST /payouts/{id}/process
func (h *PayoutHandler) ProcessPayout(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.ProcessPayoutRequest
	if !decode(w, r, &request) {
		return
	}

	payout, err := h.payouts.ProcessPayout(r.Context(), company, pathID(r), request.TransactionReference)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payout)
}

// FailPayout handles POST /payouts/{id}/fail
func (h *PayoutHandler) FailPayout(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.FailPayoutRequest
	if !decode(w, r, &request) {
		return
	}

	payout, err := h.payouts.FailPayout(r.Context(), company, pathID(r), request.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payout)
}

// CancelPayout handles POST /payouts/{id}/cancel
func (h *PayoutHandler) CancelPayout(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	payout, err := h.payouts.CancelPayout(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payout)
}
