package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/domain"
	customError "github.com/rentledger/payment-engine/pkg/errors"
	"github.com/rentledger/payment-engine/pkg/response"
)

type ScheduleHandler struct {
	schedules ScheduleService
	clock     clock.Clock
}

func NewScheduleHandler(schedules ScheduleService, clk clock.Clock) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		clock:     clk,
	}
}

func (h *ScheduleHandler) Register(api *mux.Router) {
	api.HandleFunc("/schedules", h.CreateSchedule).Methods(http.MethodPost)
	api.HandleFunc("/schedules", h.ListSchedules).Methods(http.MethodGet)
	api.HandleFunc("/schedules/generate", h.GenerateDue).Methods(http.MethodPost)
	api.HandleFunc("/schedules/{id}", h.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id}/deactivate", h.DeactivateSchedule).Methods(http.MethodPost)
}

// CreateSchedule handles POST /schedules
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.CreateScheduleRequest
	if !decode(w, r, &request) {
		return
	}
	request.CompanyID = company

	schedule, err := h.schedules.CreateSchedule(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, schedule)
}

func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	schedules, err := h.schedules.ListSchedules(r.Context(), company)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, schedules)
}

func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	schedule, err := h.schedules.GetSchedule(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, schedule)
}

func (h *ScheduleHandler) DeactivateSchedule(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	schedule, err := h.schedules.DeactivateSchedule(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, schedule)
}

// GenerateDue handles POST /schedules/generate for the caller's company.
// The body is optional; as_of defaults to now.
func (h *ScheduleHandler) GenerateDue(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.GenerateDueRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.BadRequest(w, "Invalid request body", customError.WrapValidation(err.Error()))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &request); err != nil {
			response.BadRequest(w, "Invalid request body", customError.WrapValidation(err.Error()))
			return
		}
	}

	asOf := h.clock.Now()
	if request.AsOf != nil {
		asOf = *request.AsOf
	}

	generated, err := h.schedules.GenerateDue(r.Context(), company, asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.GenerateDueResponse{Generated: generated, AsOf: asOf})
}
