package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rentledger/payment-engine/internal/domain"
	customError "github.com/rentledger/payment-engine/pkg/errors"
	"github.com/rentledger/payment-engine/pkg/response"
)

type ReminderHandler struct {
	reminders ReminderService
}

func NewReminderHandler(reminders ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

func (h *ReminderHandler) Register(api *mux.Router) {
	api.HandleFunc("/reminders", h.CreateReminder).Methods(http.MethodPost)
	api.HandleFunc("/reminders", h.ListReminders).Methods(http.MethodGet)
	api.HandleFunc("/reminders/{id}/deactivate", h.DeactivateReminder).Methods(http.MethodPost)
}

// CreateReminder handles POST /reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	var request domain.CreateReminderRequest
	if !decode(w, r, &request) {
		return
	}
	request.CompanyID = company

	reminder, err := h.reminders.CreateReminder(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, reminder)
}

// ListReminders handles GET /reminders?related_kind=&related_id=
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var related *domain.RelatedEntity
	kind, id := query.Get("related_kind"), query.Get("related_id")
	if kind != "" || id != "" {
		entity := domain.RelatedEntity{Kind: domain.EntityKind(kind), ID: id}
		if !entity.Kind.Valid() || entity.ID == "" {
			response.FromError(w, customError.WrapValidation("related_kind and related_id must be given together"))
			return
		}
		related = &entity
	}

	reminders, err := h.reminders.ListReminders(r.Context(), company, related)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, reminders)
}

func (h *ReminderHandler) DeactivateReminder(w http.ResponseWriter, r *http.Request) {
	company, ok := companyID(w, r)
	if !ok {
		return
	}

	reminder, err := h.reminders.DeactivateReminder(r.Context(), company, pathID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, reminder)
}
