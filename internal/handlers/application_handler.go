package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
	"academy-portal/internal/service"
)

// ApplicationManager is the application service as seen by the HTTP layer
type ApplicationManager interface {
	CreateForm(ctx context.Context, f *models.ApplicationForm, actor models.Actor) error
	UpdateForm(ctx context.Context, f *models.ApplicationForm) error
	GetForm(ctx context.Context, id uuid.UUID) (*models.ApplicationForm, error)
	ListForms(ctx context.Context, onlyActive bool) ([]models.ApplicationForm, error)
	DeleteForm(ctx context.Context, id uuid.UUID) error

	SubmitApplication(ctx context.Context, formID uuid.UUID, applicantName, serverID string, responses map[string]string) (*models.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	CountPending(ctx context.Context) (int, error)
	DeleteApplication(ctx context.Context, id uuid.UUID) error
	UpdateApplicationReview(ctx context.Context, id uuid.UUID, review service.ReviewInput, actor models.Actor) (*models.Application, error)
	AcceptApplication(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error)
}

// ApplicationHandler serves recruitment forms and applications
type ApplicationHandler struct {
	applications ApplicationManager
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications ApplicationManager) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// ListActiveForms lists the forms open to applicants
// @Summary List application forms
// @Tags Applications
// @Produce json
// @Success 200 {array} models.ApplicationForm
// @Router /forms [get]
func (h *ApplicationHandler) ListActiveForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.applications.ListForms(r.Context(), true)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, forms)
}

// GetActiveForm returns an open form
// @Summary Get application form
// @Tags Applications
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} models.ApplicationForm
// @Failure 404 {object} map[string]string "Not found"
// @Router /forms/{id} [get]
func (h *ApplicationHandler) GetActiveForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	form, err := h.applications.GetForm(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if !form.IsActive {
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
		return
	}
	respondWithJSON(w, http.StatusOK, form)
}

// SubmitApplicationRequest is a filled-in form keyed by field id
type SubmitApplicationRequest struct {
	ApplicantName string            `json:"applicant_name"`
	ServerID      string            `json:"server_id"`
	Responses     map[string]string `json:"responses"`
}

// SubmitApplication stores an application
// @Summary Submit application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param request body SubmitApplicationRequest true "Responses"
// @Success 201 {object} models.Application
// @Failure 400 {object} validationResponse
// @Failure 409 {object} map[string]string "Form closed"
// @Router /forms/{id}/applications [post]
func (h *ApplicationHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SubmitApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.applications.SubmitApplication(r.Context(), id, req.ApplicantName, req.ServerID, req.Responses)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, app)
}

// Staff endpoints

// ListForms lists every form
// @Summary List all forms
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ApplicationForm
// @Router /admin/forms [get]
func (h *ApplicationHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.applications.ListForms(r.Context(), queryBool(r, "active", false))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, forms)
}

// CreateForm creates a form
// @Summary Create form
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ApplicationForm true "Form"
// @Success 201 {object} models.ApplicationForm
// @Failure 400 {object} validationResponse
// @Router /admin/forms [post]
func (h *ApplicationHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var f models.ApplicationForm
	if !decodeJSON(w, r, &f) {
		return
	}
	if err := h.applications.CreateForm(r.Context(), &f, middleware.Actor(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, f)
}

// GetForm returns any form
// @Summary Get form
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 200 {object} models.ApplicationForm
// @Router /admin/forms/{id} [get]
func (h *ApplicationHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	form, err := h.applications.GetForm(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, form)
}

// UpdateForm replaces a form definition
// @Summary Update form
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Param request body models.ApplicationForm true "Form"
// @Success 200 {object} models.ApplicationForm
// @Router /admin/forms/{id} [put]
func (h *ApplicationHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var f models.ApplicationForm
	if !decodeJSON(w, r, &f) {
		return
	}
	f.ID = id
	if err := h.applications.UpdateForm(r.Context(), &f); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, f)
}

// DeleteForm removes a form and its applications
// @Summary Delete form
// @Tags Applications
// @Security BearerAuth
// @Param id path string true "Form ID"
// @Success 204
// @Router /admin/forms/{id} [delete]
func (h *ApplicationHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.applications.DeleteForm(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListApplications lists applications, optionally filtered by form and status
// @Summary List applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param form_id query string false "Form ID"
// @Param status query string false "Status" Enums(pending, reviewing, accepted, rejected)
// @Success 200 {array} models.Application
// @Router /admin/applications [get]
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	formID, ok := queryID(w, r, "form_id")
	if !ok {
		return
	}
	filter := models.ApplicationFilter{FormID: formID}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.ApplicationStatus(raw)
		if !status.Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.Status = &status
	}

	apps, err := h.applications.ListApplications(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, apps)
}

// PendingCount returns the number of applications awaiting review
// @Summary Pending applications count
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /admin/applications/pending-count [get]
func (h *ApplicationHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.applications.CountPending(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"count": n})
}

// GetApplication returns one application
// @Summary Get application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} models.Application
// @Router /admin/applications/{id} [get]
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	app, err := h.applications.GetApplication(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, app)
}

// ReviewApplication applies a review decision
// @Summary Review application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body service.ReviewInput true "Review"
// @Success 200 {object} models.Application
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /admin/applications/{id}/review [put]
func (h *ApplicationHandler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.ReviewInput
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.applications.UpdateApplicationReview(r.Context(), id, req, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, app)
}

// AcceptApplication accepts an application and enrols the applicant as a candidate
// @Summary Accept application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} models.Application
// @Failure 409 {object} map[string]string "Invalid transition"
// @Router /admin/applications/{id}/accept [post]
func (h *ApplicationHandler) AcceptApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	app, err := h.applications.AcceptApplication(r.Context(), id, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, app)
}

// DeleteApplication removes an application
// @Summary Delete application
// @Tags Applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204
// @Router /admin/applications/{id} [delete]
func (h *ApplicationHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.applications.DeleteApplication(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
