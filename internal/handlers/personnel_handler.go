package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
	"academy-portal/internal/pdfexport"
	"academy-portal/internal/service"
)

// PersonnelManager is the personnel service as seen by the HTTP layer
type PersonnelManager interface {
	CreateAgency(ctx context.Context, a *models.Agency) error
	ListAgencies(ctx context.Context) ([]models.Agency, error)
	DeleteAgency(ctx context.Context, id uuid.UUID) error
	CreateGrade(ctx context.Context, g *models.Grade) error
	ListGrades(ctx context.Context, agencyID uuid.UUID) ([]models.Grade, error)
	DeleteGrade(ctx context.Context, id uuid.UUID) error
	CreateSpecialty(ctx context.Context, sp *models.Specialty) error
	ListSpecialties(ctx context.Context, agencyID uuid.UUID) ([]models.Specialty, error)
	DeleteSpecialty(ctx context.Context, id uuid.UUID) error

	CreateAgent(ctx context.Context, in *service.AgentInput) (*models.PoliceAgent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (*models.PoliceAgent, error)
	ListAgents(ctx context.Context, agencyID *uuid.UUID) ([]models.PoliceAgent, error)
	UpdateAgent(ctx context.Context, id uuid.UUID, in *service.AgentInput, actor models.Actor) (*models.PoliceAgent, error)
	DeleteAgent(ctx context.Context, id uuid.UUID) error

	AssignSpecialty(ctx context.Context, agentID, specialtyID uuid.UUID, actor models.Actor) ([]models.AgentSpecialty, error)
	RemoveSpecialty(ctx context.Context, agentID, specialtyID uuid.UUID, actor models.Actor) ([]models.AgentSpecialty, error)
	ListAgentSpecialties(ctx context.Context, agentID uuid.UUID) ([]models.AgentSpecialty, error)

	CreateDisciplinaryRecord(ctx context.Context, agentID uuid.UUID, in service.DisciplinaryInput, actor models.Actor) (*models.DisciplinaryRecord, error)
	ListDisciplinaryRecords(ctx context.Context, agentID uuid.UUID) ([]models.DisciplinaryRecord, error)
	DeleteDisciplinaryRecord(ctx context.Context, id uuid.UUID, actor models.Actor) error

	AddTrainingRecord(ctx context.Context, t *models.TrainingRecord, actor models.Actor) error
	ListTrainingRecords(ctx context.Context, agentID uuid.UUID) ([]models.TrainingRecord, error)
	DeleteTrainingRecord(ctx context.Context, id uuid.UUID, actor models.Actor) error

	Dossier(ctx context.Context, agentID uuid.UUID) (*models.AgentDossier, error)
}

// PersonnelHandler serves agencies, agents and their records
type PersonnelHandler struct {
	personnel PersonnelManager
	pdf       *pdfexport.Renderer
}

// NewPersonnelHandler creates a new personnel handler
func NewPersonnelHandler(personnel PersonnelManager, pdf *pdfexport.Renderer) *PersonnelHandler {
	return &PersonnelHandler{personnel: personnel, pdf: pdf}
}

// isAdmin reports whether the caller may read disciplinary records
func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetClaims(r)
	return ok && middleware.HasAnyRole(claims.Roles)
}

// Agencies

// ListAgencies lists the agencies
// @Summary List agencies
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Agency
// @Router /admin/agencies [get]
func (h *PersonnelHandler) ListAgencies(w http.ResponseWriter, r *http.Request) {
	list, err := h.personnel.ListAgencies(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateAgency creates an agency
// @Summary Create agency
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Agency true "Agency"
// @Success 201 {object} models.Agency
// @Router /admin/agencies [post]
func (h *PersonnelHandler) CreateAgency(w http.ResponseWriter, r *http.Request) {
	var a models.Agency
	if !decodeJSON(w, r, &a) {
		return
	}
	if err := h.personnel.CreateAgency(r.Context(), &a); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, a)
}

// DeleteAgency removes an agency with its grades and specialties
// @Summary Delete agency
// @Tags Personnel
// @Security BearerAuth
// @Param id path string true "Agency ID"
// @Success 204
// @Router /admin/agencies/{id} [delete]
func (h *PersonnelHandler) DeleteAgency(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "id", h.personnel.DeleteAgency)
}

// ListGrades lists the grades of an agency
// @Summary List grades
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agency ID"
// @Success 200 {array} models.Grade
// @Router /admin/agencies/{id}/grades [get]
func (h *PersonnelHandler) ListGrades(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.personnel.ListGrades(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateGrade adds a grade to an agency
// @Summary Create grade
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agency ID"
// @Param request body models.Grade true "Grade"
// @Success 201 {object} models.Grade
// @Router /admin/agencies/{id}/grades [post]
func (h *PersonnelHandler) CreateGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var g models.Grade
	if !decodeJSON(w, r, &g) {
		return
	}
	g.AgencyID = id
	if err := h.personnel.CreateGrade(r.Context(), &g); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, g)
}

// DeleteGrade removes a grade
// @Summary Delete grade
// @Tags Personnel
// @Security BearerAuth
// @Param gradeId path string true "Grade ID"
// @Success 204
// @Router /admin/grades/{gradeId} [delete]
func (h *PersonnelHandler) DeleteGrade(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "gradeId", h.personnel.DeleteGrade)
}

// ListSpecialties lists the specialties of an agency
// @Summary List specialties
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agency ID"
// @Success 200 {array} models.Specialty
// @Router /admin/agencies/{id}/specialties [get]
func (h *PersonnelHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.personnel.ListSpecialties(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateSpecialty adds a specialty to an agency
// @Summary Create specialty
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agency ID"
// @Param request body models.Specialty true "Specialty"
// @Success 201 {object} models.Specialty
// @Router /admin/agencies/{id}/specialties [post]
func (h *PersonnelHandler) CreateSpecialty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var sp models.Specialty
	if !decodeJSON(w, r, &sp) {
		return
	}
	sp.AgencyID = id
	if err := h.personnel.CreateSpecialty(r.Context(), &sp); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sp)
}

// DeleteSpecialty removes a specialty
// @Summary Delete specialty
// @Tags Personnel
// @Security BearerAuth
// @Param specialtyId path string true "Specialty ID"
// @Success 204
// @Router /admin/specialties/{specialtyId} [delete]
func (h *PersonnelHandler) DeleteSpecialty(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "specialtyId", h.personnel.DeleteSpecialty)
}

// Agents

// ListAgents lists agents, optionally for one agency
// @Summary List agents
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param agency_id query string false "Agency ID"
// @Success 200 {array} models.PoliceAgent
// @Router /admin/agents [get]
func (h *PersonnelHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := queryID(w, r, "agency_id")
	if !ok {
		return
	}
	list, err := h.personnel.ListAgents(r.Context(), agencyID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateAgent creates an agent
// @Summary Create agent
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.AgentInput true "Agent"
// @Success 201 {object} models.PoliceAgent
// @Failure 400 {object} validationResponse
// @Router /admin/agents [post]
func (h *PersonnelHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var in service.AgentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	agent, err := h.personnel.CreateAgent(r.Context(), &in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, agent)
}

// GetAgent returns one agent
// @Summary Get agent
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {object} models.PoliceAgent
// @Router /admin/agents/{id} [get]
func (h *PersonnelHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	agent, err := h.personnel.GetAgent(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, agent)
}

// UpdateAgent edits an agent
// @Summary Update agent
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Param request body service.AgentInput true "Agent"
// @Success 200 {object} models.PoliceAgent
// @Router /admin/agents/{id} [put]
func (h *PersonnelHandler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.AgentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	agent, err := h.personnel.UpdateAgent(r.Context(), id, &in, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, agent)
}

// DeleteAgent removes an agent and the records attached to it
// @Summary Delete agent
// @Tags Personnel
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 204
// @Router /admin/agents/{id} [delete]
func (h *PersonnelHandler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "id", h.personnel.DeleteAgent)
}

// ExportAgents downloads the agent list
// @Summary Agents PDF
// @Tags Personnel
// @Produce application/pdf
// @Security BearerAuth
// @Param agency_id query string false "Agency ID"
// @Success 200 {file} file
// @Router /admin/agents.pdf [get]
func (h *PersonnelHandler) ExportAgents(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := queryID(w, r, "agency_id")
	if !ok {
		return
	}
	agents, err := h.personnel.ListAgents(r.Context(), agencyID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	agencies, err := h.personnel.ListAgencies(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	names := make(map[uuid.UUID]string, len(agencies))
	title := "agents"
	for _, a := range agencies {
		names[a.ID] = a.Abbreviation
		if agencyID != nil && a.ID == *agencyID {
			title = a.Abbreviation
		}
	}
	data, err := h.pdf.AgentList(agents, names)
	respondWithPDF(w, r, pdfexport.Filename(title, pdfexport.SuffixAgents), data, err)
}

// Specialties of an agent

// ListAgentSpecialties lists the specialties held by an agent
// @Summary List agent specialties
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {array} models.AgentSpecialty
// @Router /admin/agents/{id}/specialties [get]
func (h *PersonnelHandler) ListAgentSpecialties(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.personnel.ListAgentSpecialties(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// AssignSpecialty gives an agent a specialty of their agency
// @Summary Assign specialty
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Param specialtyId path string true "Specialty ID"
// @Success 200 {array} models.AgentSpecialty
// @Router /admin/agents/{id}/specialties/{specialtyId} [put]
func (h *PersonnelHandler) AssignSpecialty(w http.ResponseWriter, r *http.Request) {
	h.changeSpecialty(w, r, h.personnel.AssignSpecialty)
}

// RemoveSpecialty takes a specialty away from an agent
// @Summary Remove specialty
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Param specialtyId path string true "Specialty ID"
// @Success 200 {array} models.AgentSpecialty
// @Router /admin/agents/{id}/specialties/{specialtyId} [delete]
func (h *PersonnelHandler) RemoveSpecialty(w http.ResponseWriter, r *http.Request) {
	h.changeSpecialty(w, r, h.personnel.RemoveSpecialty)
}

func (h *PersonnelHandler) changeSpecialty(
	w http.ResponseWriter,
	r *http.Request,
	change func(context.Context, uuid.UUID, uuid.UUID, models.Actor) ([]models.AgentSpecialty, error),
) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	specialtyID, ok := pathID(w, r, "specialtyId")
	if !ok {
		return
	}
	list, err := change(r.Context(), id, specialtyID, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// Disciplinary records

// ListDisciplinaryRecords lists the sanctions of an agent
// @Summary List disciplinary records
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {array} models.DisciplinaryRecord
// @Router /admin/agents/{id}/disciplinary [get]
func (h *PersonnelHandler) ListDisciplinaryRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.personnel.ListDisciplinaryRecords(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateDisciplinaryRecord records a sanction
// @Summary Create disciplinary record
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Param request body service.DisciplinaryInput true "Sanction"
// @Success 201 {object} models.DisciplinaryRecord
// @Failure 400 {object} validationResponse
// @Router /admin/agents/{id}/disciplinary [post]
func (h *PersonnelHandler) CreateDisciplinaryRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.DisciplinaryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rec, err := h.personnel.CreateDisciplinaryRecord(r.Context(), id, in, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rec)
}

// DeleteDisciplinaryRecord removes a sanction
// @Summary Delete disciplinary record
// @Tags Personnel
// @Security BearerAuth
// @Param recordId path string true "Record ID"
// @Success 204
// @Router /admin/disciplinary/{recordId} [delete]
func (h *PersonnelHandler) DeleteDisciplinaryRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "recordId")
	if !ok {
		return
	}
	if err := h.personnel.DeleteDisciplinaryRecord(r.Context(), id, middleware.Actor(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Training records

// ListTrainingRecords lists the trainings of an agent
// @Summary List training records
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {array} models.TrainingRecord
// @Router /admin/agents/{id}/trainings [get]
func (h *PersonnelHandler) ListTrainingRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.personnel.ListTrainingRecords(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// AddTrainingRecord adds a completed training
// @Summary Add training record
// @Tags Personnel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Param request body models.TrainingRecord true "Training"
// @Success 201 {object} models.TrainingRecord
// @Router /admin/agents/{id}/trainings [post]
func (h *PersonnelHandler) AddTrainingRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var t models.TrainingRecord
	if !decodeJSON(w, r, &t) {
		return
	}
	t.AgentID = id
	if err := h.personnel.AddTrainingRecord(r.Context(), &t, middleware.Actor(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, t)
}

// DeleteTrainingRecord removes a training record
// @Summary Delete training record
// @Tags Personnel
// @Security BearerAuth
// @Param recordId path string true "Record ID"
// @Success 204
// @Router /admin/trainings/{recordId} [delete]
func (h *PersonnelHandler) DeleteTrainingRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "recordId")
	if !ok {
		return
	}
	if err := h.personnel.DeleteTrainingRecord(r.Context(), id, middleware.Actor(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dossier

// dossier loads the personnel file, hiding sanctions from non-admins
func (h *PersonnelHandler) dossier(w http.ResponseWriter, r *http.Request) (*models.AgentDossier, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	d, err := h.personnel.Dossier(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return nil, false
	}
	if !isAdmin(r) {
		d.DisciplinaryRecords = nil
	}
	return d, true
}

// GetDossier returns the personnel file of an agent
// @Summary Get dossier
// @Description Disciplinary records are only included for admins.
// @Tags Personnel
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {object} models.AgentDossier
// @Router /admin/agents/{id}/dossier [get]
func (h *PersonnelHandler) GetDossier(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dossier(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}

// ExportDossier downloads the personnel file of an agent
// @Summary Dossier PDF
// @Tags Personnel
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {file} file
// @Router /admin/agents/{id}/dossier.pdf [get]
func (h *PersonnelHandler) ExportDossier(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dossier(w, r)
	if !ok {
		return
	}
	data, err := h.pdf.Dossier(d)
	respondWithPDF(w, r, pdfexport.Filename(d.Agent.Name, pdfexport.SuffixDossier), data, err)
}

func (h *PersonnelHandler) deleteByID(w http.ResponseWriter, r *http.Request, name string, del func(context.Context, uuid.UUID) error) {
	id, ok := pathID(w, r, name)
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
