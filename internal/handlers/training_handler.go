package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
	"academy-portal/internal/pdfexport"
)

// TrainingManager is the training service as seen by the HTTP layer
type TrainingManager interface {
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	UpdateCandidate(ctx context.Context, c *models.Candidate) error
	DeleteCandidate(ctx context.Context, id uuid.UUID) error
	Certify(ctx context.Context, candidateID uuid.UUID, actor models.Actor) (*models.Candidate, error)

	CreateModule(ctx context.Context, m *models.Module) error
	GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error)
	ListModules(ctx context.Context) ([]models.Module, error)
	UpdateModule(ctx context.Context, m *models.Module) error
	DeleteModule(ctx context.Context, id uuid.UUID) error
	AddSubModule(ctx context.Context, sm *models.SubModule) error
	UpdateSubModule(ctx context.Context, sm *models.SubModule) error
	DeleteSubModule(ctx context.Context, id uuid.UUID) error

	RecordScore(ctx context.Context, candidateID, subModuleID uuid.UUID, score float64, comment *string, actor models.Actor) (*models.SubModuleScore, error)
	ListScores(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleScore, error)
	OverallScore(ctx context.Context, candidateID uuid.UUID) (models.OverallScore, error)
	SaveAppreciation(ctx context.Context, candidateID, subModuleID uuid.UUID, text string, actor models.Actor) (*models.SubModuleAppreciation, error)
	ListAppreciations(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleAppreciation, error)
	DeleteAppreciation(ctx context.Context, id uuid.UUID) error
	Bulletin(ctx context.Context, candidateID uuid.UUID) (*models.Bulletin, error)
}

// TrainingHandler serves candidates, modules and scores
type TrainingHandler struct {
	training TrainingManager
	pdf      *pdfexport.Renderer
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(training TrainingManager, pdf *pdfexport.Renderer) *TrainingHandler {
	return &TrainingHandler{training: training, pdf: pdf}
}

// Candidates

// ListCandidates lists the candidates
// @Summary List candidates
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Candidate
// @Router /admin/candidates [get]
func (h *TrainingHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	list, err := h.training.ListCandidates(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateCandidate enrols a candidate by hand
// @Summary Create candidate
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Candidate true "Candidate"
// @Success 201 {object} models.Candidate
// @Router /admin/candidates [post]
func (h *TrainingHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var c models.Candidate
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := h.training.CreateCandidate(r.Context(), &c); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

// GetCandidate returns one candidate
// @Summary Get candidate
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.Candidate
// @Router /admin/candidates/{id} [get]
func (h *TrainingHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.training.GetCandidate(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// UpdateCandidate edits a candidate
// @Summary Update candidate
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Param request body models.Candidate true "Candidate"
// @Success 200 {object} models.Candidate
// @Router /admin/candidates/{id} [put]
func (h *TrainingHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var c models.Candidate
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	if err := h.training.UpdateCandidate(r.Context(), &c); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// DeleteCandidate removes a candidate with its scores
// @Summary Delete candidate
// @Tags Training
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 204
// @Router /admin/candidates/{id} [delete]
func (h *TrainingHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.training.DeleteCandidate(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CertifyCandidate certifies a candidate
// @Summary Certify candidate
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.Candidate
// @Failure 409 {object} map[string]string "Already certified"
// @Router /admin/candidates/{id}/certify [post]
func (h *TrainingHandler) CertifyCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.training.Certify(r.Context(), id, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// Scores

// ScoreRequest is a mark on one sub-module
type ScoreRequest struct {
	Score   float64 `json:"score"`
	Comment *string `json:"comment,omitempty"`
}

// RecordScore sets the score of a candidate on a sub-module
// @Summary Record score
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Param subModuleId path string true "Sub-module ID"
// @Param request body ScoreRequest true "Score"
// @Success 200 {object} models.SubModuleScore
// @Failure 400 {object} validationResponse
// @Router /admin/candidates/{id}/scores/{subModuleId} [put]
func (h *TrainingHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subModuleID, ok := pathID(w, r, "subModuleId")
	if !ok {
		return
	}
	var req ScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	score, err := h.training.RecordScore(r.Context(), id, subModuleID, req.Score, req.Comment, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, score)
}

// ListScores lists the scores of a candidate
// @Summary List scores
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {array} models.SubModuleScore
// @Router /admin/candidates/{id}/scores [get]
func (h *TrainingHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.training.ListScores(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// OverallScore returns the aggregate score of a candidate
// @Summary Overall score
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.OverallScore
// @Router /admin/candidates/{id}/overall [get]
func (h *TrainingHandler) OverallScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	overall, err := h.training.OverallScore(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overall)
}

// AppreciationRequest is an instructor's commentary
type AppreciationRequest struct {
	Appreciation string `json:"appreciation"`
}

// SaveAppreciation stores commentary on a sub-module
// @Summary Save appreciation
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Param subModuleId path string true "Sub-module ID"
// @Param request body AppreciationRequest true "Appreciation"
// @Success 200 {object} models.SubModuleAppreciation
// @Router /admin/candidates/{id}/appreciations/{subModuleId} [put]
func (h *TrainingHandler) SaveAppreciation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subModuleID, ok := pathID(w, r, "subModuleId")
	if !ok {
		return
	}
	var req AppreciationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.training.SaveAppreciation(r.Context(), id, subModuleID, req.Appreciation, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, a)
}

// ListAppreciations lists the appreciations of a candidate
// @Summary List appreciations
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {array} models.SubModuleAppreciation
// @Router /admin/candidates/{id}/appreciations [get]
func (h *TrainingHandler) ListAppreciations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.training.ListAppreciations(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// DeleteAppreciation removes an appreciation
// @Summary Delete appreciation
// @Tags Training
// @Security BearerAuth
// @Param appreciationId path string true "Appreciation ID"
// @Success 204
// @Router /admin/appreciations/{appreciationId} [delete]
func (h *TrainingHandler) DeleteAppreciation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "appreciationId")
	if !ok {
		return
	}
	if err := h.training.DeleteAppreciation(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBulletin returns the bulletin data of a candidate
// @Summary Get bulletin
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.Bulletin
// @Router /admin/candidates/{id}/bulletin [get]
func (h *TrainingHandler) GetBulletin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.training.Bulletin(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, b)
}

// ExportBulletin downloads the bulletin of a candidate
// @Summary Bulletin PDF
// @Tags Training
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {file} file
// @Router /admin/candidates/{id}/bulletin.pdf [get]
func (h *TrainingHandler) ExportBulletin(w http.ResponseWriter, r *http.Request) {
	h.exportBulletin(w, r, pdfexport.SuffixBulletin, h.pdf.Bulletin)
}

// ExportModuleResults downloads the per-module results of a candidate
// @Summary Module results PDF
// @Tags Training
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Candidate ID"
// @Success 200 {file} file
// @Router /admin/candidates/{id}/module-results.pdf [get]
func (h *TrainingHandler) ExportModuleResults(w http.ResponseWriter, r *http.Request) {
	h.exportBulletin(w, r, pdfexport.SuffixModuleResults, h.pdf.ModuleResults)
}

func (h *TrainingHandler) exportBulletin(w http.ResponseWriter, r *http.Request, suffix string, render func(*models.Bulletin) ([]byte, error)) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.training.Bulletin(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	data, err := render(b)
	respondWithPDF(w, r, pdfexport.Filename(b.Candidate.Name, suffix), data, err)
}

// Modules

// ListModules lists the modules with their sub-modules
// @Summary List modules
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Module
// @Router /admin/modules [get]
func (h *TrainingHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	list, err := h.training.ListModules(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateModule creates a module, optionally with sub-modules
// @Summary Create module
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Module true "Module"
// @Success 201 {object} models.Module
// @Router /admin/modules [post]
func (h *TrainingHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var m models.Module
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := h.training.CreateModule(r.Context(), &m); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}

// GetModule returns one module
// @Summary Get module
// @Tags Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Module ID"
// @Success 200 {object} models.Module
// @Router /admin/modules/{id} [get]
func (h *TrainingHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.training.GetModule(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// UpdateModule edits a module
// @Summary Update module
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Module ID"
// @Param request body models.Module true "Module"
// @Success 200 {object} models.Module
// @Router /admin/modules/{id} [put]
func (h *TrainingHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var m models.Module
	if !decodeJSON(w, r, &m) {
		return
	}
	m.ID = id
	if err := h.training.UpdateModule(r.Context(), &m); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// DeleteModule removes a module with its sub-modules and their scores
// @Summary Delete module
// @Tags Training
// @Security BearerAuth
// @Param id path string true "Module ID"
// @Success 204
// @Router /admin/modules/{id} [delete]
func (h *TrainingHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.training.DeleteModule(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSubModule adds a sub-module to a module
// @Summary Add sub-module
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Module ID"
// @Param request body models.SubModule true "Sub-module"
// @Success 201 {object} models.SubModule
// @Router /admin/modules/{id}/sub-modules [post]
func (h *TrainingHandler) AddSubModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var sm models.SubModule
	if !decodeJSON(w, r, &sm) {
		return
	}
	sm.ModuleID = id
	if err := h.training.AddSubModule(r.Context(), &sm); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sm)
}

// UpdateSubModule edits a sub-module
// @Summary Update sub-module
// @Tags Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subModuleId path string true "Sub-module ID"
// @Param request body models.SubModule true "Sub-module"
// @Success 200 {object} models.SubModule
// @Router /admin/sub-modules/{subModuleId} [put]
func (h *TrainingHandler) UpdateSubModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "subModuleId")
	if !ok {
		return
	}
	var sm models.SubModule
	if !decodeJSON(w, r, &sm) {
		return
	}
	sm.ID = id
	if err := h.training.UpdateSubModule(r.Context(), &sm); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sm)
}

// DeleteSubModule removes a sub-module and its scores
// @Summary Delete sub-module
// @Tags Training
// @Security BearerAuth
// @Param subModuleId path string true "Sub-module ID"
// @Success 204
// @Router /admin/sub-modules/{subModuleId} [delete]
func (h *TrainingHandler) DeleteSubModule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "subModuleId")
	if !ok {
		return
	}
	if err := h.training.DeleteSubModule(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
