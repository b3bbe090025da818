package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/auth"
	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
	"academy-portal/internal/pdfexport"
	"academy-portal/internal/service"
)

// CompetitionManager is the competition service as seen by the HTTP layer
type CompetitionManager interface {
	CreateCompetition(ctx context.Context, c *models.Competition, actor models.Actor) error
	ListPublicCompetitions(ctx context.Context, onlyActive bool) ([]models.Competition, error)
	ListAllCompetitions(ctx context.Context, onlyActive bool) ([]models.Competition, error)
	GetCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	UpdateCompetition(ctx context.Context, c *models.Competition) error
	DeleteCompetition(ctx context.Context, id uuid.UUID) error
	CloseExpiredCompetitions(ctx context.Context) ([]models.Competition, error)

	AddQuestion(ctx context.Context, q *models.CompetitionQuestion) error
	ListQuestions(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionQuestion, error)
	UpdateQuestion(ctx context.Context, q *models.CompetitionQuestion) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error

	CreateInvitations(ctx context.Context, competitionID uuid.UUID, candidates []models.InvitationCandidate, actor models.Actor) ([]models.CompetitionInvitation, error)
	AuthenticatePrivateCompetition(ctx context.Context, identifier, password string) (*models.PrivateCompetitionAccess, error)
	MarkInvitationAsUsed(ctx context.Context, id uuid.UUID) error
	ListInvitations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionInvitation, error)
	GetInvitation(ctx context.Context, id uuid.UUID) (*models.CompetitionInvitation, error)
	DeleteInvitation(ctx context.Context, id uuid.UUID) error

	SubmitParticipation(ctx context.Context, in service.SubmitParticipationInput) (*models.CompetitionParticipation, error)
	GetParticipation(ctx context.Context, id uuid.UUID) (*models.CompetitionParticipation, error)
	ListParticipations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionParticipation, error)
	GradeParticipation(ctx context.Context, id uuid.UUID, scores map[uuid.UUID]int, comment *string, actor models.Actor) (*models.CompetitionParticipation, error)
	CreateCandidateFromCompetition(ctx context.Context, participationID uuid.UUID, actor models.Actor) (*models.Candidate, error)
}

// CompetitionHandler serves competitions, invitations and participations
type CompetitionHandler struct {
	competitions CompetitionManager
	pdf          *pdfexport.Renderer
}

// NewCompetitionHandler creates a new competition handler
func NewCompetitionHandler(competitions CompetitionManager, pdf *pdfexport.Renderer) *CompetitionHandler {
	return &CompetitionHandler{competitions: competitions, pdf: pdf}
}

// isStaff reports whether the request carries a staff token that may manage competitions
func isStaff(r *http.Request) bool {
	claims, ok := middleware.GetClaims(r)
	return ok && claims.Kind == auth.KindStaff && middleware.HasAnyRole(claims.Roles, models.RoleInstructor)
}

// canSee reports whether the caller may read competition c. Private
// competitions are visible to staff and to the candidate holding one of its
// invitations.
func canSee(r *http.Request, c *models.Competition) bool {
	if c.Type != models.CompetitionTypePrivate || isStaff(r) {
		return true
	}
	claims, ok := middleware.GetClaims(r)
	if !ok {
		return false
	}
	_, isCandidate := middleware.GetInvitationID(r)
	return isCandidate && claims.CompetitionID == c.ID.String()
}

// ListCompetitions lists the public competitions
// @Summary List competitions
// @Description External and internal competitions. Private competitions are never listed.
// @Tags Competitions
// @Produce json
// @Param active query bool false "Only open competitions" default(true)
// @Success 200 {array} models.Competition
// @Router /competitions [get]
func (h *CompetitionHandler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	list, err := h.competitions.ListPublicCompetitions(r.Context(), queryBool(r, "active", true))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// GetCompetition returns one competition
// @Summary Get competition
// @Tags Competitions
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} models.Competition
// @Failure 404 {object} map[string]string "Not found"
// @Router /competitions/{id} [get]
func (h *CompetitionHandler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.competitions.GetCompetition(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if !canSee(r, c) {
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// ListQuestions returns the paper of a competition. Correct answers are only
// included for staff.
// @Summary List competition questions
// @Tags Competitions
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {array} models.CompetitionQuestion
// @Router /competitions/{id}/questions [get]
func (h *CompetitionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.competitions.GetCompetition(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if !canSee(r, c) {
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
		return
	}

	questions, err := h.competitions.ListQuestions(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if !isStaff(r) {
		for i := range questions {
			questions[i].CorrectAnswer = nil
		}
	}
	respondWithJSON(w, http.StatusOK, questions)
}

// SubmitParticipationRequest is a submitted paper
type SubmitParticipationRequest struct {
	ParticipantName string                `json:"participant_name"`
	ParticipantRIO  *string               `json:"participant_rio,omitempty"`
	Answers         []service.AnswerInput `json:"answers"`
}

// SubmitParticipation stores a paper. Private competitions require the
// candidate token issued at login.
// @Summary Submit participation
// @Tags Competitions
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param request body SubmitParticipationRequest true "Paper"
// @Success 201 {object} models.CompetitionParticipation
// @Failure 400 {object} validationResponse
// @Failure 409 {object} map[string]string "Closed or already submitted"
// @Router /competitions/{id}/participations [post]
func (h *CompetitionHandler) SubmitParticipation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SubmitParticipationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := service.SubmitParticipationInput{
		CompetitionID:   id,
		ParticipantName: req.ParticipantName,
		ParticipantRIO:  req.ParticipantRIO,
		Answers:         req.Answers,
	}
	if invitationID, ok := middleware.GetInvitationID(r); ok {
		in.InvitationID = &invitationID
	}

	p, err := h.competitions.SubmitParticipation(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

// PrivateLoginRequest carries invitation credentials
type PrivateLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// PrivateLogin exchanges single-use invitation credentials for a candidate token
// @Summary Private competition login
// @Tags Competitions
// @Accept json
// @Produce json
// @Param request body PrivateLoginRequest true "Invitation credentials"
// @Success 200 {object} models.PrivateCompetitionAccess
// @Failure 401 {object} map[string]string "Invalid or already used credentials"
// @Failure 409 {object} map[string]string "Competition closed"
// @Router /private-competitions/login [post]
func (h *CompetitionHandler) PrivateLogin(w http.ResponseWriter, r *http.Request) {
	var req PrivateLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	access, err := h.competitions.AuthenticatePrivateCompetition(r.Context(), req.Identifier, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if access == nil {
		respondWithError(w, http.StatusUnauthorized, ErrMsgInvitationRejected)
		return
	}
	access.Invitation.LoginPassword = ""
	respondWithJSON(w, http.StatusOK, access)
}

// CandidateSession restores the invitation and competition behind a candidate
// token, for a candidate reloading the exam page
// @Summary Current candidate session
// @Tags Competitions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PrivateCompetitionAccess
// @Failure 401 {object} map[string]string "Candidate token required"
// @Router /private-competitions/session [get]
func (h *CompetitionHandler) CandidateSession(w http.ResponseWriter, r *http.Request) {
	invitationID, ok := middleware.GetInvitationID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	inv, err := h.competitions.GetInvitation(r.Context(), invitationID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	c, err := h.competitions.GetCompetition(r.Context(), inv.CompetitionID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	inv.LoginPassword = ""
	respondWithJSON(w, http.StatusOK, models.PrivateCompetitionAccess{Invitation: *inv, Competition: *c})
}

// Staff endpoints

// AdminListCompetitions lists every competition
// @Summary List all competitions
// @Tags Competitions
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only open competitions" default(false)
// @Success 200 {array} models.Competition
// @Router /admin/competitions [get]
func (h *CompetitionHandler) AdminListCompetitions(w http.ResponseWriter, r *http.Request) {
	list, err := h.competitions.ListAllCompetitions(r.Context(), queryBool(r, "active", false))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateCompetition creates a competition
// @Summary Create competition
// @Tags Competitions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Competition true "Competition"
// @Success 201 {object} models.Competition
// @Failure 400 {object} validationResponse
// @Router /admin/competitions [post]
func (h *CompetitionHandler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	var c models.Competition
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := h.competitions.CreateCompetition(r.Context(), &c, middleware.Actor(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

// UpdateCompetition replaces the editable fields of a competition
// @Summary Update competition
// @Tags Competitions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Param request body models.Competition true "Competition"
// @Success 200 {object} models.Competition
// @Router /admin/competitions/{id} [put]
func (h *CompetitionHandler) UpdateCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var c models.Competition
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	if err := h.competitions.UpdateCompetition(r.Context(), &c); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// DeleteCompetition removes a competition with its questions, invitations and papers
// @Summary Delete competition
// @Tags Competitions
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Success 204
// @Router /admin/competitions/{id} [delete]
func (h *CompetitionHandler) DeleteCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.competitions.DeleteCompetition(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseExpired deactivates competitions whose end date has passed
// @Summary Close expired competitions
// @Tags Competitions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Competition
// @Router /admin/competitions/close-expired [post]
func (h *CompetitionHandler) CloseExpired(w http.ResponseWriter, r *http.Request) {
	closed, err := h.competitions.CloseExpiredCompetitions(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, closed)
}

// AddQuestion appends a question to a competition
// @Summary Add competition question
// @Tags Competitions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Param request body models.CompetitionQuestion true "Question"
// @Success 201 {object} models.CompetitionQuestion
// @Router /admin/competitions/{id}/questions [post]
func (h *CompetitionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var q models.CompetitionQuestion
	if !decodeJSON(w, r, &q) {
		return
	}
	q.CompetitionID = id
	if err := h.competitions.AddQuestion(r.Context(), &q); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, q)
}

// UpdateQuestion edits a question
// @Summary Update competition question
// @Tags Competitions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "Question ID"
// @Param request body models.CompetitionQuestion true "Question"
// @Success 200 {object} models.CompetitionQuestion
// @Router /admin/competition-questions/{questionId} [put]
func (h *CompetitionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionId")
	if !ok {
		return
	}
	var q models.CompetitionQuestion
	if !decodeJSON(w, r, &q) {
		return
	}
	q.ID = id
	if err := h.competitions.UpdateQuestion(r.Context(), &q); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

// DeleteQuestion removes a question
// @Summary Delete competition question
// @Tags Competitions
// @Security BearerAuth
// @Param questionId path string true "Question ID"
// @Success 204
// @Router /admin/competition-questions/{questionId} [delete]
func (h *CompetitionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionId")
	if !ok {
		return
	}
	if err := h.competitions.DeleteQuestion(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInvitationsRequest lists the invitees of a private competition
type CreateInvitationsRequest struct {
	Candidates []models.InvitationCandidate `json:"candidates"`
}

// CreateInvitations issues credentials for a private competition. When an
// insert fails midway the invitations created so far are still returned.
// @Summary Create invitations
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Param request body CreateInvitationsRequest true "Invitees"
// @Success 201 {array} models.CompetitionInvitation
// @Router /admin/competitions/{id}/invitations [post]
func (h *CompetitionHandler) CreateInvitations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateInvitationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Candidates) == 0 {
		respondWithError(w, http.StatusBadRequest, "At least one candidate is required")
		return
	}

	created, err := h.competitions.CreateInvitations(r.Context(), id, req.Candidates, middleware.Actor(r))
	if err != nil && len(created) == 0 {
		respondWithServiceError(w, r, err)
		return
	}
	if err != nil {
		respondWithJSON(w, http.StatusMultiStatus, map[string]any{
			"invitations": created,
			"error":       "Some invitations could not be created",
		})
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ListInvitations lists the invitations of a competition
// @Summary List invitations
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Success 200 {array} models.CompetitionInvitation
// @Router /admin/competitions/{id}/invitations [get]
func (h *CompetitionHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.competitions.ListInvitations(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// MarkInvitationUsed burns an invitation by hand
// @Summary Mark invitation used
// @Tags Invitations
// @Security BearerAuth
// @Param invitationId path string true "Invitation ID"
// @Success 204
// @Failure 409 {object} map[string]string "Already used"
// @Router /admin/invitations/{invitationId}/used [post]
func (h *CompetitionHandler) MarkInvitationUsed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}
	if err := h.competitions.MarkInvitationAsUsed(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteInvitation revokes an invitation
// @Summary Delete invitation
// @Tags Invitations
// @Security BearerAuth
// @Param invitationId path string true "Invitation ID"
// @Success 204
// @Router /admin/invitations/{invitationId} [delete]
func (h *CompetitionHandler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}
	if err := h.competitions.DeleteInvitation(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportInvitations downloads the credential list of a competition
// @Summary Invitations PDF
// @Tags Invitations
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Success 200 {file} file
// @Router /admin/competitions/{id}/invitations.pdf [get]
func (h *CompetitionHandler) ExportInvitations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.competitions.GetCompetition(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	list, err := h.competitions.ListInvitations(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	data, err := h.pdf.Invitations(c, list)
	respondWithPDF(w, r, pdfexport.Filename(c.Title, pdfexport.SuffixInvitations), data, err)
}

// ExportConvocation downloads the convocation letter of one invitee
// @Summary Convocation PDF
// @Tags Invitations
// @Produce application/pdf
// @Security BearerAuth
// @Param invitationId path string true "Invitation ID"
// @Success 200 {file} file
// @Router /admin/invitations/{invitationId}/convocation.pdf [get]
func (h *CompetitionHandler) ExportConvocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}
	inv, err := h.competitions.GetInvitation(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	c, err := h.competitions.GetCompetition(r.Context(), inv.CompetitionID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	data, err := h.pdf.Convocation(inv, c)
	respondWithPDF(w, r, pdfexport.Filename(inv.CandidateName, pdfexport.SuffixConvocation), data, err)
}

// ListParticipations lists the papers of a competition, best first
// @Summary List participations
// @Tags Participations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Success 200 {array} models.CompetitionParticipation
// @Router /admin/competitions/{id}/participations [get]
func (h *CompetitionHandler) ListParticipations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.competitions.ListParticipations(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// GetParticipation returns one paper
// @Summary Get participation
// @Tags Participations
// @Produce json
// @Security BearerAuth
// @Param participationId path string true "Participation ID"
// @Success 200 {object} models.CompetitionParticipation
// @Router /admin/participations/{participationId} [get]
func (h *CompetitionHandler) GetParticipation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "participationId")
	if !ok {
		return
	}
	p, err := h.competitions.GetParticipation(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// GradeRequest carries reviewer scores keyed by question id
type GradeRequest struct {
	Scores  map[uuid.UUID]int `json:"scores"`
	Comment *string           `json:"comment,omitempty"`
}

// GradeParticipation applies reviewer scores
// @Summary Grade participation
// @Tags Participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participationId path string true "Participation ID"
// @Param request body GradeRequest true "Scores"
// @Success 200 {object} models.CompetitionParticipation
// @Router /admin/participations/{participationId}/grade [put]
func (h *CompetitionHandler) GradeParticipation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "participationId")
	if !ok {
		return
	}
	var req GradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.competitions.GradeParticipation(r.Context(), id, req.Scores, req.Comment, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// PromoteParticipation turns the author of an entry-test paper into a candidate
// @Summary Promote participant
// @Tags Participations
// @Produce json
// @Security BearerAuth
// @Param participationId path string true "Participation ID"
// @Success 201 {object} models.Candidate
// @Failure 422 {object} map[string]string "Not an entry test"
// @Router /admin/participations/{participationId}/promote [post]
func (h *CompetitionHandler) PromoteParticipation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "participationId")
	if !ok {
		return
	}
	c, err := h.competitions.CreateCandidateFromCompetition(r.Context(), id, middleware.Actor(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

// ExportResults downloads the ranking of a competition
// @Summary Results PDF
// @Tags Participations
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Competition ID"
// @Success 200 {file} file
// @Router /admin/competitions/{id}/results.pdf [get]
func (h *CompetitionHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.competitions.GetCompetition(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	list, err := h.competitions.ListParticipations(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	data, err := h.pdf.CompetitionResults(c, list)
	respondWithPDF(w, r, pdfexport.Filename(c.Title, pdfexport.SuffixResults), data, err)
}
