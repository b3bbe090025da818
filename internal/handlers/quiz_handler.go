package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
	"academy-portal/internal/service"
)

// QuizManager is the quiz service as seen by the HTTP layer
type QuizManager interface {
	CreateQuiz(ctx context.Context, q *models.Quiz, actor models.Actor) error
	GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, onlyActive bool) ([]models.Quiz, error)
	UpdateQuiz(ctx context.Context, q *models.Quiz) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error

	AddQuestion(ctx context.Context, q *models.QuizQuestion) error
	ListQuestions(ctx context.Context, quizID uuid.UUID) ([]models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, q *models.QuizQuestion) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error

	RegisterParticipant(ctx context.Context, quizID uuid.UUID, name string, candidateID *uuid.UUID) (*models.QuizParticipant, error)
	ListParticipants(ctx context.Context, quizID uuid.UUID) ([]models.QuizParticipant, error)
	CanAttempt(ctx context.Context, quizID, participantID uuid.UUID) (bool, error)
	StartAttempt(ctx context.Context, quizID, participantID uuid.UUID) (*models.QuizAttempt, error)
	CompleteAttempt(ctx context.Context, attemptID uuid.UUID, answers []service.QuizAnswerInput) (*models.QuizAttempt, error)
	RecordAttempt(ctx context.Context, a *models.QuizAttempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error)
	ListAttempts(ctx context.Context, quizID uuid.UUID, participantID *uuid.UUID) ([]models.QuizAttempt, error)
}

// QuizHandler serves quizzes and their attempts
type QuizHandler struct {
	quizzes QuizManager
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizzes QuizManager) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

// activeQuiz loads the quiz named by {id} and answers 404 when it is not open
func (h *QuizHandler) activeQuiz(w http.ResponseWriter, r *http.Request) (*models.Quiz, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	quiz, err := h.quizzes.GetQuiz(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return nil, false
	}
	if !quiz.IsActive {
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
		return nil, false
	}
	return quiz, true
}

// ListActiveQuizzes lists the quizzes open to participants
// @Summary List quizzes
// @Tags Quizzes
// @Produce json
// @Success 200 {array} models.Quiz
// @Router /quizzes [get]
func (h *QuizHandler) ListActiveQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := h.quizzes.ListQuizzes(r.Context(), true)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// GetActiveQuiz returns an open quiz with its questions, answers removed
// @Summary Get quiz
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} map[string]any
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetActiveQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.activeQuiz(w, r)
	if !ok {
		return
	}
	questions, err := h.quizzes.ListQuestions(r.Context(), quiz.ID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	for i := range questions {
		questions[i].CorrectAnswer = ""
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"quiz": quiz, "questions": questions})
}

// RegisterRequest names a quiz participant
type RegisterRequest struct {
	Name        string     `json:"name"`
	CandidateID *uuid.UUID `json:"candidate_id,omitempty"`
}

// Register registers a participant for an open quiz
// @Summary Register for quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body RegisterRequest true "Participant"
// @Success 201 {object} models.QuizParticipant
// @Router /quizzes/{id}/participants [post]
func (h *QuizHandler) Register(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.activeQuiz(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.quizzes.RegisterParticipant(r.Context(), quiz.ID, req.Name, req.CandidateID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

// StartAttemptRequest names the participant starting an attempt
type StartAttemptRequest struct {
	ParticipantID uuid.UUID `json:"participant_id"`
}

// StartAttempt opens an attempt when the retake rules allow it
// @Summary Start quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body StartAttemptRequest true "Participant"
// @Success 201 {object} models.QuizAttempt
// @Failure 409 {object} map[string]string "Retake not allowed"
// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.activeQuiz(w, r)
	if !ok {
		return
	}
	var req StartAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	allowed, err := h.quizzes.CanAttempt(r.Context(), quiz.ID, req.ParticipantID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if !allowed {
		respondWithServiceError(w, r, service.ErrRetakeNotAllowed)
		return
	}

	a, err := h.quizzes.StartAttempt(r.Context(), quiz.ID, req.ParticipantID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, a)
}

// CompleteAttemptRequest carries the answers of an attempt
type CompleteAttemptRequest struct {
	Answers []service.QuizAnswerInput `json:"answers"`
}

// CompleteAttempt scores an open attempt
// @Summary Complete quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param attemptId path string true "Attempt ID"
// @Param request body CompleteAttemptRequest true "Answers"
// @Success 200 {object} models.QuizAttempt
// @Failure 409 {object} map[string]string "Already completed or time limit exceeded"
// @Router /quiz-attempts/{attemptId}/complete [post]
func (h *QuizHandler) CompleteAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "attemptId")
	if !ok {
		return
	}
	var req CompleteAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.quizzes.CompleteAttempt(r.Context(), id, req.Answers)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, a)
}

// Staff endpoints

// ListQuizzes lists every quiz
// @Summary List all quizzes
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Quiz
// @Router /admin/quizzes [get]
func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := h.quizzes.ListQuizzes(r.Context(), queryBool(r, "active", false))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateQuiz creates a quiz
// @Summary Create quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Quiz true "Quiz"
// @Success 201 {object} models.Quiz
// @Router /admin/quizzes [post]
func (h *QuizHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var q models.Quiz
	if !decodeJSON(w, r, &q) {
		return
	}
	if err := h.quizzes.CreateQuiz(r.Context(), &q, middleware.Actor(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, q)
}

// GetQuiz returns a quiz with its questions and answers
// @Summary Get quiz with answers
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} map[string]any
// @Router /admin/quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.GetQuiz(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	questions, err := h.quizzes.ListQuestions(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"quiz": quiz, "questions": questions})
}

// UpdateQuiz edits a quiz
// @Summary Update quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param request body models.Quiz true "Quiz"
// @Success 200 {object} models.Quiz
// @Router /admin/quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var q models.Quiz
	if !decodeJSON(w, r, &q) {
		return
	}
	q.ID = id
	if err := h.quizzes.UpdateQuiz(r.Context(), &q); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

// DeleteQuiz removes a quiz
// @Summary Delete quiz
// @Tags Quizzes
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 204
// @Router /admin/quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.quizzes.DeleteQuiz(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddQuestion appends a question to a quiz
// @Summary Add quiz question
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param request body models.QuizQuestion true "Question"
// @Success 201 {object} models.QuizQuestion
// @Router /admin/quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var q models.QuizQuestion
	if !decodeJSON(w, r, &q) {
		return
	}
	q.QuizID = id
	if err := h.quizzes.AddQuestion(r.Context(), &q); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, q)
}

// UpdateQuestion edits a quiz question
// @Summary Update quiz question
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "Question ID"
// @Param request body models.QuizQuestion true "Question"
// @Success 200 {object} models.QuizQuestion
// @Router /admin/quiz-questions/{questionId} [put]
func (h *QuizHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionId")
	if !ok {
		return
	}
	var q models.QuizQuestion
	if !decodeJSON(w, r, &q) {
		return
	}
	q.ID = id
	if err := h.quizzes.UpdateQuestion(r.Context(), &q); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

// DeleteQuestion removes a quiz question
// @Summary Delete quiz question
// @Tags Quizzes
// @Security BearerAuth
// @Param questionId path string true "Question ID"
// @Success 204
// @Router /admin/quiz-questions/{questionId} [delete]
func (h *QuizHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionId")
	if !ok {
		return
	}
	if err := h.quizzes.DeleteQuestion(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants lists the participants of a quiz
// @Summary List quiz participants
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {array} models.QuizParticipant
// @Router /admin/quizzes/{id}/participants [get]
func (h *QuizHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.quizzes.ListParticipants(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// ListAttempts lists the attempts of a quiz
// @Summary List quiz attempts
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param participant_id query string false "Participant ID"
// @Success 200 {array} models.QuizAttempt
// @Router /admin/quizzes/{id}/attempts [get]
func (h *QuizHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	participantID, ok := queryID(w, r, "participant_id")
	if !ok {
		return
	}
	list, err := h.quizzes.ListAttempts(r.Context(), id, participantID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// RecordAttempt stores an attempt scored outside the portal
// @Summary Record quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param request body models.QuizAttempt true "Attempt"
// @Success 201 {object} models.QuizAttempt
// @Router /admin/quizzes/{id}/attempts [post]
func (h *QuizHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var a models.QuizAttempt
	if !decodeJSON(w, r, &a) {
		return
	}
	a.QuizID = id
	if err := h.quizzes.RecordAttempt(r.Context(), &a); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, a)
}
