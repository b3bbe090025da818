package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

// QuizStore persists quizzes, their questions, participants and attempts
type QuizStore interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	List(ctx context.Context, onlyActive bool) ([]models.Quiz, error)
	Update(ctx context.Context, q *models.Quiz) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateQuestion(ctx context.Context, q *models.QuizQuestion) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.QuizQuestion, error)
	ListQuestions(ctx context.Context, quizID uuid.UUID) ([]models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, q *models.QuizQuestion) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error

	CreateParticipant(ctx context.Context, p *models.QuizParticipant) error
	GetParticipant(ctx context.Context, id uuid.UUID) (*models.QuizParticipant, error)
	ListParticipants(ctx context.Context, quizID uuid.UUID) ([]models.QuizParticipant, error)

	CreateAttempt(ctx context.Context, a *models.QuizAttempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error)
	CompleteAttempt(ctx context.Context, a *models.QuizAttempt) error
	ListAttempts(ctx context.Context, quizID uuid.UUID, participantID *uuid.UUID) ([]models.QuizAttempt, error)
	CountAttempts(ctx context.Context, quizID, participantID uuid.UUID) (int, error)
}

// submissionGrace covers the final request still in flight when the time limit ends
const submissionGrace = 30 * time.Second

// QuizService manages quizzes and scores attempts
type QuizService struct {
	store QuizStore
	now   func() time.Time
}

// NewQuizService creates a new quiz service
func NewQuizService(store QuizStore) *QuizService {
	return &QuizService{store: store, now: time.Now}
}

func validateQuiz(q *models.Quiz) error {
	ve := &ValidationError{}
	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		ve.Add("title", "is required")
	}
	if q.MaxScore < 0 {
		ve.Add("max_score", "must not be negative")
	}
	if q.TimeLimit != nil && *q.TimeLimit <= 0 {
		ve.Add("time_limit", "must be a positive number of minutes")
	}
	if q.SubModuleID != nil && q.ModuleID == nil {
		ve.Add("module_id", "is required when a sub-module is set")
	}
	return ve.Err()
}

// CreateQuiz stores a new quiz
func (s *QuizService) CreateQuiz(ctx context.Context, q *models.Quiz, actor models.Actor) error {
	if err := validateQuiz(q); err != nil {
		return err
	}
	q.CreatedBy = actor.UserID
	return s.store.Create(ctx, q)
}

// GetQuiz returns a quiz or ErrNotFound
func (s *QuizService) GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	return q, nil
}

// ListQuizzes returns quizzes, optionally only active ones
func (s *QuizService) ListQuizzes(ctx context.Context, onlyActive bool) ([]models.Quiz, error) {
	return s.store.List(ctx, onlyActive)
}

// UpdateQuiz overwrites an existing quiz
func (s *QuizService) UpdateQuiz(ctx context.Context, q *models.Quiz) error {
	existing, err := s.GetQuiz(ctx, q.ID)
	if err != nil {
		return err
	}
	if err := validateQuiz(q); err != nil {
		return err
	}
	q.CreatedBy, q.CreatedAt = existing.CreatedBy, existing.CreatedAt
	return s.store.Update(ctx, q)
}

// DeleteQuiz removes a quiz with its questions, participants and attempts
func (s *QuizService) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetQuiz(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func validateQuizQuestion(q *models.QuizQuestion) error {
	ve := &ValidationError{}
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		ve.Add("question", "is required")
	}
	if blank(q.CorrectAnswer) {
		ve.Add("correct_answer", "is required")
	} else if len(q.Options) > 0 && !slices.ContainsFunc(q.Options, func(o string) bool { return sameAnswer(o, q.CorrectAnswer) }) {
		ve.Add("correct_answer", "must be one of the options")
	}
	if q.Points < 0 {
		ve.Add("points", "must not be negative")
	}
	return ve.Err()
}

// AddQuestion appends a question to a quiz. The caller maintains order numbers.
func (s *QuizService) AddQuestion(ctx context.Context, q *models.QuizQuestion) error {
	if _, err := s.GetQuiz(ctx, q.QuizID); err != nil {
		return err
	}
	if err := validateQuizQuestion(q); err != nil {
		return err
	}
	return s.store.CreateQuestion(ctx, q)
}

// ListQuestions returns the questions of a quiz by order number
func (s *QuizService) ListQuestions(ctx context.Context, quizID uuid.UUID) ([]models.QuizQuestion, error) {
	return s.store.ListQuestions(ctx, quizID)
}

// UpdateQuestion overwrites an existing question
func (s *QuizService) UpdateQuestion(ctx context.Context, q *models.QuizQuestion) error {
	existing, err := s.store.GetQuestion(ctx, q.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	q.QuizID = existing.QuizID
	if err := validateQuizQuestion(q); err != nil {
		return err
	}
	return s.store.UpdateQuestion(ctx, q)
}

// DeleteQuestion removes a question without renumbering the others
func (s *QuizService) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	existing, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return s.store.DeleteQuestion(ctx, id)
}

// RegisterParticipant registers someone for a quiz
func (s *QuizService) RegisterParticipant(ctx context.Context, quizID uuid.UUID, name string, candidateID *uuid.UUID) (*models.QuizParticipant, error) {
	if _, err := s.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	p := &models.QuizParticipant{QuizID: quizID, Name: name, CandidateID: candidateID}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParticipants returns the participants of a quiz
func (s *QuizService) ListParticipants(ctx context.Context, quizID uuid.UUID) ([]models.QuizParticipant, error) {
	return s.store.ListParticipants(ctx, quizID)
}

func (s *QuizService) participantOf(ctx context.Context, quizID, participantID uuid.UUID) error {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if p == nil || p.QuizID != quizID {
		return invalid("participant_id", "is not registered for this quiz")
	}
	return nil
}

// CanAttempt reports whether the participant may start another attempt
func (s *QuizService) CanAttempt(ctx context.Context, quizID, participantID uuid.UUID) (bool, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return false, err
	}
	if quiz.AllowRetakes {
		return true, nil
	}
	n, err := s.store.CountAttempts(ctx, quizID, participantID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// StartAttempt opens an attempt. Retake rules are left to the caller, see CanAttempt.
func (s *QuizService) StartAttempt(ctx context.Context, quizID, participantID uuid.UUID) (*models.QuizAttempt, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizClosed
	}
	if err := s.participantOf(ctx, quizID, participantID); err != nil {
		return nil, err
	}

	a := &models.QuizAttempt{
		QuizID:        quizID,
		ParticipantID: participantID,
		Answers:       models.QuizAnswers{},
		StartedAt:     s.now(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// QuizAnswerInput is one answer as sent by the participant
type QuizAnswerInput struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

// CompleteAttempt scores the answers of an open attempt. When the quiz has a
// time limit the attempt must be completed within it.
func (s *QuizService) CompleteAttempt(ctx context.Context, attemptID uuid.UUID, answers []QuizAnswerInput) (*models.QuizAttempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.IsCompleted {
		return nil, ErrInvalidTransition
	}
	quiz, err := s.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if quiz.TimeLimit != nil {
		deadline := a.StartedAt.Add(time.Duration(*quiz.TimeLimit)*time.Minute + submissionGrace)
		if now.After(deadline) {
			return nil, ErrTimeLimitExceeded
		}
	}

	questions, err := s.store.ListQuestions(ctx, a.QuizID)
	if err != nil {
		return nil, err
	}
	scored, err := ScoreQuizAnswers(questions, answers)
	if err != nil {
		return nil, err
	}

	a.Answers = scored
	a.Score, a.MaxPossibleScore = 0, 0
	for _, q := range questions {
		a.MaxPossibleScore += q.Points
	}
	for _, ans := range scored {
		a.Score += ans.Points
	}
	a.Percentage = Percentage(float64(a.Score), float64(a.MaxPossibleScore))
	a.CompletedAt = &now

	if err := s.store.CompleteAttempt(ctx, a); err != nil {
		return nil, staleToTransition(err)
	}
	return a, nil
}

// ScoreQuizAnswers marks each answer against its question. The result follows
// question order and includes unanswered questions as wrong.
func ScoreQuizAnswers(questions []models.QuizQuestion, inputs []QuizAnswerInput) (models.QuizAnswers, error) {
	byID := make(map[uuid.UUID]string, len(inputs))
	ve := &ValidationError{}
	for _, in := range inputs {
		if !slices.ContainsFunc(questions, func(q models.QuizQuestion) bool { return q.ID == in.QuestionID }) {
			ve.Add("answers", fmt.Sprintf("unknown question %s", in.QuestionID))
			continue
		}
		byID[in.QuestionID] = in.Answer
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	sorted := slices.Clone(questions)
	slices.SortStableFunc(sorted, func(a, b models.QuizQuestion) int { return a.OrderNumber - b.OrderNumber })

	scored := make(models.QuizAnswers, 0, len(sorted))
	for _, q := range sorted {
		answer, answered := byID[q.ID]
		correct := answered && sameAnswer(answer, q.CorrectAnswer)
		points := 0
		if correct {
			points = q.Points
		}
		scored = append(scored, models.QuizAnswer{
			QuestionID: q.ID,
			Answer:     answer,
			IsCorrect:  correct,
			Points:     points,
		})
	}
	return scored, nil
}

// RecordAttempt stores an attempt that was scored elsewhere, such as a paper quiz
func (s *QuizService) RecordAttempt(ctx context.Context, a *models.QuizAttempt) error {
	if _, err := s.GetQuiz(ctx, a.QuizID); err != nil {
		return err
	}
	if err := s.participantOf(ctx, a.QuizID, a.ParticipantID); err != nil {
		return err
	}

	ve := &ValidationError{}
	if a.MaxPossibleScore < 0 {
		ve.Add("max_possible_score", "must not be negative")
	}
	if a.Score < 0 || a.Score > a.MaxPossibleScore {
		ve.Add("score", "must be between 0 and max_possible_score")
	}
	if err := ve.Err(); err != nil {
		return err
	}

	now := s.now()
	if a.StartedAt.IsZero() {
		a.StartedAt = now
	}
	if a.CompletedAt == nil {
		a.CompletedAt = &now
	}
	if a.Answers == nil {
		a.Answers = models.QuizAnswers{}
	}
	a.IsCompleted = true
	a.Percentage = Percentage(float64(a.Score), float64(a.MaxPossibleScore))
	return s.store.CreateAttempt(ctx, a)
}

// GetAttempt returns an attempt or ErrNotFound
func (s *QuizService) GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	a, err := s.store.GetAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// ListAttempts returns the attempts of a quiz, optionally for one participant
func (s *QuizService) ListAttempts(ctx context.Context, quizID uuid.UUID, participantID *uuid.UUID) ([]models.QuizAttempt, error) {
	return s.store.ListAttempts(ctx, quizID, participantID)
}
