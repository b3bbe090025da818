package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"academy-portal/internal/models"
)

// QuizRepository handles quizzes, questions, participants and attempts
type QuizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *sql.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

const quizColumns = `
	id, title, description, module_id, sub_module_id, max_score, time_limit,
	is_active, allow_retakes, created_by, created_at, updated_at`

func scanQuiz(s rowScanner, q *models.Quiz) error {
	return s.Scan(
		&q.ID,
		&q.Title,
		&q.Description,
		&q.ModuleID,
		&q.SubModuleID,
		&q.MaxScore,
		&q.TimeLimit,
		&q.IsActive,
		&q.AllowRetakes,
		&q.CreatedBy,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
}

// Create inserts a quiz
func (r *QuizRepository) Create(ctx context.Context, q *models.Quiz) error {
	query := `
		INSERT INTO quizzes (title, description, module_id, sub_module_id, max_score, time_limit,
		                     is_active, allow_retakes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		q.Title, q.Description, q.ModuleID, q.SubModuleID, q.MaxScore, q.TimeLimit,
		q.IsActive, q.AllowRetakes, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetByID retrieves a quiz; it returns nil when none exists
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	err := scanQuiz(r.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id), q)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return q, nil
}

// List returns quizzes newest first
func (r *QuizRepository) List(ctx context.Context, onlyActive bool) ([]models.Quiz, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE (NOT $1 OR is_active) ORDER BY created_at DESC`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []models.Quiz{}
	for rows.Next() {
		var q models.Quiz
		if err := scanQuiz(rows, &q); err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Update overwrites a quiz
func (r *QuizRepository) Update(ctx context.Context, q *models.Quiz) error {
	query := `
		UPDATE quizzes
		SET title = $1, description = $2, module_id = $3, sub_module_id = $4, max_score = $5,
		    time_limit = $6, is_active = $7, allow_retakes = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		q.Title, q.Description, q.ModuleID, q.SubModuleID, q.MaxScore, q.TimeLimit, q.IsActive, q.AllowRetakes, q.ID,
	).Scan(&q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

// Delete removes a quiz and everything attached to it
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

// Questions

const quizQuestionColumns = `id, quiz_id, question, options, correct_answer, points, order_number, created_at`

func scanQuizQuestion(s rowScanner, q *models.QuizQuestion) error {
	return s.Scan(&q.ID, &q.QuizID, &q.Question, pq.Array(&q.Options), &q.CorrectAnswer, &q.Points, &q.OrderNumber, &q.CreatedAt)
}

// CreateQuestion inserts a quiz question
func (r *QuizRepository) CreateQuestion(ctx context.Context, q *models.QuizQuestion) error {
	query := `
		INSERT INTO quiz_questions (quiz_id, question, options, correct_answer, points, order_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		q.QuizID, q.Question, stringArray(q.Options), q.CorrectAnswer, q.Points, q.OrderNumber,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create quiz question: %w", err)
	}
	return nil
}

// GetQuestion retrieves a quiz question; it returns nil when none exists
func (r *QuizRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*models.QuizQuestion, error) {
	q := &models.QuizQuestion{}
	err := scanQuizQuestion(r.db.QueryRowContext(ctx, `SELECT `+quizQuestionColumns+` FROM quiz_questions WHERE id = $1`, id), q)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz question: %w", err)
	}
	return q, nil
}

// ListQuestions returns the questions of a quiz by order number
func (r *QuizRepository) ListQuestions(ctx context.Context, quizID uuid.UUID) ([]models.QuizQuestion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+quizQuestionColumns+` FROM quiz_questions WHERE quiz_id = $1 ORDER BY order_number, created_at`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz questions: %w", err)
	}
	defer rows.Close()

	questions := []models.QuizQuestion{}
	for rows.Next() {
		var q models.QuizQuestion
		if err := scanQuizQuestion(rows, &q); err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateQuestion overwrites a quiz question
func (r *QuizRepository) UpdateQuestion(ctx context.Context, q *models.QuizQuestion) error {
	query := `
		UPDATE quiz_questions
		SET question = $1, options = $2, correct_answer = $3, points = $4, order_number = $5
		WHERE id = $6
	`
	if _, err := r.db.ExecContext(ctx, query, q.Question, stringArray(q.Options), q.CorrectAnswer, q.Points, q.OrderNumber, q.ID); err != nil {
		return fmt.Errorf("failed to update quiz question: %w", err)
	}
	return nil
}

// DeleteQuestion removes a quiz question; remaining order numbers are left as they are
func (r *QuizRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete quiz question: %w", err)
	}
	return nil
}

// Participants

// CreateParticipant registers a participant
func (r *QuizRepository) CreateParticipant(ctx context.Context, p *models.QuizParticipant) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO quiz_participants (quiz_id, name, candidate_id) VALUES ($1, $2, $3) RETURNING id, registered_at`,
		p.QuizID, p.Name, p.CandidateID,
	).Scan(&p.ID, &p.RegisteredAt)
	if err != nil {
		return fmt.Errorf("failed to register participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant; it returns nil when none exists
func (r *QuizRepository) GetParticipant(ctx context.Context, id uuid.UUID) (*models.QuizParticipant, error) {
	p := &models.QuizParticipant{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, quiz_id, name, candidate_id, registered_at FROM quiz_participants WHERE id = $1`, id,
	).Scan(&p.ID, &p.QuizID, &p.Name, &p.CandidateID, &p.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns the participants of a quiz
func (r *QuizRepository) ListParticipants(ctx context.Context, quizID uuid.UUID) ([]models.QuizParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, quiz_id, name, candidate_id, registered_at FROM quiz_participants WHERE quiz_id = $1 ORDER BY name`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []models.QuizParticipant{}
	for rows.Next() {
		var p models.QuizParticipant
		if err := rows.Scan(&p.ID, &p.QuizID, &p.Name, &p.CandidateID, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// Attempts

const attemptColumns = `
	id, quiz_id, participant_id, answers, score, max_possible_score, percentage,
	started_at, completed_at, is_completed`

func scanAttempt(s rowScanner, a *models.QuizAttempt) error {
	return s.Scan(
		&a.ID,
		&a.QuizID,
		&a.ParticipantID,
		&a.Answers,
		&a.Score,
		&a.MaxPossibleScore,
		&a.Percentage,
		&a.StartedAt,
		&a.CompletedAt,
		&a.IsCompleted,
	)
}

// CreateAttempt inserts an attempt, started or already scored
func (r *QuizRepository) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (quiz_id, participant_id, answers, score, max_possible_score, percentage,
		                           started_at, completed_at, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		a.QuizID, a.ParticipantID, a.Answers, a.Score, a.MaxPossibleScore, a.Percentage,
		a.StartedAt, a.CompletedAt, a.IsCompleted,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// GetAttempt retrieves an attempt; it returns nil when none exists
func (r *QuizRepository) GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	err := scanAttempt(r.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return a, nil
}

// CompleteAttempt stores the scored answers of an open attempt. A completed attempt yields ErrStaleState.
func (r *QuizRepository) CompleteAttempt(ctx context.Context, a *models.QuizAttempt) error {
	query := `
		UPDATE quiz_attempts
		SET answers = $1, score = $2, max_possible_score = $3, percentage = $4,
		    completed_at = $5, is_completed = TRUE
		WHERE id = $6 AND NOT is_completed
	`
	res, err := r.db.ExecContext(ctx, query, a.Answers, a.Score, a.MaxPossibleScore, a.Percentage, a.CompletedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to complete attempt: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to complete attempt: %w", err)
	}
	if !ok {
		return ErrStaleState
	}
	a.IsCompleted = true
	return nil
}

// ListAttempts returns the attempts of a quiz, optionally for one participant, newest first
func (r *QuizRepository) ListAttempts(ctx context.Context, quizID uuid.UUID, participantID *uuid.UUID) ([]models.QuizAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM quiz_attempts
		WHERE quiz_id = $1 AND ($2::uuid IS NULL OR participant_id = $2)
		ORDER BY started_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, quizID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.QuizAttempt{}
	for rows.Next() {
		var a models.QuizAttempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CountAttempts counts the attempts a participant has on a quiz
func (r *QuizRepository) CountAttempts(ctx context.Context, quizID, participantID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND participant_id = $2`, quizID, participantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}
