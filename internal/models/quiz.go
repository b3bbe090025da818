package models

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is a short test attached to a training module
type Quiz struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	ModuleID     *uuid.UUID `json:"module_id,omitempty" db:"module_id"`
	SubModuleID  *uuid.UUID `json:"sub_module_id,omitempty" db:"sub_module_id"`
	MaxScore     int        `json:"max_score" db:"max_score"`
	TimeLimit    *int       `json:"time_limit,omitempty" db:"time_limit"` // minutes
	IsActive     bool       `json:"is_active" db:"is_active"`
	AllowRetakes bool       `json:"allow_retakes" db:"allow_retakes"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// QuizQuestion is one question of a quiz
type QuizQuestion struct {
	ID            uuid.UUID `json:"id" db:"id"`
	QuizID        uuid.UUID `json:"quiz_id" db:"quiz_id"`
	Question      string    `json:"question" db:"question"`
	Options       []string  `json:"options,omitempty" db:"options"`
	CorrectAnswer string    `json:"correct_answer" db:"correct_answer"`
	Points        int       `json:"points" db:"points"`
	OrderNumber   int       `json:"order_number" db:"order_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// QuizParticipant is someone registered to take a quiz
type QuizParticipant struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	QuizID       uuid.UUID  `json:"quiz_id" db:"quiz_id"`
	Name         string     `json:"name" db:"name"`
	CandidateID  *uuid.UUID `json:"candidate_id,omitempty" db:"candidate_id"`
	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
}

// QuizAnswer is one answer within an attempt
type QuizAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct"`
	Points     int       `json:"points"`
}

// QuizAttempt is one sitting of a quiz
type QuizAttempt struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	QuizID           uuid.UUID   `json:"quiz_id" db:"quiz_id"`
	ParticipantID    uuid.UUID   `json:"participant_id" db:"participant_id"`
	Answers          QuizAnswers `json:"answers" db:"answers"`
	Score            int         `json:"score" db:"score"`
	MaxPossibleScore int         `json:"max_possible_score" db:"max_possible_score"`
	Percentage       int         `json:"percentage" db:"percentage"`
	StartedAt        time.Time   `json:"started_at" db:"started_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	IsCompleted      bool        `json:"is_completed" db:"is_completed"`
}
