package models

import (
	"time"

	"github.com/google/uuid"
)

// CompetitionType controls who may see and enter a competition
type CompetitionType string

const (
	CompetitionTypeExternal CompetitionType = "external"
	CompetitionTypeInternal CompetitionType = "internal"
	CompetitionTypePrivate  CompetitionType = "private"
)

// Valid reports whether t is a known competition type
func (t CompetitionType) Valid() bool {
	switch t {
	case CompetitionTypeExternal, CompetitionTypeInternal, CompetitionTypePrivate:
		return true
	}
	return false
}

// Competition is a recruitment exam or internal contest
type Competition struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Type        CompetitionType `json:"type" db:"type"`
	Specialty   string          `json:"specialty" db:"specialty"`
	MaxScore    int             `json:"max_score" db:"max_score"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	IsEntryTest bool            `json:"is_entry_test" db:"is_entry_test"`
	StartDate   *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty" db:"end_date"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the competition is currently open at now:
// active, and now within the optional [StartDate, EndDate] window.
func (c *Competition) IsOpen(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return true
}

// InvitationStatus is the lifecycle state of a private competition invitation
type InvitationStatus string

const (
	InvitationStatusCreated InvitationStatus = "created"
	InvitationStatusUsed    InvitationStatus = "used"
)

// CompetitionInvitation is a single-use credential pair for a private competition
type CompetitionInvitation struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	CompetitionID   uuid.UUID        `json:"competition_id" db:"competition_id"`
	CandidateName   string           `json:"candidate_name" db:"candidate_name"`
	CandidateEmail  *string          `json:"candidate_email,omitempty" db:"candidate_email"`
	LoginIdentifier string           `json:"login_identifier" db:"login_identifier"`
	LoginPassword   string           `json:"login_password" db:"login_password"`
	Status          InvitationStatus `json:"status" db:"status"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UsedAt          *time.Time       `json:"used_at,omitempty" db:"used_at"`
}

// InvitationCandidate is one invitee passed to CreateInvitations
type InvitationCandidate struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

// PrivateCompetitionAccess is returned by a successful private competition login
type PrivateCompetitionAccess struct {
	Invitation  CompetitionInvitation `json:"invitation"`
	Competition Competition           `json:"competition"`
	AccessToken string                `json:"access_token,omitempty"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
}

// QuestionType is the kind of a competition question
type QuestionType string

const (
	QuestionTypeQCM     QuestionType = "qcm"
	QuestionTypeText    QuestionType = "text"
	QuestionTypeSection QuestionType = "section"
)

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeQCM, QuestionTypeText, QuestionTypeSection:
		return true
	}
	return false
}

// CompetitionQuestion is one item of a competition; sections only structure the paper
type CompetitionQuestion struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	CompetitionID uuid.UUID    `json:"competition_id" db:"competition_id"`
	Question      string       `json:"question" db:"question"`
	Type          QuestionType `json:"type" db:"type"`
	Options       []string     `json:"options,omitempty" db:"options"`
	CorrectAnswer *string      `json:"correct_answer,omitempty" db:"correct_answer"`
	MaxPoints     int          `json:"max_points" db:"max_points"`
	OrderNumber   int          `json:"order_number" db:"order_number"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// Answer is one graded answer of a participation
type Answer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"max_score"`
}

// ParticipationStatus is the grading state of a participation
type ParticipationStatus string

const (
	ParticipationStatusSubmitted ParticipationStatus = "submitted"
	ParticipationStatusGraded    ParticipationStatus = "graded"
	ParticipationStatusPromoted  ParticipationStatus = "promoted"
)

// CompetitionParticipation is one submitted paper
type CompetitionParticipation struct {
	ID               uuid.UUID           `json:"id" db:"id"`
	CompetitionID    uuid.UUID           `json:"competition_id" db:"competition_id"`
	InvitationID     *uuid.UUID          `json:"invitation_id,omitempty" db:"invitation_id"`
	ParticipantName  string              `json:"participant_name" db:"participant_name"`
	ParticipantRIO   *string             `json:"participant_rio,omitempty" db:"participant_rio"`
	Answers          Answers             `json:"answers" db:"answers"`
	TotalScore       int                 `json:"total_score" db:"total_score"`
	MaxPossibleScore int                 `json:"max_possible_score" db:"max_possible_score"`
	Comment          *string             `json:"comment,omitempty" db:"comment"`
	Status           ParticipationStatus `json:"status" db:"status"`
	GradedBy         *uuid.UUID          `json:"graded_by,omitempty" db:"graded_by"`
	GradedAt         *time.Time          `json:"graded_at,omitempty" db:"graded_at"`
	SubmittedAt      time.Time           `json:"submitted_at" db:"submitted_at"`
}

// RecomputeTotals sets TotalScore and MaxPossibleScore from the answers
func (p *CompetitionParticipation) RecomputeTotals() {
	p.TotalScore, p.MaxPossibleScore = 0, 0
	for _, a := range p.Answers {
		p.TotalScore += a.Score
		p.MaxPossibleScore += a.MaxScore
	}
}

// ParticipationWithCompetition bundles a participation with its parent competition
type ParticipationWithCompetition struct {
	CompetitionParticipation
	Competition Competition `json:"competition"`
}
