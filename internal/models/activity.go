package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity types written by the services
const (
	ActivityCompetitionCreated    = "competition.created"
	ActivityInvitationsCreated    = "competition.invitations_created"
	ActivityParticipationGraded   = "competition.participation_graded"
	ActivityCandidatePromoted     = "competition.candidate_promoted"
	ActivityApplicationReviewed   = "application.reviewed"
	ActivityApplicationAccepted   = "application.accepted"
	ActivityDisciplinaryCreated   = "agent.disciplinary_created"
	ActivityDisciplinaryDeleted   = "agent.disciplinary_deleted"
	ActivitySpecialtyAssigned     = "agent.specialty_assigned"
	ActivitySpecialtyRemoved      = "agent.specialty_removed"
	ActivityTrainingAdded         = "agent.training_added"
	ActivityTrainingDeleted       = "agent.training_deleted"
	ActivityAgentStatusChanged    = "agent.status_changed"
	ActivityCandidateCertified    = "candidate.certified"
	ActivityScoreRecorded         = "candidate.score_recorded"
	ActivityCompetitionsAutoClose = "scheduler.competitions_closed"
)

// ActivityLog is one append-only audit event
type ActivityLog struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	AuthorEmail string    `json:"author_email" db:"author_email"`
	Role        string    `json:"role" db:"role"`
	Details     Details   `json:"details" db:"details"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ActivityFilter narrows an activity log query
type ActivityFilter struct {
	Since  *time.Time
	Type   string // case-insensitive substring
	Role   string // exact match
	Search string // matched against author_email and type
	Limit  int
}

// Actor identifies who performed an operation
type Actor struct {
	UserID *uuid.UUID
	Email  string
	Role   string
}
