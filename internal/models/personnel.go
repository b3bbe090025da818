package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency is a law-enforcement organisation
type Agency struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Abbreviation string    `json:"abbreviation" db:"abbreviation"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Grade is a rank within an agency
type Grade struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AgencyID  uuid.UUID `json:"agency_id" db:"agency_id"`
	Name      string    `json:"name" db:"name"`
	RankOrder int       `json:"rank_order" db:"rank_order"`
}

// Specialty is a qualification scoped to an agency
type Specialty struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AgencyID    uuid.UUID `json:"agency_id" db:"agency_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
}

// AgentStatus is the service state of an agent
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusInactive  AgentStatus = "inactive"
	AgentStatusSuspended AgentStatus = "suspended"
	AgentStatusRetired   AgentStatus = "retired"
	AgentStatusTraining  AgentStatus = "training"
)

// Valid reports whether s is a known agent status
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusActive, AgentStatusInactive, AgentStatusSuspended, AgentStatusRetired, AgentStatusTraining:
		return true
	}
	return false
}

// PoliceAgent is a member of the personnel
type PoliceAgent struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	BadgeNumber string      `json:"badge_number" db:"badge_number"`
	AgencyID    *uuid.UUID  `json:"agency_id,omitempty" db:"agency_id"`
	GradeID     *uuid.UUID  `json:"grade_id,omitempty" db:"grade_id"`
	Status      AgentStatus `json:"status" db:"status"`
	Email       *string     `json:"email,omitempty" db:"email"`
	Phone       *string     `json:"phone,omitempty" db:"phone"`
	Address     *string     `json:"address,omitempty" db:"address"`
	HireDate    *time.Time  `json:"hire_date,omitempty" db:"hire_date"`
	CandidateID *uuid.UUID  `json:"candidate_id,omitempty" db:"candidate_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// AgentSpecialty links an agent to a specialty
type AgentSpecialty struct {
	AgentID       uuid.UUID  `json:"agent_id" db:"agent_id"`
	SpecialtyID   uuid.UUID  `json:"specialty_id" db:"specialty_id"`
	SpecialtyName string     `json:"specialty_name" db:"specialty_name"`
	AssignedBy    *uuid.UUID `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt    time.Time  `json:"assigned_at" db:"assigned_at"`
}

// DisciplinaryType is the severity of a disciplinary action
type DisciplinaryType string

const (
	DisciplinaryWarning     DisciplinaryType = "warning"
	DisciplinaryReprimand   DisciplinaryType = "reprimand"
	DisciplinarySuspension  DisciplinaryType = "suspension"
	DisciplinaryTermination DisciplinaryType = "termination"
)

// Valid reports whether t is a known disciplinary type
func (t DisciplinaryType) Valid() bool {
	switch t {
	case DisciplinaryWarning, DisciplinaryReprimand, DisciplinarySuspension, DisciplinaryTermination:
		return true
	}
	return false
}

// DisciplinaryRecord is a sanction recorded against an agent
type DisciplinaryRecord struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	AgentID   uuid.UUID        `json:"agent_id" db:"agent_id"`
	Type      DisciplinaryType `json:"type" db:"type"`
	Date      time.Time        `json:"date" db:"date"`
	Reason    string           `json:"reason" db:"reason"`
	IssuedBy  *uuid.UUID       `json:"issued_by,omitempty" db:"issued_by"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// TrainingRecord is a completed training on an agent's profile
type TrainingRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AgentID     uuid.UUID `json:"agent_id" db:"agent_id"`
	Title       string    `json:"title" db:"title"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
	Hours       *float64  `json:"hours,omitempty" db:"hours"`
	Instructor  *string   `json:"instructor,omitempty" db:"instructor"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AgentDossier is the full personnel file of one agent
type AgentDossier struct {
	Agent               PoliceAgent          `json:"agent"`
	Agency              *Agency              `json:"agency,omitempty"`
	Grade               *Grade               `json:"grade,omitempty"`
	Specialties         []AgentSpecialty     `json:"specialties"`
	Trainings           []TrainingRecord     `json:"trainings"`
	DisciplinaryRecords []DisciplinaryRecord `json:"disciplinary_records"`
}
