package models

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a trainee enrolled at the academy
type Candidate struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	ServerID              string           `json:"server_id" db:"server_id"`
	ClassIDs              []string         `json:"class_ids" db:"class_ids"`
	IsCertified           bool             `json:"is_certified" db:"is_certified"`
	CertificationDate     *time.Time       `json:"certification_date,omitempty" db:"certification_date"`
	CertifiedBy           *uuid.UUID       `json:"certified_by,omitempty" db:"certified_by"`
	SourceParticipationID *uuid.UUID       `json:"source_participation_id,omitempty" db:"source_participation_id"`
	SourceApplicationID   *uuid.UUID       `json:"source_application_id,omitempty" db:"source_application_id"`
	ModuleScores          []SubModuleScore `json:"module_scores,omitempty" db:"-"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// Module is a training unit made of sub-modules
type Module struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	Name               string      `json:"name" db:"name"`
	Description        *string     `json:"description,omitempty" db:"description"`
	OrderNumber        int         `json:"order_number" db:"order_number"`
	InstructorInCharge *string     `json:"instructor_in_charge,omitempty" db:"instructor_in_charge"`
	SubModules         []SubModule `json:"sub_modules" db:"-"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// SubModule is a graded part of a module
type SubModule struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ModuleID     uuid.UUID `json:"module_id" db:"module_id"`
	Name         string    `json:"name" db:"name"`
	OrderNumber  int       `json:"order_number" db:"order_number"`
	MaxScore     float64   `json:"max_score" db:"max_score"`
	IsOptional   bool      `json:"is_optional" db:"is_optional"`
	Appreciation *string   `json:"appreciation,omitempty" db:"appreciation"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SubModuleScore is a candidate's mark on one sub-module
type SubModuleScore struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CandidateID uuid.UUID  `json:"candidate_id" db:"candidate_id"`
	SubModuleID uuid.UUID  `json:"sub_module_id" db:"sub_module_id"`
	Score       float64    `json:"score" db:"score"`
	MaxScore    float64    `json:"max_score" db:"max_score"`
	Comment     *string    `json:"comment,omitempty" db:"comment"`
	RecordedBy  *uuid.UUID `json:"recorded_by,omitempty" db:"recorded_by"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// SubModuleAppreciation is free-text instructor commentary on a sub-module
type SubModuleAppreciation struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	CandidateID  uuid.UUID  `json:"candidate_id" db:"candidate_id"`
	SubModuleID  uuid.UUID  `json:"sub_module_id" db:"sub_module_id"`
	Appreciation string     `json:"appreciation" db:"appreciation"`
	InstructorID *uuid.UUID `json:"instructor_id,omitempty" db:"instructor_id"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// OverallScore is a candidate's aggregate over all modules
type OverallScore struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage int     `json:"percentage"`
}

// Bulletin gathers everything printed on a candidate's training bulletin
type Bulletin struct {
	Candidate     Candidate               `json:"candidate"`
	Modules       []Module                `json:"modules"`
	Scores        []SubModuleScore        `json:"scores"`
	Appreciations []SubModuleAppreciation `json:"appreciations"`
	Overall       OverallScore            `json:"overall"`
}
