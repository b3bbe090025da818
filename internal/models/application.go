package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationForm is a recruitment form definition
type ApplicationForm struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Fields      FormFields `json:"fields" db:"fields"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// MaxPossibleScore sums the points of every scored field
func (f *ApplicationForm) MaxPossibleScore() int {
	total := 0
	for _, field := range f.Fields {
		total += field.ScoreBound()
	}
	return total
}

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusReviewing ApplicationStatus = "reviewing"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is a known application status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewing, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// FieldResponse is the applicant's answer to one form field
type FieldResponse struct {
	FieldID string    `json:"field_id"`
	Label   string    `json:"label"`
	Value   string    `json:"value"`
	Type    FieldType `json:"type"`
	Score   *int      `json:"score,omitempty"`
	Comment *string   `json:"comment,omitempty"`
}

// Application is a submitted recruitment form
type Application struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	FormID           uuid.UUID         `json:"form_id" db:"form_id"`
	ApplicantName    string            `json:"applicant_name" db:"applicant_name"`
	ServerID         string            `json:"server_id" db:"server_id"`
	Responses        FieldResponses    `json:"responses" db:"responses"`
	Status           ApplicationStatus `json:"status" db:"status"`
	TotalScore       *int              `json:"total_score,omitempty" db:"total_score"`
	MaxPossibleScore *int              `json:"max_possible_score,omitempty" db:"max_possible_score"`
	ReviewerComment  *string           `json:"reviewer_comment,omitempty" db:"reviewer_comment"`
	ReviewedBy       *uuid.UUID        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CandidateID      *uuid.UUID        `json:"candidate_id,omitempty" db:"candidate_id"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// ApplicationFilter narrows ListApplications
type ApplicationFilter struct {
	FormID *uuid.UUID
	Status *ApplicationStatus
}
