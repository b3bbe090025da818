package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
	"academy-portal/internal/notify"
)

// ApplicationStore persists recruitment forms and applications
type ApplicationStore interface {
	CreateForm(ctx context.Context, f *models.ApplicationForm) error
	GetForm(ctx context.Context, id uuid.UUID) (*models.ApplicationForm, error)
	ListForms(ctx context.Context, onlyActive bool) ([]models.ApplicationForm, error)
	UpdateForm(ctx context.Context, f *models.ApplicationForm) error
	DeleteForm(ctx context.Context, id uuid.UUID) error

	Create(ctx context.Context, a *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error)
	UpdateReview(ctx context.Context, a *models.Application, from models.ApplicationStatus) error
	Accept(ctx context.Context, a *models.Application, from models.ApplicationStatus, candidate *models.Candidate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// applicationTransitions lists the allowed review moves; accepted and rejected are final
var applicationTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationStatusPending:   {models.ApplicationStatusReviewing, models.ApplicationStatusAccepted, models.ApplicationStatusRejected},
	models.ApplicationStatusReviewing: {models.ApplicationStatusPending, models.ApplicationStatusAccepted, models.ApplicationStatusRejected},
}

// CanTransition reports whether a review may move an application from one status to another.
// Staying in a non-final status is allowed so reviewers can re-score.
func CanTransition(from, to models.ApplicationStatus) bool {
	allowed, ok := applicationTransitions[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplicationService handles recruitment forms and their review workflow
type ApplicationService struct {
	store    ApplicationStore
	notifier notify.Notifier
	activity ActivityLogger
	now      func() time.Time
}

// NewApplicationService creates a new application service
func NewApplicationService(store ApplicationStore, notifier notify.Notifier, activity ActivityLogger) *ApplicationService {
	return &ApplicationService{store: store, notifier: notifier, activity: activity, now: time.Now}
}

func validateForm(f *models.ApplicationForm) error {
	ve := &ValidationError{}
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		ve.Add("name", "is required")
	}

	seen := make(map[string]bool, len(f.Fields))
	for i := range f.Fields {
		field := &f.Fields[i]
		if blank(field.ID) {
			field.ID = uuid.NewString()
		}
		if seen[field.ID] {
			ve.Add(fmt.Sprintf("fields[%d].id", i), "duplicate field id "+field.ID)
			continue
		}
		seen[field.ID] = true
		if err := field.Validate(); err != nil {
			ve.Add(fmt.Sprintf("fields[%d]", i), err.Error())
		}
	}
	return ve.Err()
}

// CreateForm stores a new form definition
func (s *ApplicationService) CreateForm(ctx context.Context, f *models.ApplicationForm, actor models.Actor) error {
	if err := validateForm(f); err != nil {
		return err
	}
	f.CreatedBy = actor.UserID
	return s.store.CreateForm(ctx, f)
}

// UpdateForm overwrites an existing form definition
func (s *ApplicationService) UpdateForm(ctx context.Context, f *models.ApplicationForm) error {
	existing, err := s.GetForm(ctx, f.ID)
	if err != nil {
		return err
	}
	if err := validateForm(f); err != nil {
		return err
	}
	f.CreatedBy, f.CreatedAt = existing.CreatedBy, existing.CreatedAt
	return s.store.UpdateForm(ctx, f)
}

// GetForm returns a form or ErrNotFound
func (s *ApplicationService) GetForm(ctx context.Context, id uuid.UUID) (*models.ApplicationForm, error) {
	f, err := s.store.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}

// ListForms returns form definitions, optionally only the active ones
func (s *ApplicationService) ListForms(ctx context.Context, onlyActive bool) ([]models.ApplicationForm, error) {
	return s.store.ListForms(ctx, onlyActive)
}

// DeleteForm removes a form definition
func (s *ApplicationService) DeleteForm(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetForm(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteForm(ctx, id)
}

// SubmitApplication checks the responses against the form and stores a pending
// application. Nothing is written when a field is rejected; the returned
// ValidationError names the offending field labels.
func (s *ApplicationService) SubmitApplication(
	ctx context.Context,
	formID uuid.UUID,
	applicantName, serverID string,
	responses map[string]string,
) (*models.Application, error) {
	form, err := s.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.IsActive {
		return nil, ErrFormClosed
	}

	ve := &ValidationError{}
	applicantName, serverID = strings.TrimSpace(applicantName), strings.TrimSpace(serverID)
	if applicantName == "" {
		ve.Add("applicant_name", "is required")
	}
	if serverID == "" {
		ve.Add("server_id", "is required")
	}

	known := make(map[string]bool, len(form.Fields))
	stored := make(models.FieldResponses, 0, len(form.Fields))
	for _, field := range form.Fields {
		known[field.ID] = true
		value := responses[field.ID]
		switch {
		case field.Required && field.IsEmpty(value):
			ve.Add(field.Label, "is required")
		case !blank(value):
			if err := field.ValidateValue(value); err != nil {
				ve.Add(field.Label, err.Error())
			}
		}
		stored = append(stored, models.FieldResponse{
			FieldID: field.ID,
			Label:   field.Label,
			Value:   value,
			Type:    field.Type,
		})
	}
	for id := range responses {
		if !known[id] {
			ve.Add(id, "is not a field of this form")
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	maxScore := form.MaxPossibleScore()
	a := &models.Application{
		FormID:           form.ID,
		ApplicantName:    applicantName,
		ServerID:         serverID,
		Responses:        stored,
		Status:           models.ApplicationStatusPending,
		MaxPossibleScore: &maxScore,
	}
	if err := s.store.Create(ctx, a); err != nil {
		slog.Error("Failed to store application", "form_id", form.ID, "error", err)
		return nil, err
	}
	return a, nil
}

// GetApplication returns an application or ErrNotFound
func (s *ApplicationService) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// ListApplications returns applications, optionally filtered by form and status
func (s *ApplicationService) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalid("status", "must be one of: pending, reviewing, accepted, rejected")
	}
	return s.store.List(ctx, filter)
}

// CountPending counts applications waiting for a first review
func (s *ApplicationService) CountPending(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, models.ApplicationStatusPending)
}

// DeleteApplication removes an application
func (s *ApplicationService) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetApplication(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// ReviewInput is a reviewer's decision on an application
type ReviewInput struct {
	Status        models.ApplicationStatus `json:"status"`
	FieldScores   map[string]int           `json:"field_scores,omitempty"`
	FieldComments map[string]string        `json:"field_comments,omitempty"`
	Comment       *string                  `json:"comment,omitempty"`
}

// UpdateApplicationReview applies a review and moves the application along the
// transition table. Accepting also creates the candidate.
func (s *ApplicationService) UpdateApplicationReview(ctx context.Context, id uuid.UUID, review ReviewInput, actor models.Actor) (*models.Application, error) {
	if !review.Status.Valid() {
		return nil, invalid("status", "must be one of: pending, reviewing, accepted, rejected")
	}

	a, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	if !CanTransition(from, review.Status) {
		return nil, ErrInvalidTransition
	}

	form, err := s.store.GetForm(ctx, a.FormID)
	if err != nil {
		return nil, err
	}
	if err := applyScores(a, form, review); err != nil {
		return nil, err
	}

	now := s.now()
	a.Status = review.Status
	a.ReviewerComment = review.Comment
	a.ReviewedBy = actor.UserID
	a.ReviewedAt = &now

	if a.Status == models.ApplicationStatusAccepted {
		if err := s.accept(ctx, a, from, actor); err != nil {
			return nil, err
		}
		return a, nil
	}

	if err := s.store.UpdateReview(ctx, a, from); err != nil {
		return nil, staleToTransition(err)
	}
	s.activity.Log(ctx, actor, models.ActivityApplicationReviewed, models.Details{
		"application_id": a.ID.String(),
		"from":           string(from),
		"to":             string(a.Status),
	})
	return a, nil
}

// AcceptApplication accepts an application and creates its candidate atomically
func (s *ApplicationService) AcceptApplication(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	return s.UpdateApplicationReview(ctx, id, ReviewInput{Status: models.ApplicationStatusAccepted}, actor)
}

func (s *ApplicationService) accept(ctx context.Context, a *models.Application, from models.ApplicationStatus, actor models.Actor) error {
	candidate := &models.Candidate{
		Name:     a.ApplicantName,
		ServerID: a.ServerID,
	}
	if err := s.store.Accept(ctx, a, from, candidate); err != nil {
		slog.Error("Failed to accept application", "application_id", a.ID, "error", err)
		return staleToTransition(err)
	}

	s.notifier.Notify(notify.CandidateCreated(candidate.Name, "application"))
	s.activity.Log(ctx, actor, models.ActivityApplicationAccepted, models.Details{
		"application_id": a.ID.String(),
		"candidate_id":   candidate.ID.String(),
		"from":           string(from),
	})
	return nil
}

// applyScores clamps per-field scores to the field points and recomputes the totals
func applyScores(a *models.Application, form *models.ApplicationForm, review ReviewInput) error {
	bounds := make(map[string]int)
	if form != nil {
		for _, f := range form.Fields {
			bounds[f.ID] = f.ScoreBound()
		}
	}

	ve := &ValidationError{}
	for id := range review.FieldScores {
		if !hasResponse(a, id) {
			ve.Add(id, "is not a field of this application")
		}
	}
	for id := range review.FieldComments {
		if !hasResponse(a, id) {
			ve.Add(id, "is not a field of this application")
		}
	}
	if err := ve.Err(); err != nil {
		return err
	}

	total := 0
	for i := range a.Responses {
		r := &a.Responses[i]
		if score, ok := review.FieldScores[r.FieldID]; ok {
			v := clamp(score, 0, bounds[r.FieldID])
			r.Score = &v
		}
		if comment, ok := review.FieldComments[r.FieldID]; ok {
			c := comment
			r.Comment = &c
		}
		if r.Score != nil {
			total += *r.Score
		}
	}

	maxScore := 0
	if form != nil {
		maxScore = form.MaxPossibleScore()
	} else if a.MaxPossibleScore != nil {
		maxScore = *a.MaxPossibleScore
	}
	a.TotalScore = &total
	a.MaxPossibleScore = &maxScore
	return nil
}

func hasResponse(a *models.Application, fieldID string) bool {
	for _, r := range a.Responses {
		if r.FieldID == fieldID {
			return true
		}
	}
	return false
}
