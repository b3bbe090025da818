package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"academy-portal/internal/models"
	"academy-portal/internal/notify"
	"academy-portal/pkg/validator"
)

const maxReasonLength = 500

// PersonnelStore persists agencies, agents and their records
type PersonnelStore interface {
	CreateAgency(ctx context.Context, a *models.Agency) error
	GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	ListAgencies(ctx context.Context) ([]models.Agency, error)
	DeleteAgency(ctx context.Context, id uuid.UUID) error

	CreateGrade(ctx context.Context, g *models.Grade) error
	GetGrade(ctx context.Context, id uuid.UUID) (*models.Grade, error)
	ListGrades(ctx context.Context, agencyID uuid.UUID) ([]models.Grade, error)
	DeleteGrade(ctx context.Context, id uuid.UUID) error

	CreateSpecialty(ctx context.Context, s *models.Specialty) error
	GetSpecialty(ctx context.Context, id uuid.UUID) (*models.Specialty, error)
	ListSpecialties(ctx context.Context, agencyID uuid.UUID) ([]models.Specialty, error)
	DeleteSpecialty(ctx context.Context, id uuid.UUID) error

	CreateAgent(ctx context.Context, a *models.PoliceAgent) error
	GetAgent(ctx context.Context, id uuid.UUID) (*models.PoliceAgent, error)
	ListAgents(ctx context.Context, agencyID *uuid.UUID) ([]models.PoliceAgent, error)
	UpdateAgent(ctx context.Context, a *models.PoliceAgent) error
	DeleteAgent(ctx context.Context, id uuid.UUID) error

	AssignSpecialty(ctx context.Context, as *models.AgentSpecialty) error
	RemoveSpecialty(ctx context.Context, agentID, specialtyID uuid.UUID) error
	ListAgentSpecialties(ctx context.Context, agentID uuid.UUID) ([]models.AgentSpecialty, error)

	CreateDisciplinaryRecord(ctx context.Context, d *models.DisciplinaryRecord) error
	GetDisciplinaryRecord(ctx context.Context, id uuid.UUID) (*models.DisciplinaryRecord, error)
	ListDisciplinaryRecords(ctx context.Context, agentID uuid.UUID) ([]models.DisciplinaryRecord, error)
	DeleteDisciplinaryRecord(ctx context.Context, id uuid.UUID) error

	CreateTrainingRecord(ctx context.Context, t *models.TrainingRecord) error
	GetTrainingRecord(ctx context.Context, id uuid.UUID) (*models.TrainingRecord, error)
	ListTrainingRecords(ctx context.Context, agentID uuid.UUID) ([]models.TrainingRecord, error)
	DeleteTrainingRecord(ctx context.Context, id uuid.UUID) error
}

// Sealer encrypts sensitive text at rest. Open must accept values that were
// never sealed.
type Sealer interface {
	Seal(ctx context.Context, plaintext string) (string, error)
	Open(ctx context.Context, value string) (string, error)
}

type plainSealer struct{}

func (plainSealer) Seal(_ context.Context, s string) (string, error) { return s, nil }
func (plainSealer) Open(_ context.Context, s string) (string, error) { return s, nil }

// PersonnelService manages agents, their specialties, trainings and discipline
type PersonnelService struct {
	store    PersonnelStore
	sealer   Sealer
	notifier notify.Notifier
	activity ActivityLogger
	now      func() time.Time
}

// NewPersonnelService creates a new personnel service; a nil sealer stores
// disciplinary reasons as given
func NewPersonnelService(store PersonnelStore, sealer Sealer, notifier notify.Notifier, activity ActivityLogger) *PersonnelService {
	if sealer == nil {
		sealer = plainSealer{}
	}
	return &PersonnelService{
		store:    store,
		sealer:   sealer,
		notifier: notifier,
		activity: activity,
		now:      time.Now,
	}
}

// Agencies, grades and specialties

// CreateAgency stores an agency
func (s *PersonnelService) CreateAgency(ctx context.Context, a *models.Agency) error {
	a.Name, a.Abbreviation = strings.TrimSpace(a.Name), strings.TrimSpace(a.Abbreviation)
	ve := &ValidationError{}
	if a.Name == "" {
		ve.Add("name", "is required")
	}
	if a.Abbreviation == "" {
		ve.Add("abbreviation", "is required")
	}
	if err := ve.Err(); err != nil {
		return err
	}
	return s.store.CreateAgency(ctx, a)
}

// ListAgencies returns every agency
func (s *PersonnelService) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	return s.store.ListAgencies(ctx)
}

// DeleteAgency removes an agency
func (s *PersonnelService) DeleteAgency(ctx context.Context, id uuid.UUID) error {
	a, err := s.store.GetAgency(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	return s.store.DeleteAgency(ctx, id)
}

func (s *PersonnelService) requireAgency(ctx context.Context, id uuid.UUID) error {
	a, err := s.store.GetAgency(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return invalid("agency_id", "unknown agency")
	}
	return nil
}

// CreateGrade stores a grade of an agency
func (s *PersonnelService) CreateGrade(ctx context.Context, g *models.Grade) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return invalid("name", "is required")
	}
	if err := s.requireAgency(ctx, g.AgencyID); err != nil {
		return err
	}
	return s.store.CreateGrade(ctx, g)
}

// ListGrades returns the grades of an agency by rank
func (s *PersonnelService) ListGrades(ctx context.Context, agencyID uuid.UUID) ([]models.Grade, error) {
	return s.store.ListGrades(ctx, agencyID)
}

// DeleteGrade removes a grade
func (s *PersonnelService) DeleteGrade(ctx context.Context, id uuid.UUID) error {
	g, err := s.store.GetGrade(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrNotFound
	}
	return s.store.DeleteGrade(ctx, id)
}

// CreateSpecialty stores a specialty of an agency
func (s *PersonnelService) CreateSpecialty(ctx context.Context, sp *models.Specialty) error {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return invalid("name", "is required")
	}
	if err := s.requireAgency(ctx, sp.AgencyID); err != nil {
		return err
	}
	return s.store.CreateSpecialty(ctx, sp)
}

// ListSpecialties returns the specialties of an agency
func (s *PersonnelService) ListSpecialties(ctx context.Context, agencyID uuid.UUID) ([]models.Specialty, error) {
	return s.store.ListSpecialties(ctx, agencyID)
}

// DeleteSpecialty removes a specialty and its assignments
func (s *PersonnelService) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	sp, err := s.store.GetSpecialty(ctx, id)
	if err != nil {
		return err
	}
	if sp == nil {
		return ErrNotFound
	}
	return s.store.DeleteSpecialty(ctx, id)
}

// Agents

// AgentInput is the editable part of an agent
type AgentInput struct {
	Name        string             `json:"name" validate:"required,max=120"`
	BadgeNumber string             `json:"badge_number" validate:"required,max=30"`
	AgencyID    *uuid.UUID         `json:"agency_id"`
	GradeID     *uuid.UUID         `json:"grade_id"`
	Status      models.AgentStatus `json:"status" validate:"oneof=active inactive suspended retired training"`
	Email       *string            `json:"email" validate:"email"`
	Phone       *string            `json:"phone" validate:"min=6,max=20"`
	Address     *string            `json:"address" validate:"max=255"`
	HireDate    *time.Time         `json:"hire_date"`
	CandidateID *uuid.UUID         `json:"candidate_id"`
}

func (in *AgentInput) apply(a *models.PoliceAgent) {
	a.Name = strings.TrimSpace(in.Name)
	a.BadgeNumber = strings.TrimSpace(in.BadgeNumber)
	a.AgencyID = in.AgencyID
	a.GradeID = in.GradeID
	a.Status = in.Status
	if a.Status == "" {
		a.Status = models.AgentStatusActive
	}
	a.Email = in.Email
	a.Phone = in.Phone
	a.Address = in.Address
	a.HireDate = in.HireDate
	a.CandidateID = in.CandidateID
}

func (s *PersonnelService) validateAgent(ctx context.Context, in *AgentInput) error {
	if err := validator.ValidateStruct(in); err != nil {
		return fromValidator(err)
	}
	if in.HireDate != nil {
		if err := validator.ValidateNotFuture(*in.HireDate, s.now()); err != nil {
			return invalid("hire_date", err.Error())
		}
	}
	if in.GradeID != nil {
		g, err := s.store.GetGrade(ctx, *in.GradeID)
		if err != nil {
			return err
		}
		if g == nil {
			return invalid("grade_id", "unknown grade")
		}
		if in.AgencyID != nil && g.AgencyID != *in.AgencyID {
			return invalid("grade_id", "grade belongs to another agency")
		}
	}
	return nil
}

// CreateAgent registers an agent
func (s *PersonnelService) CreateAgent(ctx context.Context, in *AgentInput) (*models.PoliceAgent, error) {
	if err := s.validateAgent(ctx, in); err != nil {
		return nil, err
	}
	a := &models.PoliceAgent{}
	in.apply(a)
	if err := s.store.CreateAgent(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAgent returns an agent or ErrNotFound
func (s *PersonnelService) GetAgent(ctx context.Context, id uuid.UUID) (*models.PoliceAgent, error) {
	a, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// ListAgents returns agents, optionally restricted to one agency
func (s *PersonnelService) ListAgents(ctx context.Context, agencyID *uuid.UUID) ([]models.PoliceAgent, error) {
	return s.store.ListAgents(ctx, agencyID)
}

// UpdateAgent overwrites an agent; a status change is written to the activity log
func (s *PersonnelService) UpdateAgent(ctx context.Context, id uuid.UUID, in *AgentInput, actor models.Actor) (*models.PoliceAgent, error) {
	a, err := s.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateAgent(ctx, in); err != nil {
		return nil, err
	}

	oldStatus := a.Status
	in.apply(a)
	if err := s.store.UpdateAgent(ctx, a); err != nil {
		return nil, err
	}

	if oldStatus != a.Status {
		s.activity.Log(ctx, actor, models.ActivityAgentStatusChanged, models.Details{
			"agent_id": a.ID.String(),
			"old":      string(oldStatus),
			"new":      string(a.Status),
		})
	}
	return a, nil
}

// DeleteAgent removes an agent with all of its records
func (s *PersonnelService) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetAgent(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteAgent(ctx, id)
}

// Specialties of an agent

func specialtyIDs(list []models.AgentSpecialty) []string {
	ids := make([]string, 0, len(list))
	for _, as := range list {
		ids = append(ids, as.SpecialtyID.String())
	}
	return ids
}

// AssignSpecialty gives an agent a specialty of their agency
func (s *PersonnelService) AssignSpecialty(ctx context.Context, agentID, specialtyID uuid.UUID, actor models.Actor) ([]models.AgentSpecialty, error) {
	agent, err := s.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	sp, err := s.store.GetSpecialty(ctx, specialtyID)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, invalid("specialty_id", "unknown specialty")
	}
	if agent.AgencyID != nil && sp.AgencyID != *agent.AgencyID {
		return nil, invalid("specialty_id", "specialty belongs to another agency")
	}

	before, err := s.store.ListAgentSpecialties(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AssignSpecialty(ctx, &models.AgentSpecialty{
		AgentID:     agentID,
		SpecialtyID: specialtyID,
		AssignedBy:  actor.UserID,
	}); err != nil {
		return nil, err
	}
	after, err := s.store.ListAgentSpecialties(ctx, agentID)
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, actor, models.ActivitySpecialtyAssigned, models.Details{
		"agent_id":     agentID.String(),
		"specialty_id": specialtyID.String(),
		"old":          specialtyIDs(before),
		"new":          specialtyIDs(after),
	})
	return after, nil
}

// RemoveSpecialty takes a specialty away from an agent
func (s *PersonnelService) RemoveSpecialty(ctx context.Context, agentID, specialtyID uuid.UUID, actor models.Actor) ([]models.AgentSpecialty, error) {
	if _, err := s.GetAgent(ctx, agentID); err != nil {
		return nil, err
	}
	before, err := s.store.ListAgentSpecialties(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveSpecialty(ctx, agentID, specialtyID); err != nil {
		return nil, err
	}
	after, err := s.store.ListAgentSpecialties(ctx, agentID)
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, actor, models.ActivitySpecialtyRemoved, models.Details{
		"agent_id":     agentID.String(),
		"specialty_id": specialtyID.String(),
		"old":          specialtyIDs(before),
		"new":          specialtyIDs(after),
	})
	return after, nil
}

// ListAgentSpecialties returns the specialties of an agent
func (s *PersonnelService) ListAgentSpecialties(ctx context.Context, agentID uuid.UUID) ([]models.AgentSpecialty, error) {
	return s.store.ListAgentSpecialties(ctx, agentID)
}

// Disciplinary records

// DisciplinaryInput describes a new sanction
type DisciplinaryInput struct {
	Type   models.DisciplinaryType `json:"type"`
	Date   time.Time               `json:"date"`
	Reason string                  `json:"reason"`
}

// CreateDisciplinaryRecord records a sanction against an agent
func (s *PersonnelService) CreateDisciplinaryRecord(
	ctx context.Context,
	agentID uuid.UUID,
	in DisciplinaryInput,
	actor models.Actor,
) (*models.DisciplinaryRecord, error) {
	agent, err := s.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(in.Reason)
	ve := &ValidationError{}
	if !in.Type.Valid() {
		ve.Add("type", "must be one of: warning, reprimand, suspension, termination")
	}
	if in.Date.IsZero() {
		ve.Add("date", "is required")
	} else if err := validator.ValidateNotFuture(in.Date, s.now()); err != nil {
		ve.Add("date", err.Error())
	}
	switch {
	case reason == "":
		ve.Add("reason", "is required")
	case utf8.RuneCountInString(reason) > maxReasonLength:
		ve.Add("reason", fmt.Sprintf("must be at most %d characters", maxReasonLength))
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	sealed, err := s.sealer.Seal(ctx, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to seal disciplinary reason: %w", err)
	}
	rec := &models.DisciplinaryRecord{
		AgentID:  agentID,
		Type:     in.Type,
		Date:     in.Date,
		Reason:   sealed,
		IssuedBy: actor.UserID,
	}
	if err := s.store.CreateDisciplinaryRecord(ctx, rec); err != nil {
		return nil, err
	}
	rec.Reason = reason

	s.notifier.Notify(notify.DisciplinaryAction(agent.Name, string(in.Type)))
	s.activity.Log(ctx, actor, models.ActivityDisciplinaryCreated, models.Details{
		"agent_id":  agentID.String(),
		"record_id": rec.ID.String(),
		"type":      string(in.Type),
	})
	return rec, nil
}

func (s *PersonnelService) openReasons(ctx context.Context, records []models.DisciplinaryRecord) error {
	for i := range records {
		reason, err := s.sealer.Open(ctx, records[i].Reason)
		if err != nil {
			return fmt.Errorf("failed to open disciplinary reason: %w", err)
		}
		records[i].Reason = reason
	}
	return nil
}

// ListDisciplinaryRecords returns an agent's sanctions with readable reasons
func (s *PersonnelService) ListDisciplinaryRecords(ctx context.Context, agentID uuid.UUID) ([]models.DisciplinaryRecord, error) {
	records, err := s.store.ListDisciplinaryRecords(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if err := s.openReasons(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteDisciplinaryRecord removes a sanction
func (s *PersonnelService) DeleteDisciplinaryRecord(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	rec, err := s.store.GetDisciplinaryRecord(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if err := s.store.DeleteDisciplinaryRecord(ctx, id); err != nil {
		return err
	}
	s.activity.Log(ctx, actor, models.ActivityDisciplinaryDeleted, models.Details{
		"agent_id":  rec.AgentID.String(),
		"record_id": id.String(),
		"type":      string(rec.Type),
	})
	return nil
}

// Training records

// AddTrainingRecord adds a completed training to an agent's profile
func (s *PersonnelService) AddTrainingRecord(ctx context.Context, t *models.TrainingRecord, actor models.Actor) error {
	if _, err := s.GetAgent(ctx, t.AgentID); err != nil {
		return err
	}

	t.Title = strings.TrimSpace(t.Title)
	ve := &ValidationError{}
	if t.Title == "" {
		ve.Add("title", "is required")
	}
	if t.CompletedAt.IsZero() {
		ve.Add("completed_at", "is required")
	} else if err := validator.ValidateNotFuture(t.CompletedAt, s.now()); err != nil {
		ve.Add("completed_at", err.Error())
	}
	if t.Hours != nil && *t.Hours < 0 {
		ve.Add("hours", "must not be negative")
	}
	if err := ve.Err(); err != nil {
		return err
	}

	if err := s.store.CreateTrainingRecord(ctx, t); err != nil {
		return err
	}
	s.activity.Log(ctx, actor, models.ActivityTrainingAdded, models.Details{
		"agent_id":  t.AgentID.String(),
		"record_id": t.ID.String(),
		"title":     t.Title,
	})
	return nil
}

// ListTrainingRecords returns an agent's completed trainings
func (s *PersonnelService) ListTrainingRecords(ctx context.Context, agentID uuid.UUID) ([]models.TrainingRecord, error) {
	return s.store.ListTrainingRecords(ctx, agentID)
}

// DeleteTrainingRecord removes a training record
func (s *PersonnelService) DeleteTrainingRecord(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	t, err := s.store.GetTrainingRecord(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	if err := s.store.DeleteTrainingRecord(ctx, id); err != nil {
		return err
	}
	s.activity.Log(ctx, actor, models.ActivityTrainingDeleted, models.Details{
		"agent_id":  t.AgentID.String(),
		"record_id": id.String(),
		"title":     t.Title,
	})
	return nil
}

// Dossier gathers the full personnel file of an agent
func (s *PersonnelService) Dossier(ctx context.Context, agentID uuid.UUID) (*models.AgentDossier, error) {
	agent, err := s.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	d := &models.AgentDossier{Agent: *agent}

	if agent.AgencyID != nil {
		if d.Agency, err = s.store.GetAgency(ctx, *agent.AgencyID); err != nil {
			return nil, err
		}
	}
	if agent.GradeID != nil {
		if d.Grade, err = s.store.GetGrade(ctx, *agent.GradeID); err != nil {
			return nil, err
		}
	}
	if d.Specialties, err = s.store.ListAgentSpecialties(ctx, agentID); err != nil {
		return nil, err
	}
	if d.Trainings, err = s.store.ListTrainingRecords(ctx, agentID); err != nil {
		return nil, err
	}
	if d.DisciplinaryRecords, err = s.ListDisciplinaryRecords(ctx, agentID); err != nil {
		return nil, err
	}
	return d, nil
}
