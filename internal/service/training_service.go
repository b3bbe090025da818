package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

// TrainingStore persists candidates, modules and scores
type TrainingStore interface {
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	UpdateCandidate(ctx context.Context, c *models.Candidate) error
	CertifyCandidate(ctx context.Context, id uuid.UUID, certifiedBy *uuid.UUID, at time.Time) error
	DeleteCandidate(ctx context.Context, id uuid.UUID) error

	CreateModule(ctx context.Context, m *models.Module) error
	GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error)
	ListModules(ctx context.Context) ([]models.Module, error)
	UpdateModule(ctx context.Context, m *models.Module) error
	DeleteModule(ctx context.Context, id uuid.UUID) error

	CreateSubModule(ctx context.Context, sm *models.SubModule) error
	GetSubModule(ctx context.Context, id uuid.UUID) (*models.SubModule, error)
	ListSubModules(ctx context.Context, moduleID uuid.UUID) ([]models.SubModule, error)
	UpdateSubModule(ctx context.Context, sm *models.SubModule) error
	DeleteSubModule(ctx context.Context, id uuid.UUID) error

	UpsertScore(ctx context.Context, s *models.SubModuleScore) error
	ListScores(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleScore, error)

	UpsertAppreciation(ctx context.Context, a *models.SubModuleAppreciation) error
	ListAppreciations(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleAppreciation, error)
	GetAppreciation(ctx context.Context, id uuid.UUID) (*models.SubModuleAppreciation, error)
	DeleteAppreciation(ctx context.Context, id uuid.UUID) error
}

// TrainingService handles training modules and candidate results
type TrainingService struct {
	store    TrainingStore
	activity ActivityLogger
	now      func() time.Time
}

// NewTrainingService creates a new training service
func NewTrainingService(store TrainingStore, activity ActivityLogger) *TrainingService {
	return &TrainingService{store: store, activity: activity, now: time.Now}
}

// ComputeOverallScore sums every sub-module of modules, optional ones included,
// against the recorded scores. Scores of sub-modules outside modules are ignored.
func ComputeOverallScore(modules []models.Module, scores []models.SubModuleScore) models.OverallScore {
	recorded := make(map[uuid.UUID]float64, len(scores))
	for _, s := range scores {
		recorded[s.SubModuleID] = s.Score
	}

	var overall models.OverallScore
	for _, m := range modules {
		for _, sm := range m.SubModules {
			overall.MaxScore += sm.MaxScore
			overall.Score += recorded[sm.ID]
		}
	}
	overall.Percentage = Percentage(overall.Score, overall.MaxScore)
	return overall
}

// Candidates

func validateCandidate(c *models.Candidate) error {
	ve := &ValidationError{}
	c.Name, c.ServerID = strings.TrimSpace(c.Name), strings.TrimSpace(c.ServerID)
	if c.Name == "" {
		ve.Add("name", "is required")
	}
	if c.ServerID == "" {
		ve.Add("server_id", "is required")
	}
	return ve.Err()
}

// CreateCandidate enrols a candidate directly
func (s *TrainingService) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	if err := validateCandidate(c); err != nil {
		return err
	}
	return s.store.CreateCandidate(ctx, c)
}

// GetCandidate returns a candidate or ErrNotFound
func (s *TrainingService) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// ListCandidates returns every candidate
func (s *TrainingService) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	return s.store.ListCandidates(ctx)
}

// UpdateCandidate overwrites name, server id and classes
func (s *TrainingService) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	if _, err := s.GetCandidate(ctx, c.ID); err != nil {
		return err
	}
	if err := validateCandidate(c); err != nil {
		return err
	}
	return s.store.UpdateCandidate(ctx, c)
}

// DeleteCandidate removes a candidate with its scores and appreciations
func (s *TrainingService) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCandidate(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteCandidate(ctx, id)
}

// Certify marks a candidate as certified; certifying twice is rejected
func (s *TrainingService) Certify(ctx context.Context, candidateID uuid.UUID, actor models.Actor) (*models.Candidate, error) {
	c, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if c.IsCertified {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	if err := s.store.CertifyCandidate(ctx, candidateID, actor.UserID, now); err != nil {
		return nil, err
	}
	c.IsCertified = true
	c.CertificationDate = &now
	c.CertifiedBy = actor.UserID

	s.activity.Log(ctx, actor, models.ActivityCandidateCertified, models.Details{
		"candidate_id": c.ID.String(),
		"name":         c.Name,
	})
	return c, nil
}

// Modules

func validateSubModule(sm *models.SubModule, field string, ve *ValidationError) {
	sm.Name = strings.TrimSpace(sm.Name)
	if sm.Name == "" {
		ve.Add(field+".name", "is required")
	}
	if sm.MaxScore <= 0 || math.IsNaN(sm.MaxScore) || math.IsInf(sm.MaxScore, 0) {
		ve.Add(field+".max_score", "must be a positive number")
	}
}

func validateModule(m *models.Module) error {
	ve := &ValidationError{}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		ve.Add("name", "is required")
	}
	for i := range m.SubModules {
		validateSubModule(&m.SubModules[i], fmt.Sprintf("sub_modules[%d]", i), ve)
	}
	return ve.Err()
}

// CreateModule stores a module together with its sub-modules
func (s *TrainingService) CreateModule(ctx context.Context, m *models.Module) error {
	if err := validateModule(m); err != nil {
		return err
	}
	return s.store.CreateModule(ctx, m)
}

// GetModule returns a module with its sub-modules or ErrNotFound
func (s *TrainingService) GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error) {
	m, err := s.store.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// ListModules returns the ordered modules with their sub-modules
func (s *TrainingService) ListModules(ctx context.Context) ([]models.Module, error) {
	return s.store.ListModules(ctx)
}

// UpdateModule overwrites the module fields; sub-modules are edited on their own
func (s *TrainingService) UpdateModule(ctx context.Context, m *models.Module) error {
	if _, err := s.GetModule(ctx, m.ID); err != nil {
		return err
	}
	m.SubModules = nil
	if err := validateModule(m); err != nil {
		return err
	}
	return s.store.UpdateModule(ctx, m)
}

// DeleteModule removes a module and all of its sub-modules
func (s *TrainingService) DeleteModule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetModule(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteModule(ctx, id)
}

// AddSubModule appends a sub-module to a module
func (s *TrainingService) AddSubModule(ctx context.Context, sm *models.SubModule) error {
	if _, err := s.GetModule(ctx, sm.ModuleID); err != nil {
		return err
	}
	ve := &ValidationError{}
	validateSubModule(sm, "sub_module", ve)
	if err := ve.Err(); err != nil {
		return err
	}
	return s.store.CreateSubModule(ctx, sm)
}

func (s *TrainingService) getSubModule(ctx context.Context, id uuid.UUID) (*models.SubModule, error) {
	sm, err := s.store.GetSubModule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sm == nil {
		return nil, ErrNotFound
	}
	return sm, nil
}

// UpdateSubModule overwrites a sub-module
func (s *TrainingService) UpdateSubModule(ctx context.Context, sm *models.SubModule) error {
	existing, err := s.getSubModule(ctx, sm.ID)
	if err != nil {
		return err
	}
	sm.ModuleID = existing.ModuleID
	ve := &ValidationError{}
	validateSubModule(sm, "sub_module", ve)
	if err := ve.Err(); err != nil {
		return err
	}
	return s.store.UpdateSubModule(ctx, sm)
}

// DeleteSubModule removes a sub-module
func (s *TrainingService) DeleteSubModule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getSubModule(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSubModule(ctx, id)
}

// Scores

// RecordScore sets the single score of a candidate on a sub-module
func (s *TrainingService) RecordScore(
	ctx context.Context,
	candidateID, subModuleID uuid.UUID,
	score float64,
	comment *string,
	actor models.Actor,
) (*models.SubModuleScore, error) {
	if _, err := s.GetCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	sm, err := s.getSubModule(ctx, subModuleID)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(score) || score < 0 || score > sm.MaxScore {
		return nil, invalid("score", fmt.Sprintf("must be between 0 and %g", sm.MaxScore))
	}

	rec := &models.SubModuleScore{
		CandidateID: candidateID,
		SubModuleID: subModuleID,
		Score:       score,
		MaxScore:    sm.MaxScore,
		Comment:     comment,
		RecordedBy:  actor.UserID,
	}
	if err := s.store.UpsertScore(ctx, rec); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, actor, models.ActivityScoreRecorded, models.Details{
		"candidate_id":  candidateID.String(),
		"sub_module_id": subModuleID.String(),
		"score":         score,
		"max_score":     sm.MaxScore,
	})
	return rec, nil
}

// ListScores returns the recorded scores of a candidate
func (s *TrainingService) ListScores(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleScore, error) {
	return s.store.ListScores(ctx, candidateID)
}

// OverallScore aggregates a candidate's scores over all modules
func (s *TrainingService) OverallScore(ctx context.Context, candidateID uuid.UUID) (models.OverallScore, error) {
	modules, err := s.store.ListModules(ctx)
	if err != nil {
		return models.OverallScore{}, err
	}
	scores, err := s.store.ListScores(ctx, candidateID)
	if err != nil {
		return models.OverallScore{}, err
	}
	return ComputeOverallScore(modules, scores), nil
}

// Appreciations

// SaveAppreciation stores the instructor's commentary on a sub-module
func (s *TrainingService) SaveAppreciation(
	ctx context.Context,
	candidateID, subModuleID uuid.UUID,
	text string,
	actor models.Actor,
) (*models.SubModuleAppreciation, error) {
	if _, err := s.GetCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	if _, err := s.getSubModule(ctx, subModuleID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("appreciation", "is required")
	}

	a := &models.SubModuleAppreciation{
		CandidateID:  candidateID,
		SubModuleID:  subModuleID,
		Appreciation: text,
		InstructorID: actor.UserID,
	}
	if err := s.store.UpsertAppreciation(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAppreciations returns the appreciations of a candidate
func (s *TrainingService) ListAppreciations(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleAppreciation, error) {
	return s.store.ListAppreciations(ctx, candidateID)
}

// DeleteAppreciation removes an appreciation
func (s *TrainingService) DeleteAppreciation(ctx context.Context, id uuid.UUID) error {
	a, err := s.store.GetAppreciation(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	return s.store.DeleteAppreciation(ctx, id)
}

// Bulletin gathers the data printed on a candidate's training bulletin
func (s *TrainingService) Bulletin(ctx context.Context, candidateID uuid.UUID) (*models.Bulletin, error) {
	c, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	modules, err := s.store.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListScores(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	appreciations, err := s.store.ListAppreciations(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	c.ModuleScores = scores
	return &models.Bulletin{
		Candidate:     *c,
		Modules:       modules,
		Scores:        scores,
		Appreciations: appreciations,
		Overall:       ComputeOverallScore(modules, scores),
	}, nil
}
