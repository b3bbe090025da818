package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

type fakeTrainingStore struct {
	candidates    map[uuid.UUID]*models.Candidate
	modules       map[uuid.UUID]*models.Module
	subModules    map[uuid.UUID]*models.SubModule
	scores        map[[2]uuid.UUID]*models.SubModuleScore
	appreciations map[[2]uuid.UUID]*models.SubModuleAppreciation
}

func newFakeTrainingStore() *fakeTrainingStore {
	return &fakeTrainingStore{
		candidates:    map[uuid.UUID]*models.Candidate{},
		modules:       map[uuid.UUID]*models.Module{},
		subModules:    map[uuid.UUID]*models.SubModule{},
		scores:        map[[2]uuid.UUID]*models.SubModuleScore{},
		appreciations: map[[2]uuid.UUID]*models.SubModuleAppreciation{},
	}
}

func (f *fakeTrainingStore) CreateCandidate(_ context.Context, c *models.Candidate) error {
	c.ID = uuid.New()
	cp := *c
	f.candidates[c.ID] = &cp
	return nil
}

func (f *fakeTrainingStore) GetCandidate(_ context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, ok := f.candidates[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeTrainingStore) ListCandidates(context.Context) ([]models.Candidate, error) {
	out := []models.Candidate{}
	for _, c := range f.candidates {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeTrainingStore) UpdateCandidate(_ context.Context, c *models.Candidate) error {
	cp := *c
	f.candidates[c.ID] = &cp
	return nil
}

func (f *fakeTrainingStore) CertifyCandidate(_ context.Context, id uuid.UUID, by *uuid.UUID, at time.Time) error {
	c := f.candidates[id]
	c.IsCertified = true
	c.CertifiedBy = by
	c.CertificationDate = &at
	return nil
}

func (f *fakeTrainingStore) DeleteCandidate(_ context.Context, id uuid.UUID) error {
	delete(f.candidates, id)
	return nil
}

func (f *fakeTrainingStore) CreateModule(_ context.Context, m *models.Module) error {
	m.ID = uuid.New()
	for i := range m.SubModules {
		m.SubModules[i].ID = uuid.New()
		m.SubModules[i].ModuleID = m.ID
		sm := m.SubModules[i]
		f.subModules[sm.ID] = &sm
	}
	cp := *m
	cp.SubModules = nil
	f.modules[m.ID] = &cp
	return nil
}

func (f *fakeTrainingStore) withSubModules(m models.Module) models.Module {
	m.SubModules = []models.SubModule{}
	for _, sm := range f.subModules {
		if sm.ModuleID == m.ID {
			m.SubModules = append(m.SubModules, *sm)
		}
	}
	return m
}

func (f *fakeTrainingStore) GetModule(_ context.Context, id uuid.UUID) (*models.Module, error) {
	m, ok := f.modules[id]
	if !ok {
		return nil, nil
	}
	out := f.withSubModules(*m)
	return &out, nil
}

func (f *fakeTrainingStore) ListModules(context.Context) ([]models.Module, error) {
	out := []models.Module{}
	for _, m := range f.modules {
		out = append(out, f.withSubModules(*m))
	}
	return out, nil
}

func (f *fakeTrainingStore) UpdateModule(_ context.Context, m *models.Module) error {
	cp := *m
	f.modules[m.ID] = &cp
	return nil
}

func (f *fakeTrainingStore) DeleteModule(_ context.Context, id uuid.UUID) error {
	delete(f.modules, id)
	for smID, sm := range f.subModules {
		if sm.ModuleID == id {
			delete(f.subModules, smID)
		}
	}
	return nil
}

func (f *fakeTrainingStore) CreateSubModule(_ context.Context, sm *models.SubModule) error {
	sm.ID = uuid.New()
	cp := *sm
	f.subModules[sm.ID] = &cp
	return nil
}

func (f *fakeTrainingStore) GetSubModule(_ context.Context, id uuid.UUID) (*models.SubModule, error) {
	sm, ok := f.subModules[id]
	if !ok {
		return nil, nil
	}
	cp := *sm
	return &cp, nil
}

func (f *fakeTrainingStore) ListSubModules(_ context.Context, moduleID uuid.UUID) ([]models.SubModule, error) {
	return f.withSubModules(models.Module{ID: moduleID}).SubModules, nil
}

func (f *fakeTrainingStore) UpdateSubModule(_ context.Context, sm *models.SubModule) error {
	cp := *sm
	f.subModules[sm.ID] = &cp
	return nil
}

func (f *fakeTrainingStore) DeleteSubModule(_ context.Context, id uuid.UUID) error {
	delete(f.subModules, id)
	return nil
}

func (f *fakeTrainingStore) UpsertScore(_ context.Context, s *models.SubModuleScore) error {
	key := [2]uuid.UUID{s.CandidateID, s.SubModuleID}
	if existing, ok := f.scores[key]; ok {
		s.ID = existing.ID
	} else {
		s.ID = uuid.New()
	}
	cp := *s
	f.scores[key] = &cp
	return nil
}

func (f *fakeTrainingStore) ListScores(_ context.Context, candidateID uuid.UUID) ([]models.SubModuleScore, error) {
	out := []models.SubModuleScore{}
	for _, s := range f.scores {
		if s.CandidateID == candidateID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeTrainingStore) UpsertAppreciation(_ context.Context, a *models.SubModuleAppreciation) error {
	a.ID = uuid.New()
	cp := *a
	f.appreciations[[2]uuid.UUID{a.CandidateID, a.SubModuleID}] = &cp
	return nil
}

func (f *fakeTrainingStore) ListAppreciations(_ context.Context, candidateID uuid.UUID) ([]models.SubModuleAppreciation, error) {
	out := []models.SubModuleAppreciation{}
	for _, a := range f.appreciations {
		if a.CandidateID == candidateID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeTrainingStore) GetAppreciation(_ context.Context, id uuid.UUID) (*models.SubModuleAppreciation, error) {
	for _, a := range f.appreciations {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTrainingStore) DeleteAppreciation(_ context.Context, id uuid.UUID) error {
	for key, a := range f.appreciations {
		if a.ID == id {
			delete(f.appreciations, key)
		}
	}
	return nil
}

func newTrainingFixture(t *testing.T) (*TrainingService, *fakeTrainingStore, *recordingActivity, *models.Candidate, *models.Module) {
	t.Helper()
	store := newFakeTrainingStore()
	activity := &recordingActivity{}
	svc := NewTrainingService(store, activity)
	svc.now = clock
	ctx := context.Background()

	c := &models.Candidate{Name: "Jane Doe", ServerID: "1234"}
	if err := svc.CreateCandidate(ctx, c); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}
	m := &models.Module{
		Name: "Tir",
		SubModules: []models.SubModule{
			{Name: "Théorie", MaxScore: 5},
			{Name: "Pratique", MaxScore: 10, IsOptional: true},
		},
	}
	if err := svc.CreateModule(ctx, m); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}
	return svc, store, activity, c, m
}

func TestComputeOverallScore(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	modules := []models.Module{
		{SubModules: []models.SubModule{{ID: a, MaxScore: 5}, {ID: b, MaxScore: 10, IsOptional: true}}},
		{SubModules: []models.SubModule{}},
	}

	tests := []struct {
		name    string
		modules []models.Module
		scores  []models.SubModuleScore
		want    models.OverallScore
	}{
		{
			name:    "optional sub-modules count toward the max",
			modules: modules,
			scores:  []models.SubModuleScore{{SubModuleID: a, Score: 3}, {SubModuleID: b, Score: 5}},
			want:    models.OverallScore{Score: 8, MaxScore: 15, Percentage: 53},
		},
		{
			name:    "unknown sub-modules are ignored",
			modules: modules,
			scores:  []models.SubModuleScore{{SubModuleID: c, Score: 4}},
			want:    models.OverallScore{Score: 0, MaxScore: 15, Percentage: 0},
		},
		{
			name: "no modules",
			want: models.OverallScore{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeOverallScore(tt.modules, tt.scores); got != tt.want {
				t.Errorf("ComputeOverallScore() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRecordScore(t *testing.T) {
	svc, store, activity, c, m := newTrainingFixture(t)
	ctx := context.Background()
	theory := m.SubModules[0]

	rec, err := svc.RecordScore(ctx, c.ID, theory.ID, 3, nil, adminActor)
	if err != nil {
		t.Fatalf("RecordScore() error = %v", err)
	}
	if rec.MaxScore != 5 {
		t.Errorf("max score = %v, want 5", rec.MaxScore)
	}
	if _, err := svc.RecordScore(ctx, c.ID, theory.ID, 4.5, nil, adminActor); err != nil {
		t.Fatalf("second RecordScore() error = %v", err)
	}
	if len(store.scores) != 1 {
		t.Errorf("scores = %d, want one per pair", len(store.scores))
	}
	if len(activity.types()) != 2 {
		t.Errorf("activity entries = %d, want 2", len(activity.types()))
	}

	for _, bad := range []float64{-1, 5.5} {
		var ve *ValidationError
		if _, err := svc.RecordScore(ctx, c.ID, theory.ID, bad, nil, adminActor); !errors.As(err, &ve) {
			t.Errorf("score %v error = %v, want ValidationError", bad, err)
		}
	}
	if _, err := svc.RecordScore(ctx, uuid.New(), theory.ID, 1, nil, adminActor); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown candidate error = %v, want ErrNotFound", err)
	}
}

func TestCertifyTwice(t *testing.T) {
	svc, _, activity, c, _ := newTrainingFixture(t)
	ctx := context.Background()

	certified, err := svc.Certify(ctx, c.ID, adminActor)
	if err != nil {
		t.Fatalf("Certify() error = %v", err)
	}
	if !certified.IsCertified || certified.CertificationDate == nil || !certified.CertificationDate.Equal(fixedNow) {
		t.Errorf("certified = %+v", certified)
	}
	if _, err := svc.Certify(ctx, c.ID, adminActor); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Certify() error = %v, want ErrInvalidTransition", err)
	}
	if got := activity.types(); len(got) != 1 || got[0] != models.ActivityCandidateCertified {
		t.Errorf("activity = %v", got)
	}
}

func TestDeleteModuleCascades(t *testing.T) {
	svc, store, _, _, m := newTrainingFixture(t)
	if err := svc.DeleteModule(context.Background(), m.ID); err != nil {
		t.Fatal(err)
	}
	if len(store.subModules) != 0 {
		t.Errorf("sub-modules left = %d", len(store.subModules))
	}
}

func TestCreateModuleValidation(t *testing.T) {
	svc, _, _, _, _ := newTrainingFixture(t)
	m := &models.Module{Name: "Sport", SubModules: []models.SubModule{{Name: "", MaxScore: 0}}}

	var ve *ValidationError
	if err := svc.CreateModule(context.Background(), m); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("rejected = %v, want name and max_score", ve.Labels())
	}
}

func TestBulletin(t *testing.T) {
	svc, _, _, c, m := newTrainingFixture(t)
	ctx := context.Background()

	if _, err := svc.RecordScore(ctx, c.ID, m.SubModules[0].ID, 3, nil, adminActor); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordScore(ctx, c.ID, m.SubModules[1].ID, 5, nil, adminActor); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SaveAppreciation(ctx, c.ID, m.SubModules[0].ID, "Bon niveau", adminActor); err != nil {
		t.Fatal(err)
	}

	b, err := svc.Bulletin(ctx, c.ID)
	if err != nil {
		t.Fatalf("Bulletin() error = %v", err)
	}
	if b.Overall != (models.OverallScore{Score: 8, MaxScore: 15, Percentage: 53}) {
		t.Errorf("overall = %+v", b.Overall)
	}
	if len(b.Appreciations) != 1 || len(b.Scores) != 2 {
		t.Errorf("bulletin = %d appreciations, %d scores", len(b.Appreciations), len(b.Scores))
	}

	var ve *ValidationError
	if _, err := svc.SaveAppreciation(ctx, c.ID, m.SubModules[0].ID, "  ", adminActor); !errors.As(err, &ve) {
		t.Errorf("blank appreciation error = %v, want ValidationError", err)
	}
}

func TestDeleteAppreciation(t *testing.T) {
	svc, _, _, c, m := newTrainingFixture(t)
	ctx := context.Background()

	a, err := svc.SaveAppreciation(ctx, c.ID, m.SubModules[0].ID, "Assidu", adminActor)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteAppreciation(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAppreciation() error = %v", err)
	}
	if err := svc.DeleteAppreciation(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteAppreciation(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
}
