package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

type fakePersonnelStore struct {
	agencies     map[uuid.UUID]*models.Agency
	grades       map[uuid.UUID]*models.Grade
	specialties  map[uuid.UUID]*models.Specialty
	agents       map[uuid.UUID]*models.PoliceAgent
	assignments  []models.AgentSpecialty
	disciplinary map[uuid.UUID]*models.DisciplinaryRecord
	trainings    map[uuid.UUID]*models.TrainingRecord
}

func newFakePersonnelStore() *fakePersonnelStore {
	return &fakePersonnelStore{
		agencies:     map[uuid.UUID]*models.Agency{},
		grades:       map[uuid.UUID]*models.Grade{},
		specialties:  map[uuid.UUID]*models.Specialty{},
		agents:       map[uuid.UUID]*models.PoliceAgent{},
		disciplinary: map[uuid.UUID]*models.DisciplinaryRecord{},
		trainings:    map[uuid.UUID]*models.TrainingRecord{},
	}
}

func getCopy[T any](m map[uuid.UUID]*T, id uuid.UUID) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakePersonnelStore) CreateAgency(_ context.Context, a *models.Agency) error {
	a.ID = uuid.New()
	cp := *a
	f.agencies[a.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) GetAgency(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	return getCopy(f.agencies, id)
}

func (f *fakePersonnelStore) ListAgencies(context.Context) ([]models.Agency, error) {
	out := []models.Agency{}
	for _, a := range f.agencies {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakePersonnelStore) DeleteAgency(_ context.Context, id uuid.UUID) error {
	delete(f.agencies, id)
	return nil
}

func (f *fakePersonnelStore) CreateGrade(_ context.Context, g *models.Grade) error {
	g.ID = uuid.New()
	cp := *g
	f.grades[g.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) GetGrade(_ context.Context, id uuid.UUID) (*models.Grade, error) {
	return getCopy(f.grades, id)
}

func (f *fakePersonnelStore) ListGrades(_ context.Context, agencyID uuid.UUID) ([]models.Grade, error) {
	out := []models.Grade{}
	for _, g := range f.grades {
		if g.AgencyID == agencyID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakePersonnelStore) DeleteGrade(_ context.Context, id uuid.UUID) error {
	delete(f.grades, id)
	return nil
}

func (f *fakePersonnelStore) CreateSpecialty(_ context.Context, s *models.Specialty) error {
	s.ID = uuid.New()
	cp := *s
	f.specialties[s.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) GetSpecialty(_ context.Context, id uuid.UUID) (*models.Specialty, error) {
	return getCopy(f.specialties, id)
}

func (f *fakePersonnelStore) ListSpecialties(_ context.Context, agencyID uuid.UUID) ([]models.Specialty, error) {
	out := []models.Specialty{}
	for _, s := range f.specialties {
		if s.AgencyID == agencyID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakePersonnelStore) DeleteSpecialty(_ context.Context, id uuid.UUID) error {
	delete(f.specialties, id)
	return nil
}

func (f *fakePersonnelStore) CreateAgent(_ context.Context, a *models.PoliceAgent) error {
	a.ID = uuid.New()
	cp := *a
	f.agents[a.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) GetAgent(_ context.Context, id uuid.UUID) (*models.PoliceAgent, error) {
	return getCopy(f.agents, id)
}

func (f *fakePersonnelStore) ListAgents(_ context.Context, agencyID *uuid.UUID) ([]models.PoliceAgent, error) {
	out := []models.PoliceAgent{}
	for _, a := range f.agents {
		if agencyID == nil || (a.AgencyID != nil && *a.AgencyID == *agencyID) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakePersonnelStore) UpdateAgent(_ context.Context, a *models.PoliceAgent) error {
	cp := *a
	f.agents[a.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) DeleteAgent(_ context.Context, id uuid.UUID) error {
	delete(f.agents, id)
	return nil
}

func (f *fakePersonnelStore) AssignSpecialty(_ context.Context, as *models.AgentSpecialty) error {
	for _, existing := range f.assignments {
		if existing.AgentID == as.AgentID && existing.SpecialtyID == as.SpecialtyID {
			return nil
		}
	}
	f.assignments = append(f.assignments, *as)
	return nil
}

func (f *fakePersonnelStore) RemoveSpecialty(_ context.Context, agentID, specialtyID uuid.UUID) error {
	kept := f.assignments[:0]
	for _, as := range f.assignments {
		if as.AgentID != agentID || as.SpecialtyID != specialtyID {
			kept = append(kept, as)
		}
	}
	f.assignments = kept
	return nil
}

func (f *fakePersonnelStore) ListAgentSpecialties(_ context.Context, agentID uuid.UUID) ([]models.AgentSpecialty, error) {
	out := []models.AgentSpecialty{}
	for _, as := range f.assignments {
		if as.AgentID == agentID {
			out = append(out, as)
		}
	}
	return out, nil
}

func (f *fakePersonnelStore) CreateDisciplinaryRecord(_ context.Context, d *models.DisciplinaryRecord) error {
	d.ID = uuid.New()
	cp := *d
	f.disciplinary[d.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) GetDisciplinaryRecord(_ context.Context, id uuid.UUID) (*models.DisciplinaryRecord, error) {
	return getCopy(f.disciplinary, id)
}

func (f *fakePersonnelStore) ListDisciplinaryRecords(_ context.Context, agentID uuid.UUID) ([]models.DisciplinaryRecord, error) {
	out := []models.DisciplinaryRecord{}
	for _, d := range f.disciplinary {
		if d.AgentID == agentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakePersonnelStore) DeleteDisciplinaryRecord(_ context.Context, id uuid.UUID) error {
	delete(f.disciplinary, id)
	return nil
}

func (f *fakePersonnelStore) CreateTrainingRecord(_ context.Context, t *models.TrainingRecord) error {
	t.ID = uuid.New()
	cp := *t
	f.trainings[t.ID] = &cp
	return nil
}

func (f *fakePersonnelStore) GetTrainingRecord(_ context.Context, id uuid.UUID) (*models.TrainingRecord, error) {
	return getCopy(f.trainings, id)
}

func (f *fakePersonnelStore) ListTrainingRecords(_ context.Context, agentID uuid.UUID) ([]models.TrainingRecord, error) {
	out := []models.TrainingRecord{}
	for _, t := range f.trainings {
		if t.AgentID == agentID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakePersonnelStore) DeleteTrainingRecord(_ context.Context, id uuid.UUID) error {
	delete(f.trainings, id)
	return nil
}

// reverseSealer stands in for Vault transit
type reverseSealer struct{}

func (reverseSealer) Seal(_ context.Context, s string) (string, error) {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return "sealed:" + string(r), nil
}

func (reverseSealer) Open(ctx context.Context, s string) (string, error) {
	rest, ok := strings.CutPrefix(s, "sealed:")
	if !ok {
		return s, nil
	}
	opened, _ := reverseSealer{}.Seal(ctx, rest)
	return strings.TrimPrefix(opened, "sealed:"), nil
}

type personnelFixture struct {
	svc      *PersonnelService
	store    *fakePersonnelStore
	notifier *recordingNotifier
	activity *recordingActivity
	agency   *models.Agency
	agent    *models.PoliceAgent
}

func newPersonnelFixture(t *testing.T, sealer Sealer) *personnelFixture {
	t.Helper()
	f := &personnelFixture{
		store:    newFakePersonnelStore(),
		notifier: &recordingNotifier{},
		activity: &recordingActivity{},
	}
	f.svc = NewPersonnelService(f.store, sealer, f.notifier, f.activity)
	f.svc.now = clock
	ctx := context.Background()

	f.agency = &models.Agency{Name: "Police Nationale", Abbreviation: "PN"}
	if err := f.svc.CreateAgency(ctx, f.agency); err != nil {
		t.Fatalf("CreateAgency() error = %v", err)
	}
	agent, err := f.svc.CreateAgent(ctx, &AgentInput{
		Name:        "Jane Doe",
		BadgeNumber: "PN-001",
		AgencyID:    &f.agency.ID,
		Email:       ptr("jane.doe@police.test"),
	})
	if err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
	f.agent = agent
	return f
}

func TestCreateAgentValidation(t *testing.T) {
	f := newPersonnelFixture(t, nil)
	if f.agent.Status != models.AgentStatusActive {
		t.Errorf("default status = %s, want active", f.agent.Status)
	}

	tomorrow := fixedNow.Add(24 * time.Hour)
	tests := []struct {
		name      string
		in        AgentInput
		wantField string
	}{
		{"missing name", AgentInput{BadgeNumber: "1"}, "name"},
		{"missing badge", AgentInput{Name: "A"}, "badge_number"},
		{"bad email", AgentInput{Name: "A", BadgeNumber: "1", Email: ptr("not-an-email")}, "email"},
		{"unknown status", AgentInput{Name: "A", BadgeNumber: "1", Status: "on-leave"}, "status"},
		{"phone too long", AgentInput{Name: "A", BadgeNumber: "1", Phone: ptr(strings.Repeat("0", 21))}, "phone"},
		{"future hire date", AgentInput{Name: "A", BadgeNumber: "1", HireDate: &tomorrow}, "hire_date"},
		{"unknown grade", AgentInput{Name: "A", BadgeNumber: "1", GradeID: ptr(uuid.New())}, "grade_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			_, err := f.svc.CreateAgent(context.Background(), &in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", ve.Fields[0].Field, tt.wantField)
			}
		})
	}
}

func TestDisciplinaryRecordValidation(t *testing.T) {
	f := newPersonnelFixture(t, nil)
	ctx := context.Background()
	tomorrow := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name      string
		in        DisciplinaryInput
		wantField string
		wantMsg   string
	}{
		{"future date", DisciplinaryInput{Type: models.DisciplinaryWarning, Date: tomorrow, Reason: "x"}, "date", "date cannot be in the future"},
		{"unknown type", DisciplinaryInput{Type: "blame", Date: fixedNow, Reason: "x"}, "type", ""},
		{"missing reason", DisciplinaryInput{Type: models.DisciplinaryWarning, Date: fixedNow, Reason: "  "}, "reason", "is required"},
		{"reason too long", DisciplinaryInput{Type: models.DisciplinaryWarning, Date: fixedNow, Reason: strings.Repeat("é", 501)}, "reason", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateDisciplinaryRecord(ctx, f.agent.ID, tt.in, adminActor)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", ve.Fields[0].Field, tt.wantField)
			}
			if tt.wantMsg != "" && ve.Fields[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ve.Fields[0].Message, tt.wantMsg)
			}
		})
	}

	later := fixedNow.Add(3 * time.Hour)
	if _, err := f.svc.CreateDisciplinaryRecord(ctx, f.agent.ID, DisciplinaryInput{
		Type: models.DisciplinaryWarning, Date: later, Reason: strings.Repeat("é", 500),
	}, adminActor); err != nil {
		t.Errorf("later the same day with a 500 character reason: %v", err)
	}
}

func TestDisciplinaryReasonSealedAtRest(t *testing.T) {
	f := newPersonnelFixture(t, reverseSealer{})
	ctx := context.Background()

	rec, err := f.svc.CreateDisciplinaryRecord(ctx, f.agent.ID, DisciplinaryInput{
		Type: models.DisciplinaryReprimand, Date: fixedNow, Reason: "Retard répété",
	}, adminActor)
	if err != nil {
		t.Fatalf("CreateDisciplinaryRecord() error = %v", err)
	}
	if rec.Reason != "Retard répété" {
		t.Errorf("returned reason = %q", rec.Reason)
	}
	if stored := f.store.disciplinary[rec.ID].Reason; !strings.HasPrefix(stored, "sealed:") {
		t.Errorf("stored reason = %q, want sealed", stored)
	}

	list, err := f.svc.ListDisciplinaryRecords(ctx, f.agent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Reason != "Retard répété" {
		t.Errorf("listed = %+v", list)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.count())
	}
	if got := f.activity.types(); len(got) != 1 || got[0] != models.ActivityDisciplinaryCreated {
		t.Errorf("activity = %v", got)
	}
}

func TestSpecialtyAssignmentLogsOldAndNew(t *testing.T) {
	f := newPersonnelFixture(t, nil)
	ctx := context.Background()

	sp := &models.Specialty{AgencyID: f.agency.ID, Name: "Cynophile"}
	if err := f.svc.CreateSpecialty(ctx, sp); err != nil {
		t.Fatal(err)
	}

	after, err := f.svc.AssignSpecialty(ctx, f.agent.ID, sp.ID, adminActor)
	if err != nil {
		t.Fatalf("AssignSpecialty() error = %v", err)
	}
	if len(after) != 1 {
		t.Errorf("specialties = %d, want 1", len(after))
	}
	entry := f.activity.entries[0]
	if entry.Type != models.ActivitySpecialtyAssigned {
		t.Errorf("activity type = %s", entry.Type)
	}
	if old := entry.Details["old"].([]string); len(old) != 0 {
		t.Errorf("old = %v, want empty", old)
	}
	if nw := entry.Details["new"].([]string); len(nw) != 1 || nw[0] != sp.ID.String() {
		t.Errorf("new = %v", nw)
	}

	after, err = f.svc.RemoveSpecialty(ctx, f.agent.ID, sp.ID, adminActor)
	if err != nil || len(after) != 0 {
		t.Errorf("RemoveSpecialty() = %v, %v", after, err)
	}

	other := &models.Agency{Name: "Gendarmerie", Abbreviation: "GN"}
	_ = f.svc.CreateAgency(ctx, other)
	foreign := &models.Specialty{AgencyID: other.ID, Name: "Montagne"}
	_ = f.svc.CreateSpecialty(ctx, foreign)
	var ve *ValidationError
	if _, err := f.svc.AssignSpecialty(ctx, f.agent.ID, foreign.ID, adminActor); !errors.As(err, &ve) {
		t.Errorf("foreign specialty error = %v, want ValidationError", err)
	}
}

func TestTrainingRecords(t *testing.T) {
	f := newPersonnelFixture(t, nil)
	ctx := context.Background()

	future := &models.TrainingRecord{AgentID: f.agent.ID, Title: "Secourisme", CompletedAt: fixedNow.AddDate(0, 0, 2)}
	var ve *ValidationError
	if err := f.svc.AddTrainingRecord(ctx, future, adminActor); !errors.As(err, &ve) {
		t.Fatalf("future training error = %v, want ValidationError", err)
	}

	rec := &models.TrainingRecord{AgentID: f.agent.ID, Title: "Secourisme", CompletedAt: fixedNow.AddDate(0, -1, 0)}
	if err := f.svc.AddTrainingRecord(ctx, rec, adminActor); err != nil {
		t.Fatalf("AddTrainingRecord() error = %v", err)
	}
	if err := f.svc.DeleteTrainingRecord(ctx, rec.ID, adminActor); err != nil {
		t.Fatal(err)
	}
	want := []string{models.ActivityTrainingAdded, models.ActivityTrainingDeleted}
	if got := f.activity.types(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("activity = %v, want %v", got, want)
	}
}

func TestUpdateAgentStatusChangeIsLogged(t *testing.T) {
	f := newPersonnelFixture(t, nil)
	ctx := context.Background()

	in := &AgentInput{Name: "Jane Doe", BadgeNumber: "PN-001", AgencyID: &f.agency.ID, Status: models.AgentStatusSuspended}
	if _, err := f.svc.UpdateAgent(ctx, f.agent.ID, in, adminActor); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateAgent(ctx, f.agent.ID, in, adminActor); err != nil {
		t.Fatal(err)
	}
	if got := f.activity.types(); len(got) != 1 || got[0] != models.ActivityAgentStatusChanged {
		t.Errorf("activity = %v, want a single status change", got)
	}
}

func TestDossier(t *testing.T) {
	f := newPersonnelFixture(t, reverseSealer{})
	ctx := context.Background()

	_, err := f.svc.CreateDisciplinaryRecord(ctx, f.agent.ID, DisciplinaryInput{
		Type: models.DisciplinaryWarning, Date: fixedNow, Reason: "Tenue",
	}, adminActor)
	if err != nil {
		t.Fatal(err)
	}

	d, err := f.svc.Dossier(ctx, f.agent.ID)
	if err != nil {
		t.Fatalf("Dossier() error = %v", err)
	}
	if d.Agency == nil || d.Agency.Abbreviation != "PN" {
		t.Errorf("agency = %+v", d.Agency)
	}
	if len(d.DisciplinaryRecords) != 1 || d.DisciplinaryRecords[0].Reason != "Tenue" {
		t.Errorf("records = %+v", d.DisciplinaryRecords)
	}
	if _, err := f.svc.Dossier(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown agent error = %v, want ErrNotFound", err)
	}
}
