package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
	"academy-portal/internal/repository"
)

// Shared in-memory doubles for the service tests.

var (
	fixedNow   = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	adminID    = uuid.New()
	adminActor = models.Actor{UserID: &adminID, Email: "admin@academy.test", Role: models.RoleAdmin}
)

func clock() time.Time { return fixedNow }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, content)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type loggedActivity struct {
	Type    string
	Actor   models.Actor
	Details models.Details
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []loggedActivity
}

func (a *recordingActivity) Log(_ context.Context, actor models.Actor, activityType string, details models.Details) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, loggedActivity{Type: activityType, Actor: actor, Details: details})
}

func (a *recordingActivity) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Type)
	}
	return out
}

type stubTokens struct{}

func (stubTokens) GenerateCandidateToken(invitationID, _ uuid.UUID) (string, time.Time, error) {
	return "candidate-" + invitationID.String(), fixedNow.Add(4 * time.Hour), nil
}

// Competitions

type fakeCompetitionStore struct {
	competitions   map[uuid.UUID]*models.Competition
	questions      map[uuid.UUID]*models.CompetitionQuestion
	invitations    map[uuid.UUID]*models.CompetitionInvitation
	participations map[uuid.UUID]*models.CompetitionParticipation
	candidates     []*models.Candidate
	credentials    int
	failInviteAt   int // 1-based insert that fails; 0 never fails
	inserts        int
}

func newFakeCompetitionStore() *fakeCompetitionStore {
	return &fakeCompetitionStore{
		competitions:   map[uuid.UUID]*models.Competition{},
		questions:      map[uuid.UUID]*models.CompetitionQuestion{},
		invitations:    map[uuid.UUID]*models.CompetitionInvitation{},
		participations: map[uuid.UUID]*models.CompetitionParticipation{},
	}
}

func (f *fakeCompetitionStore) Create(_ context.Context, c *models.Competition) error {
	c.ID = uuid.New()
	c.CreatedAt = fixedNow
	cp := *c
	f.competitions[c.ID] = &cp
	return nil
}

func (f *fakeCompetitionStore) GetByID(_ context.Context, id uuid.UUID) (*models.Competition, error) {
	c, ok := f.competitions[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCompetitionStore) List(_ context.Context, includePrivate, onlyActive bool) ([]models.Competition, error) {
	out := []models.Competition{}
	for _, c := range f.competitions {
		if !includePrivate && c.Type == models.CompetitionTypePrivate {
			continue
		}
		if onlyActive && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCompetitionStore) Update(_ context.Context, c *models.Competition) error {
	cp := *c
	f.competitions[c.ID] = &cp
	return nil
}

func (f *fakeCompetitionStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.competitions, id)
	return nil
}

func (f *fakeCompetitionStore) DeactivateExpired(_ context.Context, now time.Time) ([]models.Competition, error) {
	out := []models.Competition{}
	for _, c := range f.competitions {
		if c.IsActive && c.EndDate != nil && c.EndDate.Before(now) {
			c.IsActive = false
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCompetitionStore) CreateQuestion(_ context.Context, q *models.CompetitionQuestion) error {
	q.ID = uuid.New()
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeCompetitionStore) GetQuestion(_ context.Context, id uuid.UUID) (*models.CompetitionQuestion, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (f *fakeCompetitionStore) ListQuestions(_ context.Context, competitionID uuid.UUID) ([]models.CompetitionQuestion, error) {
	out := []models.CompetitionQuestion{}
	for _, q := range f.questions {
		if q.CompetitionID == competitionID {
			out = append(out, *q)
		}
	}
	slices.SortFunc(out, func(a, b models.CompetitionQuestion) int { return a.OrderNumber - b.OrderNumber })
	return out, nil
}

func (f *fakeCompetitionStore) UpdateQuestion(_ context.Context, q *models.CompetitionQuestion) error {
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeCompetitionStore) DeleteQuestion(_ context.Context, id uuid.UUID) error {
	delete(f.questions, id)
	return nil
}

func (f *fakeCompetitionStore) GenerateCredentials(_ context.Context) (string, string, error) {
	f.credentials++
	return "CAND" + string(rune('A'+f.credentials-1)), "secret", nil
}

func (f *fakeCompetitionStore) CreateInvitation(_ context.Context, inv *models.CompetitionInvitation) error {
	f.inserts++
	if f.failInviteAt != 0 && f.inserts == f.failInviteAt {
		return errInsert
	}
	inv.ID = uuid.New()
	inv.Status = models.InvitationStatusCreated
	inv.CreatedAt = fixedNow
	cp := *inv
	f.invitations[inv.ID] = &cp
	return nil
}

func (f *fakeCompetitionStore) GetInvitation(_ context.Context, id uuid.UUID) (*models.CompetitionInvitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeCompetitionStore) ListInvitations(_ context.Context, competitionID uuid.UUID) ([]models.CompetitionInvitation, error) {
	out := []models.CompetitionInvitation{}
	for _, inv := range f.invitations {
		if inv.CompetitionID == competitionID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeCompetitionStore) DeleteInvitation(_ context.Context, id uuid.UUID) error {
	delete(f.invitations, id)
	return nil
}

func (f *fakeCompetitionStore) ClaimInvitation(
	_ context.Context,
	identifier, password string,
	now time.Time,
	check func(*models.Competition) error,
) (*models.PrivateCompetitionAccess, error) {
	for _, inv := range f.invitations {
		if inv.LoginIdentifier != identifier || inv.LoginPassword != password || inv.Status != models.InvitationStatusCreated {
			continue
		}
		comp := f.competitions[inv.CompetitionID]
		if err := check(comp); err != nil {
			return nil, err
		}
		inv.Status = models.InvitationStatusUsed
		inv.UsedAt = &now
		return &models.PrivateCompetitionAccess{Invitation: *inv, Competition: *comp}, nil
	}
	return nil, nil
}

func (f *fakeCompetitionStore) MarkInvitationUsed(_ context.Context, id uuid.UUID, now time.Time) error {
	inv := f.invitations[id]
	if inv.Status != models.InvitationStatusCreated {
		return repository.ErrStaleState
	}
	inv.Status = models.InvitationStatusUsed
	inv.UsedAt = &now
	return nil
}

func (f *fakeCompetitionStore) CreateParticipation(_ context.Context, p *models.CompetitionParticipation) error {
	p.ID = uuid.New()
	p.SubmittedAt = fixedNow
	cp := *p
	cp.Answers = slices.Clone(p.Answers)
	f.participations[p.ID] = &cp
	return nil
}

func (f *fakeCompetitionStore) GetParticipation(_ context.Context, id uuid.UUID) (*models.CompetitionParticipation, error) {
	p, ok := f.participations[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Answers = slices.Clone(p.Answers)
	return &cp, nil
}

func (f *fakeCompetitionStore) ParticipationExistsForInvitation(_ context.Context, invitationID uuid.UUID) (bool, error) {
	for _, p := range f.participations {
		if p.InvitationID != nil && *p.InvitationID == invitationID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompetitionStore) ListParticipations(_ context.Context, competitionID uuid.UUID) ([]models.CompetitionParticipation, error) {
	out := []models.CompetitionParticipation{}
	for _, p := range f.participations {
		if p.CompetitionID == competitionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCompetitionStore) SaveGrades(_ context.Context, p *models.CompetitionParticipation) error {
	stored := f.participations[p.ID]
	if stored.Status == models.ParticipationStatusPromoted {
		return repository.ErrStaleState
	}
	cp := *p
	cp.Answers = slices.Clone(p.Answers)
	cp.Status = models.ParticipationStatusGraded
	f.participations[p.ID] = &cp
	p.Status = models.ParticipationStatusGraded
	return nil
}

func (f *fakeCompetitionStore) PromoteParticipation(_ context.Context, participationID uuid.UUID, candidate *models.Candidate) error {
	p := f.participations[participationID]
	if p.Status == models.ParticipationStatusPromoted {
		return repository.ErrStaleState
	}
	candidate.ID = uuid.New()
	candidate.SourceParticipationID = &participationID
	p.Status = models.ParticipationStatusPromoted
	f.candidates = append(f.candidates, candidate)
	return nil
}

// Applications

type fakeApplicationStore struct {
	forms        map[uuid.UUID]*models.ApplicationForm
	applications map[uuid.UUID]*models.Application
	candidates   []*models.Candidate
	writes       int
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{
		forms:        map[uuid.UUID]*models.ApplicationForm{},
		applications: map[uuid.UUID]*models.Application{},
	}
}

func (f *fakeApplicationStore) CreateForm(_ context.Context, form *models.ApplicationForm) error {
	form.ID = uuid.New()
	cp := *form
	f.forms[form.ID] = &cp
	return nil
}

func (f *fakeApplicationStore) GetForm(_ context.Context, id uuid.UUID) (*models.ApplicationForm, error) {
	form, ok := f.forms[id]
	if !ok {
		return nil, nil
	}
	cp := *form
	return &cp, nil
}

func (f *fakeApplicationStore) ListForms(_ context.Context, onlyActive bool) ([]models.ApplicationForm, error) {
	out := []models.ApplicationForm{}
	for _, form := range f.forms {
		if !onlyActive || form.IsActive {
			out = append(out, *form)
		}
	}
	return out, nil
}

func (f *fakeApplicationStore) UpdateForm(_ context.Context, form *models.ApplicationForm) error {
	cp := *form
	f.forms[form.ID] = &cp
	return nil
}

func (f *fakeApplicationStore) DeleteForm(_ context.Context, id uuid.UUID) error {
	delete(f.forms, id)
	return nil
}

func (f *fakeApplicationStore) Create(_ context.Context, a *models.Application) error {
	f.writes++
	a.ID = uuid.New()
	cp := *a
	cp.Responses = slices.Clone(a.Responses)
	f.applications[a.ID] = &cp
	return nil
}

func (f *fakeApplicationStore) GetByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	a, ok := f.applications[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Responses = slices.Clone(a.Responses)
	return &cp, nil
}

func (f *fakeApplicationStore) List(_ context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	out := []models.Application{}
	for _, a := range f.applications {
		if filter.FormID != nil && a.FormID != *filter.FormID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeApplicationStore) CountByStatus(_ context.Context, status models.ApplicationStatus) (int, error) {
	n := 0
	for _, a := range f.applications {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeApplicationStore) UpdateReview(_ context.Context, a *models.Application, from models.ApplicationStatus) error {
	stored := f.applications[a.ID]
	if stored.Status != from {
		return repository.ErrStaleState
	}
	f.writes++
	cp := *a
	cp.Responses = slices.Clone(a.Responses)
	f.applications[a.ID] = &cp
	return nil
}

func (f *fakeApplicationStore) Accept(_ context.Context, a *models.Application, from models.ApplicationStatus, candidate *models.Candidate) error {
	stored := f.applications[a.ID]
	if stored.Status != from {
		return repository.ErrStaleState
	}
	f.writes++
	candidate.ID = uuid.New()
	candidate.SourceApplicationID = &a.ID
	f.candidates = append(f.candidates, candidate)
	a.CandidateID = &candidate.ID
	cp := *a
	cp.Responses = slices.Clone(a.Responses)
	f.applications[a.ID] = &cp
	return nil
}

func (f *fakeApplicationStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.applications, id)
	return nil
}

// Quizzes

type fakeQuizStore struct {
	quizzes      map[uuid.UUID]*models.Quiz
	questions    map[uuid.UUID]*models.QuizQuestion
	participants map[uuid.UUID]*models.QuizParticipant
	attempts     map[uuid.UUID]*models.QuizAttempt
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{
		quizzes:      map[uuid.UUID]*models.Quiz{},
		questions:    map[uuid.UUID]*models.QuizQuestion{},
		participants: map[uuid.UUID]*models.QuizParticipant{},
		attempts:     map[uuid.UUID]*models.QuizAttempt{},
	}
}

func (f *fakeQuizStore) Create(_ context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	cp := *q
	f.quizzes[q.ID] = &cp
	return nil
}

func (f *fakeQuizStore) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, ok := f.quizzes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuizStore) List(_ context.Context, onlyActive bool) ([]models.Quiz, error) {
	out := []models.Quiz{}
	for _, q := range f.quizzes {
		if !onlyActive || q.IsActive {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQuizStore) Update(_ context.Context, q *models.Quiz) error {
	cp := *q
	f.quizzes[q.ID] = &cp
	return nil
}

func (f *fakeQuizStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.quizzes, id)
	return nil
}

func (f *fakeQuizStore) CreateQuestion(_ context.Context, q *models.QuizQuestion) error {
	q.ID = uuid.New()
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeQuizStore) GetQuestion(_ context.Context, id uuid.UUID) (*models.QuizQuestion, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuizStore) ListQuestions(_ context.Context, quizID uuid.UUID) ([]models.QuizQuestion, error) {
	out := []models.QuizQuestion{}
	for _, q := range f.questions {
		if q.QuizID == quizID {
			out = append(out, *q)
		}
	}
	slices.SortFunc(out, func(a, b models.QuizQuestion) int { return a.OrderNumber - b.OrderNumber })
	return out, nil
}

func (f *fakeQuizStore) UpdateQuestion(_ context.Context, q *models.QuizQuestion) error {
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeQuizStore) DeleteQuestion(_ context.Context, id uuid.UUID) error {
	delete(f.questions, id)
	return nil
}

func (f *fakeQuizStore) CreateParticipant(_ context.Context, p *models.QuizParticipant) error {
	p.ID = uuid.New()
	cp := *p
	f.participants[p.ID] = &cp
	return nil
}

func (f *fakeQuizStore) GetParticipant(_ context.Context, id uuid.UUID) (*models.QuizParticipant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeQuizStore) ListParticipants(_ context.Context, quizID uuid.UUID) ([]models.QuizParticipant, error) {
	out := []models.QuizParticipant{}
	for _, p := range f.participants {
		if p.QuizID == quizID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeQuizStore) CreateAttempt(_ context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeQuizStore) GetAttempt(_ context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeQuizStore) CompleteAttempt(_ context.Context, a *models.QuizAttempt) error {
	stored := f.attempts[a.ID]
	if stored.IsCompleted {
		return repository.ErrStaleState
	}
	a.IsCompleted = true
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeQuizStore) ListAttempts(_ context.Context, quizID uuid.UUID, participantID *uuid.UUID) ([]models.QuizAttempt, error) {
	out := []models.QuizAttempt{}
	for _, a := range f.attempts {
		if a.QuizID != quizID {
			continue
		}
		if participantID != nil && a.ParticipantID != *participantID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeQuizStore) CountAttempts(_ context.Context, quizID, participantID uuid.UUID) (int, error) {
	n := 0
	for _, a := range f.attempts {
		if a.QuizID == quizID && a.ParticipantID == participantID {
			n++
		}
	}
	return n, nil
}
