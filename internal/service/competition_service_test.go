package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

var errInsert = errors.New("insert failed")

type competitionFixture struct {
	svc      *CompetitionService
	store    *fakeCompetitionStore
	notifier *recordingNotifier
	activity *recordingActivity
}

func newCompetitionFixture() *competitionFixture {
	f := &competitionFixture{
		store:    newFakeCompetitionStore(),
		notifier: &recordingNotifier{},
		activity: &recordingActivity{},
	}
	f.svc = NewCompetitionService(f.store, stubTokens{}, f.notifier, f.activity, nil)
	f.svc.now = clock
	return f
}

func (f *competitionFixture) competition(t *testing.T, c models.Competition) *models.Competition {
	t.Helper()
	if c.Title == "" {
		c.Title = "Concours gardien de la paix"
	}
	if err := f.svc.CreateCompetition(context.Background(), &c, adminActor); err != nil {
		t.Fatalf("CreateCompetition() error = %v", err)
	}
	return &c
}

func (f *competitionFixture) question(t *testing.T, q models.CompetitionQuestion) *models.CompetitionQuestion {
	t.Helper()
	if q.Question == "" {
		q.Question = "Question"
	}
	if err := f.svc.AddQuestion(context.Background(), &q); err != nil {
		t.Fatalf("AddQuestion() error = %v", err)
	}
	return &q
}

func ptr[T any](v T) *T { return &v }

func TestIsCompetitionActive(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name string
		c    models.Competition
		want bool
	}{
		{"inactive", models.Competition{IsActive: false}, false},
		{"active without window", models.Competition{IsActive: true}, true},
		{"not started", models.Competition{IsActive: true, StartDate: &future}, false},
		{"ended", models.Competition{IsActive: true, EndDate: &past}, false},
		{"within window", models.Competition{IsActive: true, StartDate: &past, EndDate: &future}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCompetitionActive(&tt.c, fixedNow); got != tt.want {
				t.Errorf("IsCompetitionActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateCompetition(t *testing.T) {
	f := newCompetitionFixture()

	c := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})
	if c.CreatedBy == nil || *c.CreatedBy != adminID {
		t.Errorf("CreatedBy = %v, want %v", c.CreatedBy, adminID)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.count())
	}
	if got := f.activity.types(); len(got) != 1 || got[0] != models.ActivityCompetitionCreated {
		t.Errorf("activity = %v", got)
	}

	err := f.svc.CreateCompetition(context.Background(), &models.Competition{Type: "secret"}, adminActor)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("rejected fields = %v, want title and type", ve.Labels())
	}
}

func TestListPublicCompetitionsExcludesPrivate(t *testing.T) {
	f := newCompetitionFixture()
	f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})
	f.competition(t, models.Competition{Type: models.CompetitionTypeInternal, IsActive: false})
	f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})

	ctx := context.Background()
	public, _ := f.svc.ListPublicCompetitions(ctx, false)
	if len(public) != 2 {
		t.Errorf("public = %d, want 2", len(public))
	}
	activePublic, _ := f.svc.ListPublicCompetitions(ctx, true)
	if len(activePublic) != 1 {
		t.Errorf("active public = %d, want 1", len(activePublic))
	}
	all, _ := f.svc.ListAllCompetitions(ctx, false)
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestAddQuestionRules(t *testing.T) {
	f := newCompetitionFixture()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})

	section := f.question(t, models.CompetitionQuestion{
		CompetitionID: c.ID, Type: models.QuestionTypeSection, MaxPoints: 5, Options: []string{"x"},
	})
	if section.MaxPoints != 0 || section.Options != nil {
		t.Errorf("section kept points %d and options %v", section.MaxPoints, section.Options)
	}

	tests := []struct {
		name string
		q    models.CompetitionQuestion
	}{
		{"qcm with one option", models.CompetitionQuestion{Type: models.QuestionTypeQCM, Options: []string{"a"}, MaxPoints: 2}},
		{"qcm answer outside options", models.CompetitionQuestion{
			Type: models.QuestionTypeQCM, Options: []string{"a", "b"}, CorrectAnswer: ptr("c"), MaxPoints: 2,
		}},
		{"unknown type", models.CompetitionQuestion{Type: "essay"}},
		{"negative points", models.CompetitionQuestion{Type: models.QuestionTypeText, MaxPoints: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.q
			q.CompetitionID = c.ID
			q.Question = "Q"
			var ve *ValidationError
			if err := f.svc.AddQuestion(context.Background(), &q); !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestPrivateInvitationLifecycle(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})

	invs, err := f.svc.CreateInvitations(ctx, c.ID, []models.InvitationCandidate{{Name: "Jane Doe"}}, adminActor)
	if err != nil {
		t.Fatalf("CreateInvitations() error = %v", err)
	}
	if len(invs) != 1 || invs[0].Status != models.InvitationStatusCreated {
		t.Fatalf("invitations = %+v", invs)
	}
	inv := invs[0]

	access, err := f.svc.AuthenticatePrivateCompetition(ctx, inv.LoginIdentifier, inv.LoginPassword)
	if err != nil {
		t.Fatalf("AuthenticatePrivateCompetition() error = %v", err)
	}
	if access == nil {
		t.Fatal("expected access on first login")
	}
	if access.Invitation.Status != models.InvitationStatusUsed || access.Competition.ID != c.ID {
		t.Errorf("access = %+v", access)
	}
	if access.AccessToken == "" || access.ExpiresAt == nil {
		t.Error("expected a candidate token")
	}

	again, err := f.svc.AuthenticatePrivateCompetition(ctx, inv.LoginIdentifier, inv.LoginPassword)
	if err != nil || again != nil {
		t.Errorf("second login = %v, %v; want nil, nil", again, err)
	}

	wrong, err := f.svc.AuthenticatePrivateCompetition(ctx, inv.LoginIdentifier, "nope")
	if err != nil || wrong != nil {
		t.Errorf("wrong password = %v, %v; want nil, nil", wrong, err)
	}
}

func TestAuthenticateClosedCompetitionKeepsInvitation(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})
	invs, err := f.svc.CreateInvitations(ctx, c.ID, []models.InvitationCandidate{{Name: "Jane Doe"}}, adminActor)
	if err != nil {
		t.Fatal(err)
	}

	f.store.competitions[c.ID].IsActive = false

	_, err = f.svc.AuthenticatePrivateCompetition(ctx, invs[0].LoginIdentifier, invs[0].LoginPassword)
	if !errors.Is(err, ErrCompetitionClosed) {
		t.Fatalf("error = %v, want ErrCompetitionClosed", err)
	}
	if got := f.store.invitations[invs[0].ID].Status; got != models.InvitationStatusCreated {
		t.Errorf("invitation status = %s, want created", got)
	}
}

func TestCreateInvitationsRequiresPrivate(t *testing.T) {
	f := newCompetitionFixture()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})

	_, err := f.svc.CreateInvitations(context.Background(), c.ID, []models.InvitationCandidate{{Name: "A"}}, adminActor)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestCreateInvitationsReturnsPartialOnFailure(t *testing.T) {
	f := newCompetitionFixture()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})
	f.store.failInviteAt = 3

	candidates := []models.InvitationCandidate{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	created, err := f.svc.CreateInvitations(context.Background(), c.ID, candidates, adminActor)
	if !errors.Is(err, errInsert) {
		t.Fatalf("error = %v, want errInsert", err)
	}
	if len(created) != 2 {
		t.Errorf("created = %d, want 2", len(created))
	}
	if len(f.store.invitations) != 2 {
		t.Errorf("stored = %d, want 2", len(f.store.invitations))
	}

	var logged *loggedActivity
	for i, e := range f.activity.entries {
		if e.Type == models.ActivityInvitationsCreated {
			logged = &f.activity.entries[i]
		}
	}
	if logged == nil {
		t.Fatal("created invitations missing from the activity log")
	}
	if logged.Details["count"] != 2 || logged.Details["requested"] != 4 {
		t.Errorf("activity details = %v", logged.Details)
	}
}

// blockingMailer holds every send until release is closed
type blockingMailer struct {
	release chan struct{}
	sent    chan string
}

func (m *blockingMailer) SendInvitationCredentials(ctx context.Context, to string, _ *models.CompetitionInvitation, _ *models.Competition) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("mail sent without a deadline")
	}
	<-m.release
	m.sent <- to
	return nil
}

func TestCreateInvitationsDoesNotWaitForMail(t *testing.T) {
	f := newCompetitionFixture()
	mailer := &blockingMailer{release: make(chan struct{}), sent: make(chan string, 3)}
	f.svc.mailer = mailer
	c := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})

	candidates := []models.InvitationCandidate{
		{Name: "A", Email: ptr("a@example.com")},
		{Name: "B", Email: ptr("b@example.com")},
		{Name: "C"},
		{Name: "D", Email: ptr("d@example.com")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	type result struct {
		created []models.CompetitionInvitation
		err     error
	}
	done := make(chan result, 1)
	go func() {
		created, err := f.svc.CreateInvitations(ctx, c.ID, candidates, adminActor)
		done <- result{created, err}
	}()

	select {
	case r := <-done:
		if r.err != nil || len(r.created) != 4 {
			t.Fatalf("CreateInvitations() = %d invitations, %v", len(r.created), r.err)
		}
	case <-ctx.Done():
		close(mailer.release)
		t.Fatal("CreateInvitations waited for the mailer")
	}

	close(mailer.release)
	got := map[string]bool{}
	for range 3 {
		select {
		case to := <-mailer.sent:
			got[to] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d credential mails sent", len(got))
		}
	}
	for _, to := range []string{"a@example.com", "b@example.com", "d@example.com"} {
		if !got[to] {
			t.Errorf("no mail for %s", to)
		}
	}
}

func TestMarkInvitationAsUsedTwice(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})
	invs, _ := f.svc.CreateInvitations(ctx, c.ID, []models.InvitationCandidate{{Name: "A"}}, adminActor)

	if err := f.svc.MarkInvitationAsUsed(ctx, invs[0].ID); err != nil {
		t.Fatalf("first mark error = %v", err)
	}
	if err := f.svc.MarkInvitationAsUsed(ctx, invs[0].ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second mark error = %v, want ErrInvalidTransition", err)
	}
	if err := f.svc.MarkInvitationAsUsed(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown invitation error = %v, want ErrNotFound", err)
	}
}

func TestSubmitParticipationScoring(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})

	q2 := f.question(t, models.CompetitionQuestion{CompetitionID: c.ID, Type: models.QuestionTypeText, MaxPoints: 10, OrderNumber: 2})
	sec := f.question(t, models.CompetitionQuestion{CompetitionID: c.ID, Type: models.QuestionTypeSection, OrderNumber: 1})
	q3 := f.question(t, models.CompetitionQuestion{
		CompetitionID: c.ID, Type: models.QuestionTypeQCM, Options: []string{"a", "b"}, MaxPoints: 5, OrderNumber: 3,
	})

	p, err := f.svc.SubmitParticipation(ctx, SubmitParticipationInput{
		CompetitionID:   c.ID,
		ParticipantName: "John Smith",
		Answers: []AnswerInput{
			{QuestionID: q3.ID, Answer: "a", Score: ptr(50)},
			{QuestionID: q2.ID, Answer: "text", Score: ptr(-3)},
			{QuestionID: sec.ID, Answer: "ignored", Score: ptr(7)},
		},
	})
	if err != nil {
		t.Fatalf("SubmitParticipation() error = %v", err)
	}

	wantOrder := []uuid.UUID{sec.ID, q2.ID, q3.ID}
	for i, a := range p.Answers {
		if a.QuestionID != wantOrder[i] {
			t.Errorf("answer %d is question %s, want %s", i, a.QuestionID, wantOrder[i])
		}
	}
	if p.Answers[0].Score != 0 || p.Answers[0].MaxScore != 0 {
		t.Errorf("section answer = %+v, want 0/0", p.Answers[0])
	}
	if p.Answers[1].Score != 0 {
		t.Errorf("negative score clamped to %d, want 0", p.Answers[1].Score)
	}
	if p.Answers[2].Score != 5 {
		t.Errorf("excess score clamped to %d, want 5", p.Answers[2].Score)
	}
	if p.TotalScore != 5 || p.MaxPossibleScore != 15 {
		t.Errorf("totals = %d/%d, want 5/15", p.TotalScore, p.MaxPossibleScore)
	}
	if p.Status != models.ParticipationStatusSubmitted {
		t.Errorf("status = %s", p.Status)
	}
	if f.notifier.count() != 2 {
		t.Errorf("notifications = %d, want 2", f.notifier.count())
	}
}

func TestSubmitParticipationRejections(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	open := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})
	closed := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: false})
	private := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})

	invs, _ := f.svc.CreateInvitations(ctx, private.ID, []models.InvitationCandidate{{Name: "Jane Doe"}}, adminActor)
	unclaimed := invs[0].ID

	tests := []struct {
		name    string
		in      SubmitParticipationInput
		wantErr error
	}{
		{"closed competition", SubmitParticipationInput{CompetitionID: closed.ID, ParticipantName: "A"}, ErrCompetitionClosed},
		{"unknown competition", SubmitParticipationInput{CompetitionID: uuid.New(), ParticipantName: "A"}, ErrNotFound},
		{"private without invitation", SubmitParticipationInput{CompetitionID: private.ID}, ErrForbidden},
		{"private with unclaimed invitation", SubmitParticipationInput{CompetitionID: private.ID, InvitationID: &unclaimed}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.SubmitParticipation(ctx, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown question", func(t *testing.T) {
		_, err := f.svc.SubmitParticipation(ctx, SubmitParticipationInput{
			CompetitionID:   open.ID,
			ParticipantName: "A",
			Answers:         []AnswerInput{{QuestionID: uuid.New(), Answer: "x"}},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := f.svc.SubmitParticipation(ctx, SubmitParticipationInput{CompetitionID: open.ID})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})
}

func TestSubmitPrivateParticipationOnce(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypePrivate, IsActive: true})
	invs, _ := f.svc.CreateInvitations(ctx, c.ID, []models.InvitationCandidate{{Name: "Jane Doe"}}, adminActor)
	access, err := f.svc.AuthenticatePrivateCompetition(ctx, invs[0].LoginIdentifier, invs[0].LoginPassword)
	if err != nil || access == nil {
		t.Fatalf("login = %v, %v", access, err)
	}

	in := SubmitParticipationInput{CompetitionID: c.ID, InvitationID: &access.Invitation.ID, ParticipantName: "someone else"}
	p, err := f.svc.SubmitParticipation(ctx, in)
	if err != nil {
		t.Fatalf("SubmitParticipation() error = %v", err)
	}
	if p.ParticipantName != "Jane Doe" {
		t.Errorf("participant = %q, want the invited name", p.ParticipantName)
	}
	if _, err := f.svc.SubmitParticipation(ctx, in); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second submission error = %v, want ErrInvalidTransition", err)
	}
}

func TestGradeParticipation(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	c := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})
	q1 := f.question(t, models.CompetitionQuestion{CompetitionID: c.ID, Type: models.QuestionTypeText, MaxPoints: 10, OrderNumber: 1})
	q2 := f.question(t, models.CompetitionQuestion{CompetitionID: c.ID, Type: models.QuestionTypeText, MaxPoints: 10, OrderNumber: 2})

	p, err := f.svc.SubmitParticipation(ctx, SubmitParticipationInput{CompetitionID: c.ID, ParticipantName: "A"})
	if err != nil {
		t.Fatal(err)
	}

	graded, err := f.svc.GradeParticipation(ctx, p.ID, map[uuid.UUID]int{q1.ID: 7, q2.ID: 25}, ptr("good"), adminActor)
	if err != nil {
		t.Fatalf("GradeParticipation() error = %v", err)
	}
	if graded.TotalScore != 17 || graded.MaxPossibleScore != 20 {
		t.Errorf("totals = %d/%d, want 17/20", graded.TotalScore, graded.MaxPossibleScore)
	}
	if graded.Status != models.ParticipationStatusGraded || graded.GradedBy == nil {
		t.Errorf("graded = %+v", graded)
	}

	_, err = f.svc.GradeParticipation(ctx, p.ID, map[uuid.UUID]int{uuid.New(): 1}, nil, adminActor)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("unknown question error = %v, want ValidationError", err)
	}
}

func TestCreateCandidateFromCompetition(t *testing.T) {
	f := newCompetitionFixture()
	ctx := context.Background()
	entry := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true, IsEntryTest: true})
	regular := f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})

	p, _ := f.svc.SubmitParticipation(ctx, SubmitParticipationInput{CompetitionID: entry.ID, ParticipantName: "John Smith"})
	other, _ := f.svc.SubmitParticipation(ctx, SubmitParticipationInput{CompetitionID: regular.ID, ParticipantName: "B"})

	candidate, err := f.svc.CreateCandidateFromCompetition(ctx, p.ID, adminActor)
	if err != nil {
		t.Fatalf("CreateCandidateFromCompetition() error = %v", err)
	}
	if candidate.Name != "John Smith" || len(candidate.ServerID) != 4 {
		t.Errorf("candidate = %+v", candidate)
	}
	if candidate.SourceParticipationID == nil || *candidate.SourceParticipationID != p.ID {
		t.Errorf("source participation = %v", candidate.SourceParticipationID)
	}

	if _, err := f.svc.CreateCandidateFromCompetition(ctx, p.ID, adminActor); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second promotion error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.CreateCandidateFromCompetition(ctx, other.ID, adminActor); !errors.Is(err, ErrNotEntryTest) {
		t.Errorf("non entry test error = %v, want ErrNotEntryTest", err)
	}
	if len(f.store.candidates) != 1 {
		t.Errorf("candidates = %d, want 1", len(f.store.candidates))
	}
}

func TestRandomServerID(t *testing.T) {
	for range 200 {
		id := randomServerID()
		if len(id) != 4 || id[0] == '0' {
			t.Fatalf("randomServerID() = %q, want 4 digits", id)
		}
	}
}

func TestCloseExpiredCompetitions(t *testing.T) {
	f := newCompetitionFixture()
	past := fixedNow.Add(-time.Hour)
	f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true, EndDate: &past})
	f.competition(t, models.Competition{Type: models.CompetitionTypeExternal, IsActive: true})

	closed, err := f.svc.CloseExpiredCompetitions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 1 {
		t.Errorf("closed = %d, want 1", len(closed))
	}
	types := f.activity.types()
	if types[len(types)-1] != models.ActivityCompetitionsAutoClose {
		t.Errorf("last activity = %s", types[len(types)-1])
	}
}
