package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
	"academy-portal/internal/notify"
)

// CompetitionStore persists competitions and everything hanging off them
type CompetitionStore interface {
	Create(ctx context.Context, c *models.Competition) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	List(ctx context.Context, includePrivate, onlyActive bool) ([]models.Competition, error)
	Update(ctx context.Context, c *models.Competition) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeactivateExpired(ctx context.Context, now time.Time) ([]models.Competition, error)

	CreateQuestion(ctx context.Context, q *models.CompetitionQuestion) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.CompetitionQuestion, error)
	ListQuestions(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionQuestion, error)
	UpdateQuestion(ctx context.Context, q *models.CompetitionQuestion) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error

	GenerateCredentials(ctx context.Context) (identifier, password string, err error)
	CreateInvitation(ctx context.Context, inv *models.CompetitionInvitation) error
	GetInvitation(ctx context.Context, id uuid.UUID) (*models.CompetitionInvitation, error)
	ListInvitations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionInvitation, error)
	DeleteInvitation(ctx context.Context, id uuid.UUID) error
	ClaimInvitation(ctx context.Context, identifier, password string, now time.Time,
		check func(*models.Competition) error) (*models.PrivateCompetitionAccess, error)
	MarkInvitationUsed(ctx context.Context, id uuid.UUID, now time.Time) error

	CreateParticipation(ctx context.Context, p *models.CompetitionParticipation) error
	GetParticipation(ctx context.Context, id uuid.UUID) (*models.CompetitionParticipation, error)
	ParticipationExistsForInvitation(ctx context.Context, invitationID uuid.UUID) (bool, error)
	ListParticipations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionParticipation, error)
	SaveGrades(ctx context.Context, p *models.CompetitionParticipation) error
	PromoteParticipation(ctx context.Context, participationID uuid.UUID, candidate *models.Candidate) error
}

// CandidateTokenIssuer signs access tokens for claimed invitations
type CandidateTokenIssuer interface {
	GenerateCandidateToken(invitationID, competitionID uuid.UUID) (string, time.Time, error)
}

// CredentialMailer sends invitation credentials to candidates
type CredentialMailer interface {
	SendInvitationCredentials(ctx context.Context, to string, inv *models.CompetitionInvitation, competition *models.Competition) error
}

const credentialMailTimeout = 30 * time.Second

// CompetitionService handles the competition lifecycle
type CompetitionService struct {
	store    CompetitionStore
	tokens   CandidateTokenIssuer
	notifier notify.Notifier
	activity ActivityLogger
	mailer   CredentialMailer
	now      func() time.Time
}

// NewCompetitionService creates a new competition service. mailer may be nil.
func NewCompetitionService(
	store CompetitionStore,
	tokens CandidateTokenIssuer,
	notifier notify.Notifier,
	activity ActivityLogger,
	mailer CredentialMailer,
) *CompetitionService {
	return &CompetitionService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		activity: activity,
		mailer:   mailer,
		now:      time.Now,
	}
}

// IsCompetitionActive reports whether c accepts entries at now
func IsCompetitionActive(c *models.Competition, now time.Time) bool {
	return c.IsOpen(now)
}

func validateCompetition(c *models.Competition) error {
	ve := &ValidationError{}
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		ve.Add("title", "is required")
	}
	if !c.Type.Valid() {
		ve.Add("type", "must be one of: external, internal, private")
	}
	if c.MaxScore < 0 {
		ve.Add("max_score", "must not be negative")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		ve.Add("end_date", "must not be before start_date")
	}
	return ve.Err()
}

// CreateCompetition persists a competition and announces it
func (s *CompetitionService) CreateCompetition(ctx context.Context, c *models.Competition, actor models.Actor) error {
	if err := validateCompetition(c); err != nil {
		return err
	}
	c.CreatedBy = actor.UserID

	if err := s.store.Create(ctx, c); err != nil {
		slog.Error("Failed to create competition", "title", c.Title, "error", err)
		return err
	}

	s.notifier.Notify(notify.CompetitionCreated(c.Title, string(c.Type)))
	s.activity.Log(ctx, actor, models.ActivityCompetitionCreated, models.Details{
		"competition_id": c.ID.String(),
		"title":          c.Title,
		"type":           string(c.Type),
	})
	return nil
}

// ListPublicCompetitions lists external and internal competitions, newest first
func (s *CompetitionService) ListPublicCompetitions(ctx context.Context, onlyActive bool) ([]models.Competition, error) {
	return s.store.List(ctx, false, onlyActive)
}

// ListAllCompetitions lists every competition including private ones, newest first
func (s *CompetitionService) ListAllCompetitions(ctx context.Context, onlyActive bool) ([]models.Competition, error) {
	return s.store.List(ctx, true, onlyActive)
}

// GetCompetition returns a competition or ErrNotFound
func (s *CompetitionService) GetCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// UpdateCompetition overwrites the editable fields of an existing competition
func (s *CompetitionService) UpdateCompetition(ctx context.Context, c *models.Competition) error {
	existing, err := s.GetCompetition(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := validateCompetition(c); err != nil {
		return err
	}
	c.CreatedBy, c.CreatedAt = existing.CreatedBy, existing.CreatedAt
	return s.store.Update(ctx, c)
}

// DeleteCompetition removes a competition with its questions, invitations and papers
func (s *CompetitionService) DeleteCompetition(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCompetition(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// CloseExpiredCompetitions deactivates competitions whose end date has passed
func (s *CompetitionService) CloseExpiredCompetitions(ctx context.Context) ([]models.Competition, error) {
	closed, err := s.store.DeactivateExpired(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if len(closed) == 0 {
		return closed, nil
	}

	titles := make([]string, 0, len(closed))
	for _, c := range closed {
		titles = append(titles, c.Title)
	}
	s.notifier.Notify(notify.CompetitionsClosed(titles))
	s.activity.Log(ctx, models.Actor{Email: "system", Role: "system"}, models.ActivityCompetitionsAutoClose, models.Details{
		"count":  len(closed),
		"titles": titles,
	})
	return closed, nil
}

// Questions

func validateQuestion(q *models.CompetitionQuestion) error {
	ve := &ValidationError{}
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		ve.Add("question", "is required")
	}
	if q.MaxPoints < 0 {
		ve.Add("max_points", "must not be negative")
	}

	switch q.Type {
	case models.QuestionTypeSection:
		q.MaxPoints = 0
		q.Options = nil
		q.CorrectAnswer = nil
	case models.QuestionTypeQCM:
		if len(q.Options) < 2 {
			ve.Add("options", "a multiple choice question needs at least two options")
		}
		if q.CorrectAnswer != nil && !contains(q.Options, *q.CorrectAnswer) {
			ve.Add("correct_answer", "must be one of the options")
		}
	case models.QuestionTypeText:
		q.Options = nil
	default:
		ve.Add("type", "must be one of: qcm, text, section")
	}
	return ve.Err()
}

// AddQuestion appends a question to a competition
func (s *CompetitionService) AddQuestion(ctx context.Context, q *models.CompetitionQuestion) error {
	if _, err := s.GetCompetition(ctx, q.CompetitionID); err != nil {
		return err
	}
	if err := validateQuestion(q); err != nil {
		return err
	}
	return s.store.CreateQuestion(ctx, q)
}

// ListQuestions returns the questions of a competition by order number
func (s *CompetitionService) ListQuestions(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionQuestion, error) {
	return s.store.ListQuestions(ctx, competitionID)
}

// UpdateQuestion overwrites an existing question
func (s *CompetitionService) UpdateQuestion(ctx context.Context, q *models.CompetitionQuestion) error {
	existing, err := s.store.GetQuestion(ctx, q.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	q.CompetitionID = existing.CompetitionID
	if err := validateQuestion(q); err != nil {
		return err
	}
	return s.store.UpdateQuestion(ctx, q)
}

// DeleteQuestion removes a question; remaining order numbers are left as they are
func (s *CompetitionService) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	existing, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return s.store.DeleteQuestion(ctx, id)
}

// Invitations

// CreateInvitations issues one credential pair per candidate. Invitations are
// inserted one by one; when an insert fails the invitations created so far are
// returned together with the error.
func (s *CompetitionService) CreateInvitations(
	ctx context.Context,
	competitionID uuid.UUID,
	candidates []models.InvitationCandidate,
	actor models.Actor,
) ([]models.CompetitionInvitation, error) {
	comp, err := s.GetCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if comp.Type != models.CompetitionTypePrivate {
		return nil, invalid("competition", "invitations are only issued for private competitions")
	}

	ve := &ValidationError{}
	if len(candidates) == 0 {
		ve.Add("candidates", "at least one candidate is required")
	}
	for i, c := range candidates {
		if blank(c.Name) {
			ve.Add(fmt.Sprintf("candidates[%d].name", i), "is required")
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	created := make([]models.CompetitionInvitation, 0, len(candidates))
	var insertErr error
	for _, c := range candidates {
		identifier, password, err := s.store.GenerateCredentials(ctx)
		if err != nil {
			slog.Error("Failed to generate invitation credentials", "competition_id", competitionID, "error", err)
			insertErr = err
			break
		}

		inv := models.CompetitionInvitation{
			CompetitionID:   competitionID,
			CandidateName:   strings.TrimSpace(c.Name),
			CandidateEmail:  c.Email,
			LoginIdentifier: identifier,
			LoginPassword:   password,
		}
		if err := s.store.CreateInvitation(ctx, &inv); err != nil {
			slog.Error("Failed to create invitation",
				"competition_id", competitionID,
				"created", len(created),
				"error", err,
			)
			insertErr = err
			break
		}
		created = append(created, inv)
	}

	if len(created) > 0 {
		details := models.Details{
			"competition_id": competitionID.String(),
			"count":          len(created),
		}
		if insertErr != nil {
			details["requested"] = len(candidates)
		}
		s.activity.Log(ctx, actor, models.ActivityInvitationsCreated, details)
		s.mailCredentials(created, comp)
	}
	return created, insertErr
}

// mailCredentials sends the credential e-mails in the background, one mail
// at a time, each bounded by credentialMailTimeout
func (s *CompetitionService) mailCredentials(invitations []models.CompetitionInvitation, comp *models.Competition) {
	if s.mailer == nil {
		return
	}
	pending := make([]models.CompetitionInvitation, 0, len(invitations))
	for _, inv := range invitations {
		if inv.CandidateEmail != nil && !blank(*inv.CandidateEmail) {
			pending = append(pending, inv)
		}
	}
	if len(pending) == 0 {
		return
	}
	competition := *comp

	go func() {
		for _, inv := range pending {
			ctx, cancel := context.WithTimeout(context.Background(), credentialMailTimeout)
			err := s.mailer.SendInvitationCredentials(ctx, *inv.CandidateEmail, &inv, &competition)
			cancel()
			if err != nil {
				slog.Warn("Failed to e-mail invitation credentials", "invitation_id", inv.ID, "error", err)
			}
		}
	}()
}

var errNotPrivate = errors.New("competition is not private")

// AuthenticatePrivateCompetition claims the invitation matching the credentials.
// It returns nil, nil when the credentials are wrong or were already used. When
// the competition is not open the invitation is left unused and
// ErrCompetitionClosed is returned.
func (s *CompetitionService) AuthenticatePrivateCompetition(ctx context.Context, identifier, password string) (*models.PrivateCompetitionAccess, error) {
	identifier, password = strings.TrimSpace(identifier), strings.TrimSpace(password)
	if identifier == "" || password == "" {
		return nil, nil
	}

	now := s.now()
	access, err := s.store.ClaimInvitation(ctx, identifier, password, now, func(c *models.Competition) error {
		if c.Type != models.CompetitionTypePrivate {
			return errNotPrivate
		}
		if !IsCompetitionActive(c, now) {
			return ErrCompetitionClosed
		}
		return nil
	})
	if errors.Is(err, errNotPrivate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if access == nil {
		return nil, nil
	}

	token, expiresAt, err := s.tokens.GenerateCandidateToken(access.Invitation.ID, access.Competition.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue candidate token: %w", err)
	}
	access.AccessToken = token
	access.ExpiresAt = &expiresAt
	return access, nil
}

// MarkInvitationAsUsed moves an invitation from created to used
func (s *CompetitionService) MarkInvitationAsUsed(ctx context.Context, id uuid.UUID) error {
	inv, err := s.store.GetInvitation(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	return staleToTransition(s.store.MarkInvitationUsed(ctx, id, s.now()))
}

// ListInvitations returns the invitations of a competition
func (s *CompetitionService) ListInvitations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionInvitation, error) {
	return s.store.ListInvitations(ctx, competitionID)
}

// GetInvitation returns an invitation or ErrNotFound
func (s *CompetitionService) GetInvitation(ctx context.Context, id uuid.UUID) (*models.CompetitionInvitation, error) {
	inv, err := s.store.GetInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	return inv, nil
}

// DeleteInvitation removes an invitation
func (s *CompetitionService) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetInvitation(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteInvitation(ctx, id)
}

// Participations

// AnswerInput is one answer as sent by the participant. Score is only honoured
// within the question's points.
type AnswerInput struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	Score      *int      `json:"score,omitempty"`
}

// SubmitParticipationInput is a submitted paper
type SubmitParticipationInput struct {
	CompetitionID   uuid.UUID
	InvitationID    *uuid.UUID
	ParticipantName string
	ParticipantRIO  *string
	Answers         []AnswerInput
}

// SubmitParticipation grades the structure of a paper and stores it. Every
// question of the competition appears in the stored answers in order; points
// come from the questions, never from the client.
func (s *CompetitionService) SubmitParticipation(ctx context.Context, in SubmitParticipationInput) (*models.CompetitionParticipation, error) {
	comp, err := s.GetCompetition(ctx, in.CompetitionID)
	if err != nil {
		return nil, err
	}
	if !IsCompetitionActive(comp, s.now()) {
		return nil, ErrCompetitionClosed
	}

	name := strings.TrimSpace(in.ParticipantName)
	if comp.Type == models.CompetitionTypePrivate {
		inv, err := s.checkSubmissionInvitation(ctx, comp, in.InvitationID)
		if err != nil {
			return nil, err
		}
		name = inv.CandidateName
	} else {
		in.InvitationID = nil
	}
	if name == "" {
		return nil, invalid("participant_name", "is required")
	}

	questions, err := s.store.ListQuestions(ctx, comp.ID)
	if err != nil {
		return nil, err
	}
	answers, err := buildAnswers(questions, in.Answers)
	if err != nil {
		return nil, err
	}

	p := &models.CompetitionParticipation{
		CompetitionID:   comp.ID,
		InvitationID:    in.InvitationID,
		ParticipantName: name,
		ParticipantRIO:  in.ParticipantRIO,
		Answers:         answers,
		Status:          models.ParticipationStatusSubmitted,
	}
	p.RecomputeTotals()

	if err := s.store.CreateParticipation(ctx, p); err != nil {
		slog.Error("Failed to store participation", "competition_id", comp.ID, "error", err)
		return nil, err
	}

	s.notifier.Notify(notify.SubmissionReceived(comp.Title, name))
	return p, nil
}

func (s *CompetitionService) checkSubmissionInvitation(ctx context.Context, comp *models.Competition, invitationID *uuid.UUID) (*models.CompetitionInvitation, error) {
	if invitationID == nil {
		return nil, ErrForbidden
	}
	inv, err := s.store.GetInvitation(ctx, *invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.CompetitionID != comp.ID || inv.Status != models.InvitationStatusUsed {
		return nil, ErrForbidden
	}
	exists, err := s.store.ParticipationExistsForInvitation(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrInvalidTransition
	}
	return inv, nil
}

func buildAnswers(questions []models.CompetitionQuestion, inputs []AnswerInput) (models.Answers, error) {
	byID := make(map[uuid.UUID]AnswerInput, len(inputs))
	ve := &ValidationError{}
	for _, in := range inputs {
		known := slices.ContainsFunc(questions, func(q models.CompetitionQuestion) bool { return q.ID == in.QuestionID })
		if !known {
			ve.Add("answers", fmt.Sprintf("unknown question %s", in.QuestionID))
			continue
		}
		byID[in.QuestionID] = in
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	sorted := slices.Clone(questions)
	slices.SortStableFunc(sorted, func(a, b models.CompetitionQuestion) int { return a.OrderNumber - b.OrderNumber })

	answers := make(models.Answers, 0, len(sorted))
	for _, q := range sorted {
		in := byID[q.ID]
		a := models.Answer{QuestionID: q.ID, Answer: in.Answer}
		if q.Type != models.QuestionTypeSection {
			a.MaxScore = q.MaxPoints
			if in.Score != nil {
				a.Score = clamp(*in.Score, 0, q.MaxPoints)
			}
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// GetParticipation returns a participation or ErrNotFound
func (s *CompetitionService) GetParticipation(ctx context.Context, id uuid.UUID) (*models.CompetitionParticipation, error) {
	p, err := s.store.GetParticipation(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListParticipations returns the papers of a competition, best first
func (s *CompetitionService) ListParticipations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionParticipation, error) {
	return s.store.ListParticipations(ctx, competitionID)
}

// GradeParticipation applies reviewer scores keyed by question id and recomputes the totals
func (s *CompetitionService) GradeParticipation(
	ctx context.Context,
	id uuid.UUID,
	scores map[uuid.UUID]int,
	comment *string,
	actor models.Actor,
) (*models.CompetitionParticipation, error) {
	p, err := s.GetParticipation(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ParticipationStatusPromoted {
		return nil, ErrInvalidTransition
	}

	ve := &ValidationError{}
	for qid := range scores {
		if !slices.ContainsFunc(p.Answers, func(a models.Answer) bool { return a.QuestionID == qid }) {
			ve.Add("scores", fmt.Sprintf("unknown question %s", qid))
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	for i := range p.Answers {
		if score, ok := scores[p.Answers[i].QuestionID]; ok {
			p.Answers[i].Score = clamp(score, 0, p.Answers[i].MaxScore)
		}
	}
	p.RecomputeTotals()
	now := s.now()
	p.Comment = comment
	p.GradedBy = actor.UserID
	p.GradedAt = &now

	if err := s.store.SaveGrades(ctx, p); err != nil {
		return nil, staleToTransition(err)
	}

	title := p.CompetitionID.String()
	if comp, err := s.store.GetByID(ctx, p.CompetitionID); err == nil && comp != nil {
		title = comp.Title
	}
	s.notifier.Notify(notify.ResultGraded(title, p.ParticipantName, p.TotalScore, p.MaxPossibleScore))
	s.activity.Log(ctx, actor, models.ActivityParticipationGraded, models.Details{
		"participation_id": p.ID.String(),
		"total_score":      p.TotalScore,
		"max_score":        p.MaxPossibleScore,
	})
	return p, nil
}

// CreateCandidateFromCompetition promotes the paper of an entry test into a
// candidate. The promotion and the candidate insert happen atomically.
func (s *CompetitionService) CreateCandidateFromCompetition(ctx context.Context, participationID uuid.UUID, actor models.Actor) (*models.Candidate, error) {
	p, err := s.GetParticipation(ctx, participationID)
	if err != nil {
		return nil, err
	}
	comp, err := s.GetCompetition(ctx, p.CompetitionID)
	if err != nil {
		return nil, err
	}
	if !comp.IsEntryTest {
		return nil, ErrNotEntryTest
	}
	if p.Status == models.ParticipationStatusPromoted {
		return nil, ErrInvalidTransition
	}

	candidate := &models.Candidate{
		Name:     p.ParticipantName,
		ServerID: randomServerID(),
	}
	if err := s.store.PromoteParticipation(ctx, p.ID, candidate); err != nil {
		slog.Error("Failed to promote participation", "participation_id", p.ID, "error", err)
		return nil, staleToTransition(err)
	}

	s.notifier.Notify(notify.CandidateCreated(candidate.Name, comp.Title))
	s.activity.Log(ctx, actor, models.ActivityCandidatePromoted, models.Details{
		"participation_id": p.ID.String(),
		"candidate_id":     candidate.ID.String(),
		"competition":      comp.Title,
	})
	return candidate, nil
}

// randomServerID draws a 4-digit id; collisions are possible and tolerated
func randomServerID() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}
