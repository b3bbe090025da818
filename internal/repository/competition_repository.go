package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"academy-portal/internal/database"
	"academy-portal/internal/models"
)

// CompetitionRepository handles competitions, their questions, invitations and participations
type CompetitionRepository struct {
	db *sql.DB
}

// NewCompetitionRepository creates a new competition repository
func NewCompetitionRepository(db *sql.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

const competitionColumns = `
	id, title, description, type, specialty, max_score, is_active, is_entry_test,
	start_date, end_date, created_by, created_at, updated_at`

func scanCompetition(s rowScanner, c *models.Competition) error {
	return s.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Type,
		&c.Specialty,
		&c.MaxScore,
		&c.IsActive,
		&c.IsEntryTest,
		&c.StartDate,
		&c.EndDate,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Create inserts a new competition
func (r *CompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions (title, description, type, specialty, max_score, is_active,
		                          is_entry_test, start_date, end_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.Title,
		c.Description,
		c.Type,
		c.Specialty,
		c.MaxScore,
		c.IsActive,
		c.IsEntryTest,
		c.StartDate,
		c.EndDate,
		c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}
	return nil
}

// GetByID retrieves a competition; it returns nil when none exists
func (r *CompetitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`

	c := &models.Competition{}
	err := scanCompetition(r.db.QueryRowContext(ctx, query, id), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	return c, nil
}

// List returns competitions newest first
func (r *CompetitionRepository) List(ctx context.Context, includePrivate, onlyActive bool) ([]models.Competition, error) {
	query := `
		SELECT ` + competitionColumns + `
		FROM competitions
		WHERE ($1 OR type <> 'private')
		  AND (NOT $2 OR is_active)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, includePrivate, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	defer rows.Close()

	competitions := []models.Competition{}
	for rows.Next() {
		var c models.Competition
		if err := scanCompetition(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		competitions = append(competitions, c)
	}
	return competitions, rows.Err()
}

// Update overwrites the editable fields of a competition
func (r *CompetitionRepository) Update(ctx context.Context, c *models.Competition) error {
	query := `
		UPDATE competitions
		SET title = $1, description = $2, type = $3, specialty = $4, max_score = $5,
		    is_active = $6, is_entry_test = $7, start_date = $8, end_date = $9, updated_at = now()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.Title, c.Description, c.Type, c.Specialty, c.MaxScore,
		c.IsActive, c.IsEntryTest, c.StartDate, c.EndDate, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update competition: %w", err)
	}
	return nil
}

// Delete removes a competition together with its questions, invitations and participations
func (r *CompetitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM competitions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}
	return nil
}

// DeactivateExpired switches off active competitions whose end date is before now
func (r *CompetitionRepository) DeactivateExpired(ctx context.Context, now time.Time) ([]models.Competition, error) {
	query := `
		UPDATE competitions
		SET is_active = FALSE, updated_at = now()
		WHERE is_active AND end_date IS NOT NULL AND end_date < $1
		RETURNING ` + competitionColumns

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate expired competitions: %w", err)
	}
	defer rows.Close()

	var closed []models.Competition
	for rows.Next() {
		var c models.Competition
		if err := scanCompetition(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		closed = append(closed, c)
	}
	return closed, rows.Err()
}

// Questions

const questionColumns = `id, competition_id, question, type, options, correct_answer, max_points, order_number, created_at`

func scanQuestion(s rowScanner, q *models.CompetitionQuestion) error {
	return s.Scan(
		&q.ID,
		&q.CompetitionID,
		&q.Question,
		&q.Type,
		pq.Array(&q.Options),
		&q.CorrectAnswer,
		&q.MaxPoints,
		&q.OrderNumber,
		&q.CreatedAt,
	)
}

// CreateQuestion inserts a question
func (r *CompetitionRepository) CreateQuestion(ctx context.Context, q *models.CompetitionQuestion) error {
	query := `
		INSERT INTO competition_questions (competition_id, question, type, options, correct_answer, max_points, order_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		q.CompetitionID, q.Question, q.Type, stringArray(q.Options), q.CorrectAnswer, q.MaxPoints, q.OrderNumber,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetQuestion retrieves a question; it returns nil when none exists
func (r *CompetitionRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*models.CompetitionQuestion, error) {
	q := &models.CompetitionQuestion{}
	err := scanQuestion(r.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM competition_questions WHERE id = $1`, id), q)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// ListQuestions returns the questions of a competition in answer order
func (r *CompetitionRepository) ListQuestions(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionQuestion, error) {
	query := `
		SELECT ` + questionColumns + `
		FROM competition_questions
		WHERE competition_id = $1
		ORDER BY order_number, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []models.CompetitionQuestion{}
	for rows.Next() {
		var q models.CompetitionQuestion
		if err := scanQuestion(rows, &q); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateQuestion overwrites a question
func (r *CompetitionRepository) UpdateQuestion(ctx context.Context, q *models.CompetitionQuestion) error {
	query := `
		UPDATE competition_questions
		SET question = $1, type = $2, options = $3, correct_answer = $4, max_points = $5, order_number = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		q.Question, q.Type, stringArray(q.Options), q.CorrectAnswer, q.MaxPoints, q.OrderNumber, q.ID)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return nil
}

// DeleteQuestion removes a question
func (r *CompetitionRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM competition_questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

// Invitations

const invitationColumns = `
	i.id, i.competition_id, i.candidate_name, i.candidate_email, i.login_identifier,
	i.login_password, i.status, i.created_at, i.used_at`

func scanInvitation(s rowScanner, inv *models.CompetitionInvitation, extra ...any) error {
	dest := []any{
		&inv.ID,
		&inv.CompetitionID,
		&inv.CandidateName,
		&inv.CandidateEmail,
		&inv.LoginIdentifier,
		&inv.LoginPassword,
		&inv.Status,
		&inv.CreatedAt,
		&inv.UsedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

// GenerateCredentials asks the database for a fresh unique identifier and password
func (r *CompetitionRepository) GenerateCredentials(ctx context.Context) (identifier, password string, err error) {
	if err := r.db.QueryRowContext(ctx, `SELECT generate_unique_login_identifier()`).Scan(&identifier); err != nil {
		return "", "", fmt.Errorf("failed to generate login identifier: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT generate_secure_password()`).Scan(&password); err != nil {
		return "", "", fmt.Errorf("failed to generate password: %w", err)
	}
	return identifier, password, nil
}

// CreateInvitation inserts one invitation in the created state
func (r *CompetitionRepository) CreateInvitation(ctx context.Context, inv *models.CompetitionInvitation) error {
	query := `
		INSERT INTO competition_invitations (competition_id, candidate_name, candidate_email, login_identifier, login_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		inv.CompetitionID, inv.CandidateName, inv.CandidateEmail, inv.LoginIdentifier, inv.LoginPassword,
	).Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation; it returns nil when none exists
func (r *CompetitionRepository) GetInvitation(ctx context.Context, id uuid.UUID) (*models.CompetitionInvitation, error) {
	inv := &models.CompetitionInvitation{}
	err := scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM competition_invitations i WHERE i.id = $1`, id), inv)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListInvitations returns the invitations of a competition by candidate name
func (r *CompetitionRepository) ListInvitations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM competition_invitations i
		WHERE i.competition_id = $1
		ORDER BY i.candidate_name, i.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.CompetitionInvitation{}
	for rows.Next() {
		var inv models.CompetitionInvitation
		if err := scanInvitation(rows, &inv); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// DeleteInvitation removes an invitation
func (r *CompetitionRepository) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM competition_invitations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return nil
}

// ClaimInvitation looks up an unused invitation by its credentials and marks it used
// in the same transaction. check runs against the locked competition before the claim;
// if it fails the invitation stays unused. It returns nil, nil when no unused
// invitation matches.
func (r *CompetitionRepository) ClaimInvitation(
	ctx context.Context,
	identifier, password string,
	now time.Time,
	check func(*models.Competition) error,
) (*models.PrivateCompetitionAccess, error) {
	var access *models.PrivateCompetitionAccess

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			SELECT ` + invitationColumns + `, ` + prefixed("c", competitionColumns) + `
			FROM competition_invitations i
			JOIN competitions c ON c.id = i.competition_id
			WHERE i.login_identifier = $1 AND i.login_password = $2 AND i.status = 'created'
			FOR UPDATE OF i
		`

		var inv models.CompetitionInvitation
		var comp models.Competition
		err := scanInvitation(tx.QueryRowContext(ctx, query, identifier, password), &inv,
			&comp.ID, &comp.Title, &comp.Description, &comp.Type, &comp.Specialty, &comp.MaxScore,
			&comp.IsActive, &comp.IsEntryTest, &comp.StartDate, &comp.EndDate, &comp.CreatedBy,
			&comp.CreatedAt, &comp.UpdatedAt,
		)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up invitation: %w", err)
		}

		if err := check(&comp); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE competition_invitations SET status = 'used', used_at = $1 WHERE id = $2 AND status = 'created'`,
			now, inv.ID)
		if err != nil {
			return fmt.Errorf("failed to claim invitation: %w", err)
		}
		if ok, err := affected(res); err != nil || !ok {
			return err
		}

		inv.Status = models.InvitationStatusUsed
		inv.UsedAt = &now
		access = &models.PrivateCompetitionAccess{Invitation: inv, Competition: comp}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return access, nil
}

// MarkInvitationUsed moves an invitation from created to used. It returns
// ErrStaleState when the invitation is missing or already used.
func (r *CompetitionRepository) MarkInvitationUsed(ctx context.Context, id uuid.UUID, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE competition_invitations SET status = 'used', used_at = $1 WHERE id = $2 AND status = 'created'`,
		now, id)
	if err != nil {
		return fmt.Errorf("failed to mark invitation as used: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to mark invitation as used: %w", err)
	}
	if !ok {
		return ErrStaleState
	}
	return nil
}

// Participations

const participationColumns = `
	id, competition_id, invitation_id, participant_name, participant_rio, answers,
	total_score, max_possible_score, comment, status, graded_by, graded_at, submitted_at`

func scanParticipation(s rowScanner, p *models.CompetitionParticipation) error {
	return s.Scan(
		&p.ID,
		&p.CompetitionID,
		&p.InvitationID,
		&p.ParticipantName,
		&p.ParticipantRIO,
		&p.Answers,
		&p.TotalScore,
		&p.MaxPossibleScore,
		&p.Comment,
		&p.Status,
		&p.GradedBy,
		&p.GradedAt,
		&p.SubmittedAt,
	)
}

// CreateParticipation inserts a submitted paper
func (r *CompetitionRepository) CreateParticipation(ctx context.Context, p *models.CompetitionParticipation) error {
	query := `
		INSERT INTO competition_participations (competition_id, invitation_id, participant_name, participant_rio,
		                                        answers, total_score, max_possible_score, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, submitted_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.CompetitionID, p.InvitationID, p.ParticipantName, p.ParticipantRIO,
		p.Answers, p.TotalScore, p.MaxPossibleScore, p.Comment, p.Status,
	).Scan(&p.ID, &p.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

// GetParticipation retrieves a participation; it returns nil when none exists
func (r *CompetitionRepository) GetParticipation(ctx context.Context, id uuid.UUID) (*models.CompetitionParticipation, error) {
	p := &models.CompetitionParticipation{}
	err := scanParticipation(r.db.QueryRowContext(ctx,
		`SELECT `+participationColumns+` FROM competition_participations WHERE id = $1`, id), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

// ParticipationExistsForInvitation reports whether a paper was already submitted with the invitation
func (r *CompetitionRepository) ParticipationExistsForInvitation(ctx context.Context, invitationID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM competition_participations WHERE invitation_id = $1)`, invitationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return exists, nil
}

// ListParticipations returns the participations of a competition, best score first
func (r *CompetitionRepository) ListParticipations(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionParticipation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM competition_participations
		WHERE competition_id = $1
		ORDER BY total_score DESC, submitted_at
	`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	participations := []models.CompetitionParticipation{}
	for rows.Next() {
		var p models.CompetitionParticipation
		if err := scanParticipation(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, p)
	}
	return participations, rows.Err()
}

// SaveGrades stores reviewer scores. Promoted participations are frozen and yield ErrStaleState.
func (r *CompetitionRepository) SaveGrades(ctx context.Context, p *models.CompetitionParticipation) error {
	query := `
		UPDATE competition_participations
		SET answers = $1, total_score = $2, max_possible_score = $3, comment = $4,
		    status = 'graded', graded_by = $5, graded_at = $6
		WHERE id = $7 AND status IN ('submitted', 'graded')
	`
	res, err := r.db.ExecContext(ctx, query,
		p.Answers, p.TotalScore, p.MaxPossibleScore, p.Comment, p.GradedBy, p.GradedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to save grades: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to save grades: %w", err)
	}
	if !ok {
		return ErrStaleState
	}
	p.Status = models.ParticipationStatusGraded
	return nil
}

// PromoteParticipation marks the participation promoted and inserts the derived
// candidate in one transaction. It returns ErrStaleState if it was already promoted.
func (r *CompetitionRepository) PromoteParticipation(ctx context.Context, participationID uuid.UUID, candidate *models.Candidate) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE competition_participations SET status = 'promoted' WHERE id = $1 AND status <> 'promoted'`,
			participationID)
		if err != nil {
			return fmt.Errorf("failed to promote participation: %w", err)
		}
		ok, err := affected(res)
		if err != nil {
			return fmt.Errorf("failed to promote participation: %w", err)
		}
		if !ok {
			return ErrStaleState
		}

		candidate.SourceParticipationID = &participationID
		return insertCandidate(ctx, tx, candidate)
	})
}

// prefixed qualifies a comma separated column list with a table alias
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, col := range parts {
		parts[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(parts, ", ")
}
