package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"academy-portal/internal/database"
	"academy-portal/internal/models"
)

// ApplicationRepository handles recruitment forms and submitted applications
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Forms

const formColumns = `id, name, description, fields, is_active, created_by, created_at, updated_at`

func scanForm(s rowScanner, f *models.ApplicationForm) error {
	return s.Scan(&f.ID, &f.Name, &f.Description, &f.Fields, &f.IsActive, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
}

// CreateForm inserts a form definition
func (r *ApplicationRepository) CreateForm(ctx context.Context, f *models.ApplicationForm) error {
	query := `
		INSERT INTO application_forms (name, description, fields, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, f.Name, f.Description, f.Fields, f.IsActive, f.CreatedBy).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}
	return nil
}

// GetForm retrieves a form; it returns nil when none exists
func (r *ApplicationRepository) GetForm(ctx context.Context, id uuid.UUID) (*models.ApplicationForm, error) {
	f := &models.ApplicationForm{}
	err := scanForm(r.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM application_forms WHERE id = $1`, id), f)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return f, nil
}

// ListForms returns forms newest first
func (r *ApplicationRepository) ListForms(ctx context.Context, onlyActive bool) ([]models.ApplicationForm, error) {
	query := `
		SELECT ` + formColumns + `
		FROM application_forms
		WHERE (NOT $1 OR is_active)
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	forms := []models.ApplicationForm{}
	for rows.Next() {
		var f models.ApplicationForm
		if err := scanForm(rows, &f); err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// UpdateForm overwrites a form definition
func (r *ApplicationRepository) UpdateForm(ctx context.Context, f *models.ApplicationForm) error {
	query := `
		UPDATE application_forms
		SET name = $1, description = $2, fields = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, f.Name, f.Description, f.Fields, f.IsActive, f.ID).Scan(&f.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	return nil
}

// DeleteForm removes a form and its applications
func (r *ApplicationRepository) DeleteForm(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM application_forms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	return nil
}

// Applications

const applicationColumns = `
	id, form_id, applicant_name, server_id, responses, status, total_score, max_possible_score,
	reviewer_comment, reviewed_by, reviewed_at, candidate_id, created_at, updated_at`

func scanApplication(s rowScanner, a *models.Application) error {
	return s.Scan(
		&a.ID,
		&a.FormID,
		&a.ApplicantName,
		&a.ServerID,
		&a.Responses,
		&a.Status,
		&a.TotalScore,
		&a.MaxPossibleScore,
		&a.ReviewerComment,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.CandidateID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// Create inserts a submitted application
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	query := `
		INSERT INTO applications (form_id, applicant_name, server_id, responses, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, a.FormID, a.ApplicantName, a.ServerID, a.Responses, a.Status).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID retrieves an application; it returns nil when none exists
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	a := &models.Application{}
	err := scanApplication(r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// List returns applications newest first, optionally narrowed by form and status
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	var conditions []string
	var args []any

	if filter.FormID != nil {
		args = append(args, *filter.FormID)
		conditions = append(conditions, fmt.Sprintf("form_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	applications := []models.Application{}
	for rows.Next() {
		var a models.Application
		if err := scanApplication(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, a)
	}
	return applications, rows.Err()
}

// CountByStatus counts applications in the given status
func (r *ApplicationRepository) CountByStatus(ctx context.Context, status models.ApplicationStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

func saveReview(ctx context.Context, q queryer, a *models.Application, from models.ApplicationStatus) error {
	query := `
		UPDATE applications
		SET responses = $1, status = $2, total_score = $3, max_possible_score = $4,
		    reviewer_comment = $5, reviewed_by = $6, reviewed_at = $7, candidate_id = $8, updated_at = now()
		WHERE id = $9 AND status = $10
		RETURNING updated_at
	`
	err := q.QueryRowContext(ctx, query,
		a.Responses, a.Status, a.TotalScore, a.MaxPossibleScore,
		a.ReviewerComment, a.ReviewedBy, a.ReviewedAt, a.CandidateID, a.ID, from,
	).Scan(&a.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrStaleState
	}
	if err != nil {
		return fmt.Errorf("failed to update application review: %w", err)
	}
	return nil
}

// UpdateReview stores a review if the application is still in status from
func (r *ApplicationRepository) UpdateReview(ctx context.Context, a *models.Application, from models.ApplicationStatus) error {
	return saveReview(ctx, r.db, a, from)
}

// Accept stores the accepting review and creates the candidate in one transaction
func (r *ApplicationRepository) Accept(ctx context.Context, a *models.Application, from models.ApplicationStatus, candidate *models.Candidate) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		candidate.SourceApplicationID = &a.ID
		if err := insertCandidate(ctx, tx, candidate); err != nil {
			return err
		}
		a.CandidateID = &candidate.ID
		return saveReview(ctx, tx, a, from)
	})
}

// Delete removes an application
func (r *ApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}
