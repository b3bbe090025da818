package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"academy-portal/internal/database"
	"academy-portal/internal/models"
)

// TrainingRepository handles candidates, training modules and their scores
type TrainingRepository struct {
	db *sql.DB
}

// NewTrainingRepository creates a new training repository
func NewTrainingRepository(db *sql.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

// Candidates

const candidateColumns = `
	id, name, server_id, class_ids, is_certified, certification_date, certified_by,
	source_participation_id, source_application_id, created_at, updated_at`

func scanCandidate(s rowScanner, c *models.Candidate) error {
	return s.Scan(
		&c.ID,
		&c.Name,
		&c.ServerID,
		pq.Array(&c.ClassIDs),
		&c.IsCertified,
		&c.CertificationDate,
		&c.CertifiedBy,
		&c.SourceParticipationID,
		&c.SourceApplicationID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func insertCandidate(ctx context.Context, q queryer, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (name, server_id, class_ids, source_participation_id, source_application_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_certified, created_at, updated_at
	`
	err := q.QueryRowContext(ctx, query,
		c.Name, c.ServerID, stringArray(c.ClassIDs), c.SourceParticipationID, c.SourceApplicationID,
	).Scan(&c.ID, &c.IsCertified, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// CreateCandidate inserts a candidate
func (r *TrainingRepository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	return insertCandidate(ctx, r.db, c)
}

// GetCandidate retrieves a candidate; it returns nil when none exists
func (r *TrainingRepository) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c := &models.Candidate{}
	err := scanCandidate(r.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns all candidates by name
func (r *TrainingRepository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := scanCandidate(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// UpdateCandidate overwrites the name, server id and classes of a candidate
func (r *TrainingRepository) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	query := `
		UPDATE candidates SET name = $1, server_id = $2, class_ids = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, c.Name, c.ServerID, stringArray(c.ClassIDs), c.ID).Scan(&c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	return nil
}

// CertifyCandidate flags a candidate as certified
func (r *TrainingRepository) CertifyCandidate(ctx context.Context, id uuid.UUID, certifiedBy *uuid.UUID, at time.Time) error {
	query := `
		UPDATE candidates
		SET is_certified = TRUE, certification_date = $1, certified_by = $2, updated_at = now()
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, at, certifiedBy, id); err != nil {
		return fmt.Errorf("failed to certify candidate: %w", err)
	}
	return nil
}

// DeleteCandidate removes a candidate and its scores
func (r *TrainingRepository) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return nil
}

// Modules

func scanSubModule(s rowScanner, sm *models.SubModule) error {
	return s.Scan(
		&sm.ID,
		&sm.ModuleID,
		&sm.Name,
		&sm.OrderNumber,
		&sm.MaxScore,
		&sm.IsOptional,
		&sm.Appreciation,
		&sm.CreatedAt,
	)
}

const subModuleColumns = `id, module_id, name, order_number, max_score, is_optional, appreciation, created_at`

func insertSubModule(ctx context.Context, q queryer, sm *models.SubModule) error {
	query := `
		INSERT INTO sub_modules (module_id, name, order_number, max_score, is_optional, appreciation)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := q.QueryRowContext(ctx, query,
		sm.ModuleID, sm.Name, sm.OrderNumber, sm.MaxScore, sm.IsOptional, sm.Appreciation,
	).Scan(&sm.ID, &sm.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sub-module: %w", err)
	}
	return nil
}

// CreateModule inserts a module together with its sub-modules
func (r *TrainingRepository) CreateModule(ctx context.Context, m *models.Module) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO modules (name, description, order_number, instructor_in_charge)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, query,
			m.Name, m.Description, m.OrderNumber, m.InstructorInCharge,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}

		for i := range m.SubModules {
			m.SubModules[i].ModuleID = m.ID
			if err := insertSubModule(ctx, tx, &m.SubModules[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetModule retrieves a module with its sub-modules; it returns nil when none exists
func (r *TrainingRepository) GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error) {
	m := &models.Module{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, order_number, instructor_in_charge, created_at, updated_at
		FROM modules WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.OrderNumber, &m.InstructorInCharge, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	m.SubModules, err = r.ListSubModules(ctx, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListModules returns all modules in order, each with its ordered sub-modules
func (r *TrainingRepository) ListModules(ctx context.Context) ([]models.Module, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, order_number, instructor_in_charge, created_at, updated_at
		FROM modules
		ORDER BY order_number, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	modules := []models.Module{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.OrderNumber, &m.InstructorInCharge, &m.CreatedAt, &m.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		m.SubModules = []models.SubModule{}
		index[m.ID] = len(modules)
		modules = append(modules, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := r.db.QueryContext(ctx,
		`SELECT `+subModuleColumns+` FROM sub_modules ORDER BY order_number, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-modules: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var sm models.SubModule
		if err := scanSubModule(subRows, &sm); err != nil {
			return nil, fmt.Errorf("failed to scan sub-module: %w", err)
		}
		if i, ok := index[sm.ModuleID]; ok {
			modules[i].SubModules = append(modules[i].SubModules, sm)
		}
	}
	return modules, subRows.Err()
}

// UpdateModule overwrites the module fields; sub-modules are edited separately
func (r *TrainingRepository) UpdateModule(ctx context.Context, m *models.Module) error {
	query := `
		UPDATE modules
		SET name = $1, description = $2, order_number = $3, instructor_in_charge = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, m.Name, m.Description, m.OrderNumber, m.InstructorInCharge, m.ID).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	return nil
}

// DeleteModule removes a module; its sub-modules go with it
func (r *TrainingRepository) DeleteModule(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return nil
}

// CreateSubModule inserts a sub-module into an existing module
func (r *TrainingRepository) CreateSubModule(ctx context.Context, sm *models.SubModule) error {
	return insertSubModule(ctx, r.db, sm)
}

// GetSubModule retrieves a sub-module; it returns nil when none exists
func (r *TrainingRepository) GetSubModule(ctx context.Context, id uuid.UUID) (*models.SubModule, error) {
	sm := &models.SubModule{}
	err := scanSubModule(r.db.QueryRowContext(ctx,
		`SELECT `+subModuleColumns+` FROM sub_modules WHERE id = $1`, id), sm)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-module: %w", err)
	}
	return sm, nil
}

// ListSubModules returns the ordered sub-modules of a module
func (r *TrainingRepository) ListSubModules(ctx context.Context, moduleID uuid.UUID) ([]models.SubModule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subModuleColumns+` FROM sub_modules WHERE module_id = $1 ORDER BY order_number, name`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-modules: %w", err)
	}
	defer rows.Close()

	subModules := []models.SubModule{}
	for rows.Next() {
		var sm models.SubModule
		if err := scanSubModule(rows, &sm); err != nil {
			return nil, fmt.Errorf("failed to scan sub-module: %w", err)
		}
		subModules = append(subModules, sm)
	}
	return subModules, rows.Err()
}

// UpdateSubModule overwrites a sub-module
func (r *TrainingRepository) UpdateSubModule(ctx context.Context, sm *models.SubModule) error {
	query := `
		UPDATE sub_modules
		SET name = $1, order_number = $2, max_score = $3, is_optional = $4, appreciation = $5
		WHERE id = $6
	`
	if _, err := r.db.ExecContext(ctx, query, sm.Name, sm.OrderNumber, sm.MaxScore, sm.IsOptional, sm.Appreciation, sm.ID); err != nil {
		return fmt.Errorf("failed to update sub-module: %w", err)
	}
	return nil
}

// DeleteSubModule removes a sub-module
func (r *TrainingRepository) DeleteSubModule(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sub_modules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete sub-module: %w", err)
	}
	return nil
}

// Scores

// UpsertScore records the single score of a candidate on a sub-module
func (r *TrainingRepository) UpsertScore(ctx context.Context, s *models.SubModuleScore) error {
	query := `
		INSERT INTO sub_module_scores (candidate_id, sub_module_id, score, max_score, comment, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (candidate_id, sub_module_id) DO UPDATE
		SET score = EXCLUDED.score, max_score = EXCLUDED.max_score, comment = EXCLUDED.comment,
		    recorded_by = EXCLUDED.recorded_by, updated_at = now()
		RETURNING id, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.CandidateID, s.SubModuleID, s.Score, s.MaxScore, s.Comment, s.RecordedBy,
	).Scan(&s.ID, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	return nil
}

// ListScores returns all sub-module scores of a candidate
func (r *TrainingRepository) ListScores(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleScore, error) {
	query := `
		SELECT id, candidate_id, sub_module_id, score, max_score, comment, recorded_by, updated_at
		FROM sub_module_scores
		WHERE candidate_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	scores := []models.SubModuleScore{}
	for rows.Next() {
		var s models.SubModuleScore
		if err := rows.Scan(&s.ID, &s.CandidateID, &s.SubModuleID, &s.Score, &s.MaxScore, &s.Comment, &s.RecordedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// Appreciations

// UpsertAppreciation stores the current appreciation of a candidate on a sub-module
func (r *TrainingRepository) UpsertAppreciation(ctx context.Context, a *models.SubModuleAppreciation) error {
	query := `
		INSERT INTO sub_module_appreciations (candidate_id, sub_module_id, appreciation, instructor_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (candidate_id, sub_module_id) DO UPDATE
		SET appreciation = EXCLUDED.appreciation, instructor_id = EXCLUDED.instructor_id, updated_at = now()
		RETURNING id, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, a.CandidateID, a.SubModuleID, a.Appreciation, a.InstructorID).Scan(&a.ID, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save appreciation: %w", err)
	}
	return nil
}

// ListAppreciations returns the appreciations of a candidate
func (r *TrainingRepository) ListAppreciations(ctx context.Context, candidateID uuid.UUID) ([]models.SubModuleAppreciation, error) {
	query := `
		SELECT id, candidate_id, sub_module_id, appreciation, instructor_id, updated_at
		FROM sub_module_appreciations
		WHERE candidate_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appreciations: %w", err)
	}
	defer rows.Close()

	appreciations := []models.SubModuleAppreciation{}
	for rows.Next() {
		var a models.SubModuleAppreciation
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.SubModuleID, &a.Appreciation, &a.InstructorID, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan appreciation: %w", err)
		}
		appreciations = append(appreciations, a)
	}
	return appreciations, rows.Err()
}

// GetAppreciation retrieves an appreciation by ID
func (r *TrainingRepository) GetAppreciation(ctx context.Context, id uuid.UUID) (*models.SubModuleAppreciation, error) {
	query := `
		SELECT id, candidate_id, sub_module_id, appreciation, instructor_id, updated_at
		FROM sub_module_appreciations
		WHERE id = $1
	`
	var a models.SubModuleAppreciation
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.CandidateID, &a.SubModuleID, &a.Appreciation, &a.InstructorID, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appreciation: %w", err)
	}
	return &a, nil
}

// DeleteAppreciation removes an appreciation
func (r *TrainingRepository) DeleteAppreciation(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sub_module_appreciations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete appreciation: %w", err)
	}
	return nil
}
