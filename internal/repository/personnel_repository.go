package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

// PersonnelRepository handles agencies, agents and everything attached to an agent's file
type PersonnelRepository struct {
	db *sql.DB
}

// NewPersonnelRepository creates a new personnel repository
func NewPersonnelRepository(db *sql.DB) *PersonnelRepository {
	return &PersonnelRepository{db: db}
}

// Agencies, grades, specialties

// CreateAgency inserts an agency
func (r *PersonnelRepository) CreateAgency(ctx context.Context, a *models.Agency) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO agencies (name, abbreviation) VALUES ($1, $2) RETURNING id, created_at`,
		a.Name, a.Abbreviation,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agency: %w", err)
	}
	return nil
}

// GetAgency retrieves an agency; it returns nil when none exists
func (r *PersonnelRepository) GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	a := &models.Agency{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, abbreviation, created_at FROM agencies WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Abbreviation, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agency: %w", err)
	}
	return a, nil
}

// ListAgencies returns all agencies by name
func (r *PersonnelRepository) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, abbreviation, created_at FROM agencies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	defer rows.Close()

	agencies := []models.Agency{}
	for rows.Next() {
		var a models.Agency
		if err := rows.Scan(&a.ID, &a.Name, &a.Abbreviation, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

// DeleteAgency removes an agency with its grades and specialties
func (r *PersonnelRepository) DeleteAgency(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM agencies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete agency: %w", err)
	}
	return nil
}

// CreateGrade inserts a grade
func (r *PersonnelRepository) CreateGrade(ctx context.Context, g *models.Grade) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO grades (agency_id, name, rank_order) VALUES ($1, $2, $3) RETURNING id`,
		g.AgencyID, g.Name, g.RankOrder,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("failed to create grade: %w", err)
	}
	return nil
}

// GetGrade retrieves a grade; it returns nil when none exists
func (r *PersonnelRepository) GetGrade(ctx context.Context, id uuid.UUID) (*models.Grade, error) {
	g := &models.Grade{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agency_id, name, rank_order FROM grades WHERE id = $1`, id,
	).Scan(&g.ID, &g.AgencyID, &g.Name, &g.RankOrder)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	return g, nil
}

// ListGrades returns the grades of an agency by rank
func (r *PersonnelRepository) ListGrades(ctx context.Context, agencyID uuid.UUID) ([]models.Grade, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agency_id, name, rank_order FROM grades WHERE agency_id = $1 ORDER BY rank_order, name`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	defer rows.Close()

	grades := []models.Grade{}
	for rows.Next() {
		var g models.Grade
		if err := rows.Scan(&g.ID, &g.AgencyID, &g.Name, &g.RankOrder); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// DeleteGrade removes a grade
func (r *PersonnelRepository) DeleteGrade(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete grade: %w", err)
	}
	return nil
}

// CreateSpecialty inserts a specialty
func (r *PersonnelRepository) CreateSpecialty(ctx context.Context, s *models.Specialty) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO specialties (agency_id, name, description) VALUES ($1, $2, $3) RETURNING id`,
		s.AgencyID, s.Name, s.Description,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create specialty: %w", err)
	}
	return nil
}

// GetSpecialty retrieves a specialty; it returns nil when none exists
func (r *PersonnelRepository) GetSpecialty(ctx context.Context, id uuid.UUID) (*models.Specialty, error) {
	s := &models.Specialty{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agency_id, name, description FROM specialties WHERE id = $1`, id,
	).Scan(&s.ID, &s.AgencyID, &s.Name, &s.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get specialty: %w", err)
	}
	return s, nil
}

// ListSpecialties returns the specialties of an agency
func (r *PersonnelRepository) ListSpecialties(ctx context.Context, agencyID uuid.UUID) ([]models.Specialty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agency_id, name, description FROM specialties WHERE agency_id = $1 ORDER BY name`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	defer rows.Close()

	specialties := []models.Specialty{}
	for rows.Next() {
		var s models.Specialty
		if err := rows.Scan(&s.ID, &s.AgencyID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("failed to scan specialty: %w", err)
		}
		specialties = append(specialties, s)
	}
	return specialties, rows.Err()
}

// DeleteSpecialty removes a specialty
func (r *PersonnelRepository) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM specialties WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete specialty: %w", err)
	}
	return nil
}

// Agents

const agentColumns = `
	id, name, badge_number, agency_id, grade_id, status, email, phone, address,
	hire_date, candidate_id, created_at, updated_at`

func scanAgent(s rowScanner, a *models.PoliceAgent) error {
	return s.Scan(
		&a.ID,
		&a.Name,
		&a.BadgeNumber,
		&a.AgencyID,
		&a.GradeID,
		&a.Status,
		&a.Email,
		&a.Phone,
		&a.Address,
		&a.HireDate,
		&a.CandidateID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// CreateAgent inserts an agent
func (r *PersonnelRepository) CreateAgent(ctx context.Context, a *models.PoliceAgent) error {
	query := `
		INSERT INTO police_agents (name, badge_number, agency_id, grade_id, status, email, phone, address, hire_date, candidate_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.BadgeNumber, a.AgencyID, a.GradeID, a.Status, a.Email, a.Phone, a.Address, a.HireDate, a.CandidateID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent; it returns nil when none exists
func (r *PersonnelRepository) GetAgent(ctx context.Context, id uuid.UUID) (*models.PoliceAgent, error) {
	a := &models.PoliceAgent{}
	err := scanAgent(r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM police_agents WHERE id = $1`, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return a, nil
}

// ListAgents returns agents by name, optionally for one agency
func (r *PersonnelRepository) ListAgents(ctx context.Context, agencyID *uuid.UUID) ([]models.PoliceAgent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM police_agents
		WHERE ($1::uuid IS NULL OR agency_id = $1)
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []models.PoliceAgent{}
	for rows.Next() {
		var a models.PoliceAgent
		if err := scanAgent(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// UpdateAgent overwrites an agent
func (r *PersonnelRepository) UpdateAgent(ctx context.Context, a *models.PoliceAgent) error {
	query := `
		UPDATE police_agents
		SET name = $1, badge_number = $2, agency_id = $3, grade_id = $4, status = $5, email = $6,
		    phone = $7, address = $8, hire_date = $9, candidate_id = $10, updated_at = now()
		WHERE id = $11
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.BadgeNumber, a.AgencyID, a.GradeID, a.Status, a.Email, a.Phone, a.Address, a.HireDate, a.CandidateID, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return nil
}

// DeleteAgent removes an agent and their file
func (r *PersonnelRepository) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM police_agents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}

// Specialty assignment

// AssignSpecialty links an agent to a specialty; assigning twice is a no-op
func (r *PersonnelRepository) AssignSpecialty(ctx context.Context, as *models.AgentSpecialty) error {
	query := `
		INSERT INTO agent_specialties (agent_id, specialty_id, assigned_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (agent_id, specialty_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, as.AgentID, as.SpecialtyID, as.AssignedBy); err != nil {
		return fmt.Errorf("failed to assign specialty: %w", err)
	}
	return nil
}

// RemoveSpecialty unlinks an agent from a specialty
func (r *PersonnelRepository) RemoveSpecialty(ctx context.Context, agentID, specialtyID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM agent_specialties WHERE agent_id = $1 AND specialty_id = $2`, agentID, specialtyID)
	if err != nil {
		return fmt.Errorf("failed to remove specialty: %w", err)
	}
	return nil
}

// ListAgentSpecialties returns the specialties held by an agent
func (r *PersonnelRepository) ListAgentSpecialties(ctx context.Context, agentID uuid.UUID) ([]models.AgentSpecialty, error) {
	query := `
		SELECT a.agent_id, a.specialty_id, s.name, a.assigned_by, a.assigned_at
		FROM agent_specialties a
		JOIN specialties s ON s.id = a.specialty_id
		WHERE a.agent_id = $1
		ORDER BY s.name
	`
	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent specialties: %w", err)
	}
	defer rows.Close()

	specialties := []models.AgentSpecialty{}
	for rows.Next() {
		var as models.AgentSpecialty
		if err := rows.Scan(&as.AgentID, &as.SpecialtyID, &as.SpecialtyName, &as.AssignedBy, &as.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent specialty: %w", err)
		}
		specialties = append(specialties, as)
	}
	return specialties, rows.Err()
}

// Disciplinary records

// CreateDisciplinaryRecord inserts a disciplinary record
func (r *PersonnelRepository) CreateDisciplinaryRecord(ctx context.Context, d *models.DisciplinaryRecord) error {
	query := `
		INSERT INTO disciplinary_records (agent_id, type, date, reason, issued_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, d.AgentID, d.Type, d.Date, d.Reason, d.IssuedBy).Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("failed to create disciplinary record: %w", err)
	}
	return nil
}

// GetDisciplinaryRecord retrieves a record; it returns nil when none exists
func (r *PersonnelRepository) GetDisciplinaryRecord(ctx context.Context, id uuid.UUID) (*models.DisciplinaryRecord, error) {
	d := &models.DisciplinaryRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agent_id, type, date, reason, issued_by, created_at FROM disciplinary_records WHERE id = $1`, id,
	).Scan(&d.ID, &d.AgentID, &d.Type, &d.Date, &d.Reason, &d.IssuedBy, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disciplinary record: %w", err)
	}
	return d, nil
}

// ListDisciplinaryRecords returns an agent's records, most recent first
func (r *PersonnelRepository) ListDisciplinaryRecords(ctx context.Context, agentID uuid.UUID) ([]models.DisciplinaryRecord, error) {
	query := `
		SELECT id, agent_id, type, date, reason, issued_by, created_at
		FROM disciplinary_records
		WHERE agent_id = $1
		ORDER BY date DESC, created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disciplinary records: %w", err)
	}
	defer rows.Close()

	records := []models.DisciplinaryRecord{}
	for rows.Next() {
		var d models.DisciplinaryRecord
		if err := rows.Scan(&d.ID, &d.AgentID, &d.Type, &d.Date, &d.Reason, &d.IssuedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan disciplinary record: %w", err)
		}
		records = append(records, d)
	}
	return records, rows.Err()
}

// DeleteDisciplinaryRecord removes a record
func (r *PersonnelRepository) DeleteDisciplinaryRecord(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM disciplinary_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete disciplinary record: %w", err)
	}
	return nil
}

// Training records

// CreateTrainingRecord inserts a completed training
func (r *PersonnelRepository) CreateTrainingRecord(ctx context.Context, t *models.TrainingRecord) error {
	query := `
		INSERT INTO training_records (agent_id, title, completed_at, hours, instructor, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, t.AgentID, t.Title, t.CompletedAt, t.Hours, t.Instructor, t.Notes).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create training record: %w", err)
	}
	return nil
}

// GetTrainingRecord retrieves a training record; it returns nil when none exists
func (r *PersonnelRepository) GetTrainingRecord(ctx context.Context, id uuid.UUID) (*models.TrainingRecord, error) {
	t := &models.TrainingRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agent_id, title, completed_at, hours, instructor, notes, created_at FROM training_records WHERE id = $1`, id,
	).Scan(&t.ID, &t.AgentID, &t.Title, &t.CompletedAt, &t.Hours, &t.Instructor, &t.Notes, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training record: %w", err)
	}
	return t, nil
}

// ListTrainingRecords returns an agent's completed trainings, most recent first
func (r *PersonnelRepository) ListTrainingRecords(ctx context.Context, agentID uuid.UUID) ([]models.TrainingRecord, error) {
	query := `
		SELECT id, agent_id, title, completed_at, hours, instructor, notes, created_at
		FROM training_records
		WHERE agent_id = $1
		ORDER BY completed_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list training records: %w", err)
	}
	defer rows.Close()

	records := []models.TrainingRecord{}
	for rows.Next() {
		var t models.TrainingRecord
		if err := rows.Scan(&t.ID, &t.AgentID, &t.Title, &t.CompletedAt, &t.Hours, &t.Instructor, &t.Notes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan training record: %w", err)
		}
		records = append(records, t)
	}
	return records, rows.Err()
}

// DeleteTrainingRecord removes a training record
func (r *PersonnelRepository) DeleteTrainingRecord(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM training_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete training record: %w", err)
	}
	return nil
}
