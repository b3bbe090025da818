package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"academy-portal/internal/models"
)

// MaxActivityRows caps every activity log query
const MaxActivityRows = 200

// ActivityRepository handles the append-only activity log
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity log entry
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (type, author_email, role, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, entry.Type, entry.AuthorEmail, entry.Role, entry.Details).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// Query returns matching entries newest first, never more than MaxActivityRows
func (r *ActivityRepository) Query(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Since != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.Since))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type ILIKE "+arg(likePattern(filter.Type)))
	}
	if filter.Role != "" {
		conditions = append(conditions, "role = "+arg(filter.Role))
	}
	if filter.Search != "" {
		p := arg(likePattern(filter.Search))
		conditions = append(conditions, "(author_email ILIKE "+p+" OR type ILIKE "+p+")")
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxActivityRows {
		limit = MaxActivityRows
	}

	query := `SELECT id, type, author_email, role, details, created_at FROM activity_logs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT ` + arg(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityLog{}
	for rows.Next() {
		var e models.ActivityLog
		if err := rows.Scan(&e.ID, &e.Type, &e.AuthorEmail, &e.Role, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// likePattern wraps s for a substring ILIKE match, escaping wildcards
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
