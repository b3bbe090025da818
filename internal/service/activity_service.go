package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"academy-portal/internal/models"
)

// ActivityStore persists activity log entries
type ActivityStore interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	Query(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error)
}

// ActivityLogger is the write side used by the other services
type ActivityLogger interface {
	Log(ctx context.Context, actor models.Actor, activityType string, details models.Details)
}

// ActivityService handles the activity log
type ActivityService struct {
	store ActivityStore
	now   func() time.Time
}

// NewActivityService creates a new activity service
func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store, now: time.Now}
}

// Log appends an entry. Failures are logged and never reach the caller.
func (s *ActivityService) Log(ctx context.Context, actor models.Actor, activityType string, details models.Details) {
	entry := &models.ActivityLog{
		Type:        activityType,
		AuthorEmail: actor.Email,
		Role:        actor.Role,
		Details:     details,
	}
	if err := s.store.Create(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("Failed to write activity log", "type", activityType, "error", err)
	}
}

// ActivityQuery is the raw viewer filter. Range is one of 24h, 7d, 30d, all
// or an RFC 3339 timestamp.
type ActivityQuery struct {
	Range  string
	Type   string
	Role   string
	Search string
	Limit  int
}

// Query returns matching entries newest first
func (s *ActivityService) Query(ctx context.Context, q ActivityQuery) ([]models.ActivityLog, error) {
	since, err := ParseSince(q.Range, s.now())
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, models.ActivityFilter{
		Since:  since,
		Type:   strings.TrimSpace(q.Type),
		Role:   strings.TrimSpace(q.Role),
		Search: strings.TrimSpace(q.Search),
		Limit:  q.Limit,
	})
}

// ParseSince turns a range selector into a cutoff; "all" and "" mean no cutoff
func ParseSince(r string, now time.Time) (*time.Time, error) {
	var cutoff time.Time
	r = strings.TrimSpace(r)
	switch r {
	case "", "all":
		return nil, nil
	case "24h":
		cutoff = now.Add(-24 * time.Hour)
	case "7d":
		cutoff = now.AddDate(0, 0, -7)
	case "30d":
		cutoff = now.AddDate(0, 0, -30)
	default:
		t, err := time.Parse(time.RFC3339, r)
		if err != nil {
			return nil, invalid("range", "must be 24h, 7d, 30d, all or an RFC 3339 time")
		}
		cutoff = t
	}
	return &cutoff, nil
}

var activityCSVHeader = []string{"created_at", "type", "author_email", "role", "details"}

// ExportCSV writes already-fetched rows as CSV
func ExportCSV(w io.Writer, rows []models.ActivityLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(activityCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		details := "{}"
		if len(row.Details) > 0 {
			b, err := json.Marshal(row.Details)
			if err != nil {
				return fmt.Errorf("failed to encode activity details: %w", err)
			}
			details = string(b)
		}
		record := []string{
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.Type,
			row.AuthorEmail,
			row.Role,
			details,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
