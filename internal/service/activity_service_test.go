package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"academy-portal/internal/models"
)

type fakeActivityStore struct {
	created []*models.ActivityLog
	filter  models.ActivityFilter
	failErr error
}

func (f *fakeActivityStore) Create(_ context.Context, entry *models.ActivityLog) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, entry)
	return nil
}

func (f *fakeActivityStore) Query(_ context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	f.filter = filter
	return []models.ActivityLog{}, nil
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		in      string
		want    *time.Time
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "all", want: nil},
		{in: "24h", want: ptr(fixedNow.Add(-24 * time.Hour))},
		{in: "7d", want: ptr(fixedNow.AddDate(0, 0, -7))},
		{in: "30d", want: ptr(fixedNow.AddDate(0, 0, -30))},
		{in: "2025-01-01T00:00:00Z", want: ptr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))},
		{in: " 2025-03-01T00:00:00Z ", want: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))},
		{in: " 7d", want: ptr(fixedNow.AddDate(0, 0, -7))},
		{in: "last week", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSince(tt.in, fixedNow)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ParseSince(%q) = %v, want nil", tt.in, *got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("ParseSince(%q) = %v, want %v", tt.in, got, *tt.want)
			}
		})
	}
}

func TestActivityQueryFilter(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store)
	svc.now = clock

	_, err := svc.Query(context.Background(), ActivityQuery{Range: "7d", Type: " agent ", Role: "admin", Search: "jane", Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	f := store.filter
	if f.Since == nil || !f.Since.Equal(fixedNow.AddDate(0, 0, -7)) {
		t.Errorf("since = %v", f.Since)
	}
	if f.Type != "agent" || f.Role != "admin" || f.Search != "jane" || f.Limit != 50 {
		t.Errorf("filter = %+v", f)
	}
}

func TestActivityLogSwallowsErrors(t *testing.T) {
	store := &fakeActivityStore{failErr: errors.New("db down")}
	svc := NewActivityService(store)

	svc.Log(context.Background(), adminActor, models.ActivityTrainingAdded, nil)

	store.failErr = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Log(ctx, adminActor, models.ActivityTrainingAdded, models.Details{"k": "v"})
	if len(store.created) != 1 || store.created[0].AuthorEmail != adminActor.Email {
		t.Errorf("created = %+v", store.created)
	}
}

func TestExportCSV(t *testing.T) {
	rows := []models.ActivityLog{
		{
			Type:        models.ActivityDisciplinaryCreated,
			AuthorEmail: "admin@academy.test",
			Role:        "admin",
			Details:     models.Details{"type": "warning"},
			CreatedAt:   time.Date(2025, 3, 14, 11, 0, 0, 0, time.FixedZone("CET", 3600)),
		},
		{Type: "x", CreatedAt: fixedNow},
	}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "created_at,type,author_email,role,details" {
		t.Errorf("header = %q", lines[0])
	}
	if want := `2025-03-14T10:00:00Z,agent.disciplinary_created,admin@academy.test,admin,"{""type"":""warning""}"`; lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
	if !strings.HasSuffix(lines[2], ",{}") {
		t.Errorf("empty details row = %q", lines[2])
	}

	buf.Reset()
	if err := ExportCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "created_at,type,author_email,role,details\n" {
		t.Errorf("empty export = %q", buf.String())
	}
}
