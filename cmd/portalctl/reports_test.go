package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"academy-portal/internal/database"
	"academy-portal/internal/models"
)

func init() {
	color.NoColor = true
}

func TestRenderInvitationsMasksPasswords(t *testing.T) {
	used := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	invitations := []models.CompetitionInvitation{
		{ID: uuid.New(), CandidateName: "Jean Valjean", LoginIdentifier: "CAND-AAAA", LoginPassword: "fresh-pass", Status: models.InvitationStatusCreated},
		{ID: uuid.New(), CandidateName: "Javert", LoginIdentifier: "CAND-BBBB", LoginPassword: "spent-pass", Status: models.InvitationStatusUsed, UsedAt: &used},
	}

	tests := []struct {
		name          string
		showPasswords bool
		visible       []string
		hidden        []string
	}{
		{"masked by default", false, nil, []string{"fresh-pass", "spent-pass"}},
		{"unused passwords on request", true, []string{"fresh-pass"}, []string{"spent-pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderInvitations(&buf, invitations, tt.showPasswords)
			out := buf.String()
			for _, s := range tt.visible {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.hidden {
				if strings.Contains(out, s) {
					t.Errorf("output leaks %q:\n%s", s, out)
				}
			}
			if !strings.Contains(out, "1/2 used") {
				t.Errorf("missing usage summary:\n%s", out)
			}
		})
	}
}

func TestRenderMigrationStatus(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	var buf bytes.Buffer
	renderMigrationStatus(&buf, []database.MigrationStatus{
		{Version: "001", Title: "initial schema", Applied: true, AppliedAt: &at},
		{Version: "002", Title: "training modules"},
		{Version: "003", Title: "competitions"},
	})

	out := buf.String()
	if !strings.Contains(out, "initial schema") || !strings.Contains(out, "2 pending migration(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRenderCompetitionsStatus(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	var buf bytes.Buffer
	renderCompetitions(&buf, []models.Competition{
		{ID: uuid.New(), Title: "Open", Type: models.CompetitionTypeExternal, IsActive: true},
		{ID: uuid.New(), Title: "Lapsed", Type: models.CompetitionTypeExternal, IsActive: true, EndDate: &past},
		{ID: uuid.New(), Title: "Archived", Type: models.CompetitionTypePrivate},
	}, now)

	out := buf.String()
	for _, want := range []string{"open", "outside window", "closed", "private"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "status"},
		{"migrate", "rollback"},
		{"competitions", "list"},
		{"invitations", "list"},
		{"activity", "list"},
		{"activity", "export"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered: %v", path, err)
		}
	}
}
