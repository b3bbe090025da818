package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"academy-portal/internal/models"
	"academy-portal/internal/testutil"
)

func setupDB(t *testing.T) *CompetitionRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	return NewCompetitionRepository(testutil.SetupPostgres(t))
}

func createCompetition(t *testing.T, repo *CompetitionRepository, c *models.Competition) *models.Competition {
	t.Helper()
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return c
}

func TestClaimInvitation(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	comp := createCompetition(t, repo, &models.Competition{
		Title: "Brigade cynophile", Type: models.CompetitionTypePrivate, MaxScore: 20, IsActive: true,
	})

	identifier, password, err := repo.GenerateCredentials(ctx)
	if err != nil {
		t.Fatalf("GenerateCredentials() error = %v", err)
	}
	if identifier == "" || len(password) < 8 {
		t.Fatalf("weak credentials: %q / %q", identifier, password)
	}

	inv := &models.CompetitionInvitation{
		CompetitionID: comp.ID, CandidateName: "Jean Valjean",
		LoginIdentifier: identifier, LoginPassword: password,
	}
	if err := repo.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}
	if inv.Status != models.InvitationStatusCreated {
		t.Fatalf("status = %q, want created", inv.Status)
	}

	t.Run("wrong password", func(t *testing.T) {
		access, err := repo.ClaimInvitation(ctx, identifier, "nope", now, func(*models.Competition) error { return nil })
		if err != nil || access != nil {
			t.Errorf("ClaimInvitation() = %v, %v; want nil, nil", access, err)
		}
	})

	t.Run("failed check leaves invitation unused", func(t *testing.T) {
		closed := errors.New("closed")
		_, err := repo.ClaimInvitation(ctx, identifier, password, now, func(*models.Competition) error { return closed })
		if !errors.Is(err, closed) {
			t.Fatalf("error = %v, want %v", err, closed)
		}
		got, err := repo.GetInvitation(ctx, inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != models.InvitationStatusCreated || got.UsedAt != nil {
			t.Errorf("invitation consumed: %+v", got)
		}
	})

	t.Run("claim", func(t *testing.T) {
		access, err := repo.ClaimInvitation(ctx, identifier, password, now, func(c *models.Competition) error {
			if c.ID != comp.ID {
				t.Errorf("check got competition %s", c.ID)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ClaimInvitation() error = %v", err)
		}
		if access == nil || access.Competition.ID != comp.ID || access.Invitation.Status != models.InvitationStatusUsed {
			t.Fatalf("unexpected access: %+v", access)
		}
	})

	t.Run("second claim is rejected", func(t *testing.T) {
		access, err := repo.ClaimInvitation(ctx, identifier, password, now, func(*models.Competition) error { return nil })
		if err != nil || access != nil {
			t.Errorf("ClaimInvitation() = %v, %v; want nil, nil", access, err)
		}
		if err := repo.MarkInvitationUsed(ctx, inv.ID, now); !errors.Is(err, ErrStaleState) {
			t.Errorf("MarkInvitationUsed() error = %v, want ErrStaleState", err)
		}
	})
}

func TestListHidesPrivateCompetitions(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	createCompetition(t, repo, &models.Competition{Title: "Gardien de la paix", Type: models.CompetitionTypeExternal, IsActive: true})
	createCompetition(t, repo, &models.Competition{Title: "Brigade cynophile", Type: models.CompetitionTypePrivate, IsActive: true})
	createCompetition(t, repo, &models.Competition{Title: "Archive 2019", Type: models.CompetitionTypeInternal})

	tests := []struct {
		name           string
		includePrivate bool
		onlyActive     bool
		want           int
	}{
		{"public active", false, true, 1},
		{"public all", false, false, 2},
		{"staff active", true, true, 2},
		{"staff all", true, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(ctx, tt.includePrivate, tt.onlyActive)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != tt.want {
				t.Errorf("got %d competitions, want %d", len(list), tt.want)
			}
		})
	}
}

func TestDeactivateExpired(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	expired := createCompetition(t, repo, &models.Competition{Title: "Expired", Type: models.CompetitionTypeExternal, IsActive: true, EndDate: &past})
	createCompetition(t, repo, &models.Competition{Title: "Running", Type: models.CompetitionTypeExternal, IsActive: true, EndDate: &future})
	createCompetition(t, repo, &models.Competition{Title: "Open ended", Type: models.CompetitionTypeExternal, IsActive: true})

	closed, err := repo.DeactivateExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeactivateExpired() error = %v", err)
	}
	if len(closed) != 1 || closed[0].ID != expired.ID || closed[0].IsActive {
		t.Fatalf("unexpected closed set: %+v", closed)
	}

	again, err := repo.DeactivateExpired(ctx, now)
	if err != nil || len(again) != 0 {
		t.Errorf("second run closed %d competitions, err = %v", len(again), err)
	}
}

func TestModuleDeletionCascades(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := testutil.SetupPostgres(t)
	repo := NewTrainingRepository(db)
	ctx := context.Background()

	m := &models.Module{
		Name:        "Procédure pénale",
		OrderNumber: 1,
		SubModules: []models.SubModule{
			{Name: "Garde à vue", OrderNumber: 1, MaxScore: 20},
			{Name: "Perquisition", OrderNumber: 2, MaxScore: 10, IsOptional: true},
		},
	}
	if err := repo.CreateModule(ctx, m); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}

	candidate := &models.Candidate{Name: "Élodie Martin", ServerID: "S-101"}
	if err := repo.CreateCandidate(ctx, candidate); err != nil {
		t.Fatalf("CreateCandidate() error = %v", err)
	}

	score := &models.SubModuleScore{CandidateID: candidate.ID, SubModuleID: m.SubModules[0].ID, Score: 12, MaxScore: 20}
	if err := repo.UpsertScore(ctx, score); err != nil {
		t.Fatalf("UpsertScore() error = %v", err)
	}
	score.Score = 16
	if err := repo.UpsertScore(ctx, score); err != nil {
		t.Fatalf("UpsertScore() update error = %v", err)
	}

	scores, err := repo.ListScores(ctx, candidate.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 || scores[0].Score != 16 {
		t.Fatalf("expected a single updated score, got %+v", scores)
	}

	if err := repo.DeleteModule(ctx, m.ID); err != nil {
		t.Fatalf("DeleteModule() error = %v", err)
	}

	subs, err := repo.ListSubModules(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Errorf("%d sub-modules survived their module", len(subs))
	}
	scores, err = repo.ListScores(ctx, candidate.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 0 {
		t.Errorf("%d scores survived their sub-module", len(scores))
	}
}

func TestActivityQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repo := NewActivityRepository(testutil.SetupPostgres(t))
	ctx := context.Background()

	for _, e := range []models.ActivityLog{
		{Type: models.ActivityCandidateCertified, AuthorEmail: "chief@academy.test", Role: models.RoleAdmin, Details: models.Details{"candidate": "A"}},
		{Type: models.ActivityScoreRecorded, AuthorEmail: "coach@academy.test", Role: models.RoleInstructor},
		{Type: models.ActivityApplicationReviewed, AuthorEmail: "hr_team@academy.test", Role: models.RoleReviewer},
	} {
		if err := repo.Create(ctx, &e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.ActivityFilter
		want   int
	}{
		{"everything", models.ActivityFilter{}, 3},
		{"type substring", models.ActivityFilter{Type: "CANDIDATE"}, 2},
		{"role", models.ActivityFilter{Role: models.RoleReviewer}, 1},
		{"search email", models.ActivityFilter{Search: "coach"}, 1},
		{"underscore is literal", models.ActivityFilter{Search: "hr_"}, 1},
		{"percent is literal", models.ActivityFilter{Search: "%"}, 0},
		{"limit", models.ActivityFilter{Limit: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Query(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}
