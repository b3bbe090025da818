package models

import (
	"testing"
	"time"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestCompetition_IsOpen(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		comp Competition
		want bool
	}{
		{"inactive without dates", Competition{IsActive: false}, false},
		{"inactive inside window", Competition{IsActive: false, StartDate: ptrTime(yesterday), EndDate: ptrTime(tomorrow)}, false},
		{"active without dates", Competition{IsActive: true}, true},
		{"active inside window", Competition{IsActive: true, StartDate: ptrTime(yesterday), EndDate: ptrTime(tomorrow)}, true},
		{"not started yet", Competition{IsActive: true, StartDate: ptrTime(tomorrow)}, false},
		{"already ended", Competition{IsActive: true, EndDate: ptrTime(yesterday)}, false},
		{"starts exactly now", Competition{IsActive: true, StartDate: ptrTime(now)}, true},
		{"ends exactly now", Competition{IsActive: true, EndDate: ptrTime(now)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.comp.IsOpen(now); got != tt.want {
				t.Errorf("IsOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompetition_IsOpen_InactiveNeverOpen(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for offset := -48; offset <= 48; offset += 6 {
		now := base.Add(time.Duration(offset) * time.Hour)
		c := Competition{IsActive: false, StartDate: ptrTime(base.Add(-24 * time.Hour)), EndDate: ptrTime(base.Add(24 * time.Hour))}
		if c.IsOpen(now) {
			t.Fatalf("inactive competition reported open at %v", now)
		}
	}
}

func TestCompetition_IsOpen_WindowBounds(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	c := Competition{IsActive: true, StartDate: &start, EndDate: &end}

	for minutes := -120; minutes <= 14*60; minutes += 30 {
		now := start.Add(time.Duration(minutes) * time.Minute)
		want := !now.Before(start) && !now.After(end)
		if got := c.IsOpen(now); got != want {
			t.Errorf("IsOpen(%v) = %v, want %v", now, got, want)
		}
	}
}

func TestCompetitionParticipation_RecomputeTotals(t *testing.T) {
	p := CompetitionParticipation{
		TotalScore:       999,
		MaxPossibleScore: 1,
		Answers: Answers{
			{Answer: "B", Score: 4, MaxScore: 5},
			{Answer: "", Score: 0, MaxScore: 0},
			{Answer: "essay", Score: 7, MaxScore: 10},
		},
	}

	p.RecomputeTotals()

	if p.TotalScore != 11 {
		t.Errorf("TotalScore = %d, want 11", p.TotalScore)
	}
	if p.MaxPossibleScore != 15 {
		t.Errorf("MaxPossibleScore = %d, want 15", p.MaxPossibleScore)
	}
}

func TestTypeValidity(t *testing.T) {
	if !CompetitionTypePrivate.Valid() || CompetitionType("secret").Valid() {
		t.Error("CompetitionType.Valid mismatch")
	}
	if !QuestionTypeSection.Valid() || QuestionType("essay").Valid() {
		t.Error("QuestionType.Valid mismatch")
	}
	if !ApplicationStatusReviewing.Valid() || ApplicationStatus("archived").Valid() {
		t.Error("ApplicationStatus.Valid mismatch")
	}
	if !AgentStatusTraining.Valid() || AgentStatus("deceased").Valid() {
		t.Error("AgentStatus.Valid mismatch")
	}
	if !DisciplinaryTermination.Valid() || DisciplinaryType("fine").Valid() {
		t.Error("DisciplinaryType.Valid mismatch")
	}
}
