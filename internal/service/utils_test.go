package service

import "testing"

func TestPercentage(t *testing.T) {
	tests := []struct {
		name       string
		score, max float64
		want       int
	}{
		{"zero max yields zero", 5, 0, 0},
		{"rounds half up", 8, 15, 53},
		{"full score", 20, 20, 100},
		{"one third", 1, 3, 33},
		{"two thirds", 2, 3, 67},
		{"nothing scored", 0, 40, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.score, tt.max); got != tt.want {
				t.Errorf("Percentage(%v, %v) = %d, want %d", tt.score, tt.max, got, tt.want)
			}
		})
	}
}

func TestPercentageMatchesRoundedRatio(t *testing.T) {
	for max := 1; max <= 60; max++ {
		for score := 0; score <= max; score++ {
			got := Percentage(float64(score), float64(max))
			// integer form of round(score*100/max) with halves rounded up
			want := (score*200 + max) / (2 * max)
			if got != want {
				t.Fatalf("Percentage(%d, %d) = %d, want %d", score, max, got, want)
			}
		}
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(12, 0, 10); got != 10 {
		t.Errorf("clamp above = %d", got)
	}
	if got := clamp(-3, 0, 10); got != 0 {
		t.Errorf("clamp below = %d", got)
	}
	if got := clamp(4.5, 0, 5); got != 4.5 {
		t.Errorf("clamp inside = %v", got)
	}
}

func TestSameAnswer(t *testing.T) {
	if !sameAnswer("  Miranda Rights ", "miranda rights") {
		t.Error("expected case-insensitive trimmed match")
	}
	if sameAnswer("B", "C") {
		t.Error("different answers must not match")
	}
}
