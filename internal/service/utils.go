package service

import (
	"math"
	"slices"
	"strings"
)

// Percentage returns round(score / max × 100), or 0 when max is not positive
func Percentage(score, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(score * 100 / max))
}

func clamp[T int | float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

// sameAnswer compares answers ignoring case and surrounding blanks
func sameAnswer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
