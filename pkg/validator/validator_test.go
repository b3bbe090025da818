package validator

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateStruct(t *testing.T) {
	type agentInput struct {
		Name        string  `json:"name" validate:"required,max=100"`
		BadgeNumber string  `json:"badge_number" validate:"required"`
		Status      string  `json:"status" validate:"oneof=active inactive suspended retired training"`
		Email       *string `json:"email" validate:"email"`
		Phone       *string `json:"phone" validate:"max=20"`
		Password    string  `validate:"min=8"`
	}

	email := func(s string) *string { return &s }
	valid := agentInput{Name: "Sam Carter", BadgeNumber: "B-1042", Status: "active", Email: email("sam.carter@academy.test")}

	tests := []struct {
		name    string
		mutate  func(*agentInput)
		wantErr string
	}{
		{name: "valid struct", mutate: func(*agentInput) {}},
		{name: "missing required field", mutate: func(a *agentInput) { a.Name = "  " }, wantErr: "name is required"},
		{name: "missing badge", mutate: func(a *agentInput) { a.BadgeNumber = "" }, wantErr: "badge_number is required"},
		{name: "invalid email", mutate: func(a *agentInput) { a.Email = email("invalid-email") }, wantErr: "email must be a valid email"},
		{name: "nil optional email", mutate: func(a *agentInput) { a.Email = nil }},
		{name: "phone too long", mutate: func(a *agentInput) { a.Phone = email(strings.Repeat("5", 21)) }, wantErr: "phone must be at most 20 characters"},
		{name: "unknown status", mutate: func(a *agentInput) { a.Status = "on-leave" }, wantErr: "status must be one of"},
		{name: "empty optional enum", mutate: func(a *agentInput) { a.Status = "" }},
		{name: "password too short", mutate: func(a *agentInput) { a.Password = "short" }, wantErr: "Password must be at least 8 characters"},
		{name: "max counts characters", mutate: func(a *agentInput) { a.Name = strings.Repeat("é", 100) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			err := ValidateStruct(&input)

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateStruct() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNotFuture(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		ok   bool
	}{
		{"yesterday", now.AddDate(0, 0, -1), true},
		{"earlier today", now.Add(-time.Hour), true},
		{"later today", time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC), true},
		{"tomorrow", now.AddDate(0, 0, 1), false},
		{"next year", now.AddDate(1, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotFuture(tt.date, now)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrFutureDate) {
				t.Errorf("expected ErrFutureDate, got %v", err)
			}
			if err != nil && err.Error() != "date cannot be in the future" {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"test@example.com", true},
		{"user.name@example.co.uk", true},
		{"invalid-email", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
		{"user@example", false},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidateEmail(%q) = %v, expected %v", tt.email, isValid, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		expected bool
	}{
		{"password123", true},
		{"12345678", true},
		{"short", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidatePassword(%q) = %v, expected %v", tt.password, isValid, tt.expected)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		field    string
		value    string
		expected bool
	}{
		{"name", "John", true},
		{"name", "", false},
		{"name", "   ", false},
	}

	for _, tt := range tests {
		err := ValidateRequired(tt.field, tt.value)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidateRequired(%q, %q) = %v, expected %v", tt.field, tt.value, isValid, tt.expected)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  test  ", "test"},
		{"test\x00string", "teststring"},
		{"normal", "normal"},
	}

	for _, tt := range tests {
		result := SanitizeString(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeString(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Test@Example.com", "test@example.com"},
		{"  USER@EXAMPLE.COM  ", "user@example.com"},
	}

	for _, tt := range tests {
		result := SanitizeEmail(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeEmail(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
