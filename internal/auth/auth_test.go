package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/config"
)

func newTestService(expiration time.Duration) *Service {
	return NewService(&config.JWTConfig{
		Secret:              "test-secret",
		Expiration:          expiration,
		CandidateExpiration: time.Hour,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := newTestService(time.Hour)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == "" || hash == password {
		t.Fatalf("Hash should be non-empty and differ from the password, got %q", hash)
	}

	if err := svc.VerifyPassword(hash, password); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestStaffToken(t *testing.T) {
	svc := newTestService(time.Hour)
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateStaffToken(userID, "instructor@academy.test", []string{"instructor"})
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("Expected expiry in the future, got %v", expiresAt)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Kind != KindStaff {
		t.Errorf("Expected kind %q, got %q", KindStaff, claims.Kind)
	}
	if id, _ := claims.SubjectID(); id != userID {
		t.Errorf("Expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Email != "instructor@academy.test" {
		t.Errorf("Unexpected email %q", claims.Email)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "instructor" {
		t.Errorf("Unexpected roles %v", claims.Roles)
	}
}

func TestCandidateToken(t *testing.T) {
	svc := newTestService(time.Hour)
	invitationID, competitionID := uuid.New(), uuid.New()

	token, _, err := svc.GenerateCandidateToken(invitationID, competitionID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Kind != KindCandidate {
		t.Errorf("Expected kind %q, got %q", KindCandidate, claims.Kind)
	}
	if claims.Subject != invitationID.String() {
		t.Errorf("Expected subject %s, got %s", invitationID, claims.Subject)
	}
	if claims.CompetitionID != competitionID.String() {
		t.Errorf("Expected competition %s, got %s", competitionID, claims.CompetitionID)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(-1 * time.Hour)

	token, _, err := svc.GenerateStaffToken(uuid.New(), "test@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenFromOtherKey(t *testing.T) {
	token, _, err := newTestService(time.Hour).GenerateStaffToken(uuid.New(), "test@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := newTestService(time.Hour).ValidateToken(token); err == nil {
		t.Error("Token signed by another key should be rejected")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token1, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate random token: %v", err)
	}
	token2, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate second random token: %v", err)
	}
	if token1 == "" || token1 == token2 {
		t.Error("Random tokens should be non-empty and different")
	}
}
