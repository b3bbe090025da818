package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/models"
	"academy-portal/internal/repository"
	"academy-portal/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrLastAdmin          = errors.New("at least one active admin is required")
)

// UserStore persists staff accounts and their roles
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error
	RemoveRole(ctx context.Context, userID uuid.UUID, roleName string) error
	ListRoles(ctx context.Context) ([]models.Role, error)
	CountActiveByRole(ctx context.Context, roleName string) (int, error)
}

// Credentials hashes passwords and signs staff tokens
type Credentials interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) error
	GenerateStaffToken(userID uuid.UUID, email string, roles []string) (string, time.Time, error)
}

// LoginResult is returned on a successful staff login
type LoginResult struct {
	AccessToken string                `json:"access_token"`
	ExpiresAt   time.Time             `json:"expires_at"`
	User        *models.UserWithRoles `json:"user"`
}

// AuthService handles staff authentication and account management
type AuthService struct {
	users UserStore
	creds Credentials
	now   func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users UserStore, creds Credentials) *AuthService {
	return &AuthService{users: users, creds: creds, now: time.Now}
}

// Login authenticates a staff member and returns an access token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, validator.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.creds.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	withRoles, err := s.withRoles(ctx, user)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.creds.GenerateStaffToken(user.ID, user.Email, withRoles.RoleNames())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		slog.Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}

	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: withRoles}, nil
}

func (s *AuthService) withRoles(ctx context.Context, user *models.User) (*models.UserWithRoles, error) {
	roles, err := s.users.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.UserWithRoles{User: *user, Roles: roles}, nil
}

// GetUser returns a staff account with its roles
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.UserWithRoles, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.withRoles(ctx, user)
}

// ListUsers returns every staff account
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// ListRoles returns the known roles
func (s *AuthService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.users.ListRoles(ctx)
}

// NewUserInput describes a staff account to create
type NewUserInput struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required"`
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name" validate:"required,max=100"`
	Roles     []string `json:"roles" validate:"required"`
}

var knownRoles = []string{models.RoleAdmin, models.RoleInstructor, models.RoleReviewer}

// CreateUser creates an active staff account with the given roles
func (s *AuthService) CreateUser(ctx context.Context, in NewUserInput) (*models.UserWithRoles, error) {
	in.Email = validator.SanitizeEmail(in.Email)
	if err := validator.ValidateStruct(&in); err != nil {
		return nil, fromValidator(err)
	}
	if err := validator.ValidatePassword(in.Password); err != nil {
		return nil, invalid("password", strings.TrimPrefix(err.Error(), "password "))
	}
	for _, r := range in.Roles {
		if !contains(knownRoles, r) {
			return nil, invalid("roles", "unknown role "+r)
		}
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, invalid("email", "is already registered")
		}
		return nil, err
	}
	for _, r := range in.Roles {
		if err := s.users.AssignRole(ctx, user.ID, r); err != nil {
			return nil, err
		}
	}
	return s.withRoles(ctx, user)
}

func hasRole(roles []models.Role, name string) bool {
	for _, r := range roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// guardLastAdmin refuses to strip admin rights from the only active admin
func (s *AuthService) guardLastAdmin(ctx context.Context, user *models.UserWithRoles) error {
	if !user.IsActive || !hasRole(user.Roles, models.RoleAdmin) {
		return nil
	}
	n, err := s.users.CountActiveByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// SetActive enables or disables a staff account
func (s *AuthService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !active {
		if err := s.guardLastAdmin(ctx, user); err != nil {
			return err
		}
	}
	return s.users.UpdateActive(ctx, id, active)
}

// AssignRole grants a role to a staff account
func (s *AuthService) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	if !contains(knownRoles, role) {
		return invalid("role", "unknown role "+role)
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	return s.users.AssignRole(ctx, id, role)
}

// RemoveRole revokes a role from a staff account
func (s *AuthService) RemoveRole(ctx context.Context, id uuid.UUID, role string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if role == models.RoleAdmin {
		if err := s.guardLastAdmin(ctx, user); err != nil {
			return err
		}
	}
	return s.users.RemoveRole(ctx, id, role)
}
