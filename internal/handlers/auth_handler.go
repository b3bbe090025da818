package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/middleware"
	"academy-portal/internal/models"
	"academy-portal/internal/service"
	"academy-portal/pkg/validator"
)

// StaffAuthenticator logs staff members in
type StaffAuthenticator interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.UserWithRoles, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService StaffAuthenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService StaffAuthenticator) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles staff login
// @Summary Staff login
// @Description Authenticate a staff member and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 403 {object} map[string]string "Account inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = validator.SanitizeEmail(req.Email)
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("Failed login attempt", "email", req.Email, "remote_ip", middleware.ClientIP(r, nil))
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Me returns the authenticated staff member
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserWithRoles
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
