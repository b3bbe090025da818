package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"academy-portal/internal/models"
	"academy-portal/internal/pdfexport"
	"academy-portal/internal/service"
)

// UserManager administers staff accounts
type UserManager interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.UserWithRoles, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateUser(ctx context.Context, in service.NewUserInput) (*models.UserWithRoles, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	AssignRole(ctx context.Context, id uuid.UUID, role string) error
	RemoveRole(ctx context.Context, id uuid.UUID, role string) error
}

// UserHandler handles user management requests
type UserHandler struct {
	users UserManager
	pdf   *pdfexport.Renderer
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserManager, pdf *pdfexport.Renderer) *UserHandler {
	return &UserHandler{users: users, pdf: pdf}
}

// ListUsers lists all staff accounts
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// GetUser returns one account with its roles
// @Summary Get user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserWithRoles
// @Failure 404 {object} map[string]string "Not found"
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// CreateUser creates a staff account
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.NewUserInput true "New account"
// @Success 201 {object} models.UserWithRoles
// @Failure 400 {object} validationResponse
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.NewUserInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.CreateUser(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// UpdateActiveRequest toggles an account
type UpdateActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// UpdateUserActiveStatus activates or deactivates an account
// @Summary Update user status
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateActiveRequest true "Status"
// @Success 204
// @Failure 409 {object} map[string]string "Last active admin"
// @Router /admin/users/{id}/active [patch]
func (h *UserHandler) UpdateUserActiveStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.SetActive(r.Context(), id, req.IsActive); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RoleRequest names a role
type RoleRequest struct {
	Role string `json:"role"`
}

// AssignRole grants a role
// @Summary Assign role
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body RoleRequest true "Role"
// @Success 204
// @Router /admin/users/{id}/roles [post]
func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.AssignRole(r.Context(), id, req.Role); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRole revokes a role
// @Summary Remove role
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param role path string true "Role name"
// @Success 204
// @Failure 409 {object} map[string]string "Last active admin"
// @Router /admin/users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.RemoveRole(r.Context(), id, r.PathValue("role")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRoles lists the available roles
// @Summary List roles
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Role
// @Router /admin/roles [get]
func (h *UserHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.users.ListRoles(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, roles)
}

// ExportUserSheet downloads the account fact sheet
// @Summary Account fact sheet
// @Tags Admin
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {file} file
// @Router /admin/users/{id}/sheet.pdf [get]
func (h *UserHandler) ExportUserSheet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	data, err := h.pdf.UserSheet(user)
	respondWithPDF(w, r, pdfexport.Filename(user.FullName(), pdfexport.SuffixAccount), data, err)
}
