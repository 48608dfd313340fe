package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/internal/service"
)

// UsersHandler handles user management endpoints
type UsersHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(authService *service.AuthService, logger *slog.Logger) *UsersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsersHandler{authService: authService, logger: logger}
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	ClientID    *string     `json:"client_id"`
	Status      string      `json:"status"`
	AccessLevel string      `json:"access_level"`
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.Write(w, h.logger, apperror.BadRequest("invalid request"))
		return
	}

	user, err := h.authService.CreateUser(r.Context(), *principal, service.CreateUserParams{
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		TenantID:    req.ClientID,
		Status:      req.Status,
		AccessLevel: req.AccessLevel,
	})
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}

	h.logger.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("created_by", principal.ID),
	)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// CompanyUsers handles GET /api/company/users
func (h *UsersHandler) CompanyUsers(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}

	users, err := h.authService.ListUsers(r.Context(), *principal)
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// Me handles GET /api/users/me: it echoes the resolved principal.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}
	writeJSON(w, http.StatusOK, principal)
}
