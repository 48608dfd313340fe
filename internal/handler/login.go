package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/observability/metrics"
	"github.com/yourorg/dataplane/internal/service"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse contains the session token and the user profile
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// LoginHandler handles user authentication
type LoginHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(authService *service.AuthService, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{authService: authService, logger: logger}
}

// ServeHTTP handles POST /api/auth/login requests
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		apperror.Write(w, h.logger, apperror.BadRequest("invalid request"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.ObserveLogin("failure")
		apperror.Write(w, h.logger, err)
		return
	}

	metrics.ObserveLogin("success")
	writeJSON(w, http.StatusOK, LoginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}
