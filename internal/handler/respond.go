package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yourorg/dataplane/internal/domain"
)

// writeJSON renders v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// UserResponse is the client-safe projection of a user account.
type UserResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	ClientID    *string     `json:"client_id"`
	Status      string      `json:"status"`
	AccessLevel string      `json:"access_level"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		ClientID:    u.TenantID,
		Status:      u.Status,
		AccessLevel: u.AccessLevel,
	}
}
