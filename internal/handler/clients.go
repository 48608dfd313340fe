package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/security"
	"github.com/yourorg/dataplane/internal/security/audit"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/pkg/cache"
)

// Result caps for the two search surfaces.
const (
	searchLimit       = 10
	publicSearchLimit = 5
	publicSearchTTL   = 60 * time.Second
)

// ClientsHandler handles tenant (client) endpoints
type ClientsHandler struct {
	tenantRepo  domain.TenantRepository
	policy      *security.Policy
	audit       *audit.Logger
	searchCache *cache.Cache[[]domain.TenantOption]
	logger      *slog.Logger
}

// NewClientsHandler creates a new clients handler
func NewClientsHandler(tenantRepo domain.TenantRepository, policy *security.Policy, auditLog *audit.Logger, logger *slog.Logger) *ClientsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientsHandler{
		tenantRepo:  tenantRepo,
		policy:      policy,
		audit:       auditLog,
		searchCache: cache.New[[]domain.TenantOption](),
		logger:      logger,
	}
}

// CreateClientRequest represents a tenant creation request
type CreateClientRequest struct {
	Name                 string            `json:"name"`
	ClientType           domain.TenantType `json:"client_type"`
	ContractDurationDays *int              `json:"contract_duration_days"`
}

// ClientResponse represents a tenant
type ClientResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ClientType        domain.TenantType `json:"client_type"`
	ContractExpiresAt *time.Time        `json:"contract_expires_at"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Create handles POST /api/clients. Tenants are created only by root.
// Natural persons require a contract duration; the expiry timestamp is
// computed from it. Companies have no contract expiry.
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}
	if err := h.policy.Authorize(*principal, security.ActionCreateTenant); err != nil {
		apperror.Write(w, h.logger, err)
		return
	}

	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.Write(w, h.logger, apperror.BadRequest("invalid request"))
		return
	}
	if req.Name == "" {
		apperror.Write(w, h.logger, apperror.BadRequest("name is required"))
		return
	}
	if !req.ClientType.Valid() {
		apperror.Write(w, h.logger, apperror.BadRequest("unknown client type"))
		return
	}

	var contractExpiresAt *time.Time
	if req.ClientType == domain.TenantNaturalPerson {
		if req.ContractDurationDays == nil {
			apperror.Write(w, h.logger, apperror.BadRequest("contract duration is required for natural persons"))
			return
		}
		expiry := time.Now().AddDate(0, 0, *req.ContractDurationDays)
		contractExpiresAt = &expiry
	}

	tenant := &domain.Tenant{
		Name:              req.Name,
		Type:              req.ClientType,
		ContractExpiresAt: contractExpiresAt,
	}
	if err := h.tenantRepo.Create(tenant); err != nil {
		apperror.Write(w, h.logger, apperror.Storage(err))
		return
	}

	h.audit.LogTenantCreated(r.Context(), principal.ID, tenant.ID)
	writeJSON(w, http.StatusCreated, ClientResponse{
		ID:                tenant.ID,
		Name:              tenant.Name,
		ClientType:        tenant.Type,
		ContractExpiresAt: tenant.ContractExpiresAt,
		CreatedAt:         tenant.CreatedAt,
	})
}

// Search handles GET /api/clients/search. Root only; company admins cannot
// search even within their own tenant.
func (h *ClientsHandler) Search(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}
	if err := h.policy.Authorize(*principal, security.ActionSearchTenants); err != nil {
		apperror.Write(w, h.logger, err)
		return
	}

	results, err := h.tenantRepo.Search(r.URL.Query().Get("q"), searchLimit)
	if err != nil {
		apperror.Write(w, h.logger, apperror.Storage(err))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// PublicSearch handles GET /api/public/clients/search: an unauthenticated
// reduced surface (id+name pairs, hard cap) used by the login autocomplete.
func (h *ClientsHandler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	if cached, ok := h.searchCache.Get(query); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	results, err := h.tenantRepo.Search(query, publicSearchLimit)
	if err != nil {
		apperror.Write(w, h.logger, apperror.Storage(err))
		return
	}

	h.searchCache.Set(query, results, publicSearchTTL)
	writeJSON(w, http.StatusOK, results)
}
