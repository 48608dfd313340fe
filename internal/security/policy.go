// Package security holds the central authorization decision surface.
// Every protected action is gated here, in a fixed order: role eligibility,
// tenant-scope resolution (with forced bindings), then the access-level gate
// where one applies. Denials always carry a human-readable reason; the
// policy never silently downgrades an action.
package security

import (
	"log/slog"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
)

// Action enumerates the operations the policy arbitrates.
type Action string

const (
	ActionCreateTenant   Action = "create_tenant"
	ActionCreateUser     Action = "create_user"
	ActionListUsers      Action = "list_users"
	ActionSearchTenants  Action = "search_tenants"
	ActionUpload         Action = "upload_dataset"
	ActionViewStats      Action = "view_stats"
	ActionViewAnalytics  Action = "view_analytics"
	ActionInvokeTraining Action = "invoke_training"
)

// Policy evaluates per-action decisions. It is pure: no storage access,
// no mutation, safe for concurrent use.
type Policy struct {
	logger *slog.Logger
}

func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{logger: logger}
}

// Authorize checks role eligibility for an action. Tenant scoping and
// access-level gates are applied afterwards by the dedicated methods below.
func (p *Policy) Authorize(principal domain.Principal, action Action) error {
	allowed := false
	switch action {
	case ActionCreateTenant, ActionSearchTenants:
		allowed = principal.Role == domain.RoleRoot
	case ActionCreateUser, ActionListUsers:
		allowed = principal.Role == domain.RoleRoot || principal.Role == domain.RoleCompanyAdmin
	case ActionUpload, ActionViewStats, ActionViewAnalytics, ActionInvokeTraining:
		allowed = principal.Role.Valid()
	}

	if !allowed {
		p.logger.Warn("action denied",
			slog.String("action", string(action)),
			slog.String("role", string(principal.Role)),
			slog.String("user_id", principal.ID),
		)
		return apperror.Forbidden("role " + string(principal.Role) + " may not " + string(action))
	}
	return nil
}

// ForceUserTenant resolves the tenant a new user will belong to. Root may
// target any tenant and any role. A company admin may not create root
// accounts, and the target tenant is forcibly overwritten with the admin's
// own tenant regardless of what the request supplied.
func (p *Policy) ForceUserTenant(admin domain.Principal, targetRole domain.Role, requestedTenant *string) (*string, error) {
	switch admin.Role {
	case domain.RoleRoot:
		return requestedTenant, nil
	case domain.RoleCompanyAdmin:
		if targetRole == domain.RoleRoot {
			return nil, apperror.Forbidden("company admins may not create root accounts")
		}
		if admin.TenantID == nil {
			return nil, apperror.Forbidden("admin has no tenant affiliation")
		}
		return admin.TenantID, nil
	default:
		return nil, apperror.Forbidden("role " + string(admin.Role) + " may not manage users")
	}
}

// GateUploadAccess checks the upload preconditions: a destination tenant
// must be reachable (implicit for non-root, explicit for root) and the
// account must be write-capable. Root is exempt from the access-level gate.
func (p *Policy) GateUploadAccess(principal domain.Principal) error {
	if principal.TenantID == nil && principal.Role != domain.RoleRoot {
		return apperror.Forbidden("account has no tenant affiliation")
	}
	if principal.AccessLevel != domain.AccessReadWrite && principal.Role != domain.RoleRoot {
		return apperror.Forbidden("read-only account may not upload datasets")
	}
	return nil
}

// ResolveUploadDestination picks the tenant rows will be written to.
// Non-root principals always land in their own tenant, ignoring any
// supplied override. Root must select a destination explicitly.
func (p *Policy) ResolveUploadDestination(principal domain.Principal, override *string) (string, error) {
	if principal.Role != domain.RoleRoot {
		if principal.TenantID == nil {
			return "", apperror.Forbidden("account has no tenant affiliation")
		}
		return *principal.TenantID, nil
	}

	if override != nil && *override != "" {
		return *override, nil
	}
	return "", apperror.BadRequest("root must select a destination client")
}

// GateTraining gates training invocation on access level alone; role is
// deliberately not consulted.
func (p *Policy) GateTraining(principal domain.Principal) error {
	if principal.AccessLevel != domain.AccessReadWrite {
		return apperror.Forbidden("write access is required to train models")
	}
	return nil
}

// ValidateTenantScope checks that a non-root principal is reading within
// its own tenant. Root has implicit global scope.
func (p *Policy) ValidateTenantScope(principal domain.Principal, tenantID string) error {
	if principal.Role == domain.RoleRoot {
		return nil
	}
	if principal.TenantID == nil || *principal.TenantID != tenantID {
		p.logger.Warn("tenant scope denied",
			slog.String("user_id", principal.ID),
			slog.String("requested_tenant", tenantID),
		)
		return apperror.Forbidden("access denied: invalid tenant")
	}
	return nil
}
