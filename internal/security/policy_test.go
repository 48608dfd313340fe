package security

import (
	"testing"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
)

func principal(role domain.Role, tenant string, access string) domain.Principal {
	p := domain.Principal{ID: "p-1", Role: role, AccessLevel: access}
	if tenant != "" {
		p.TenantID = &tenant
	}
	return p
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	p := NewPolicy(nil)

	cases := []struct {
		role   domain.Role
		action Action
		allow  bool
	}{
		{domain.RoleRoot, ActionCreateTenant, true},
		{domain.RoleCompanyAdmin, ActionCreateTenant, false},
		{domain.RoleUser, ActionCreateTenant, false},

		{domain.RoleRoot, ActionSearchTenants, true},
		{domain.RoleCompanyAdmin, ActionSearchTenants, false},
		{domain.RoleUser, ActionSearchTenants, false},

		{domain.RoleRoot, ActionCreateUser, true},
		{domain.RoleCompanyAdmin, ActionCreateUser, true},
		{domain.RoleUser, ActionCreateUser, false},

		{domain.RoleRoot, ActionListUsers, true},
		{domain.RoleCompanyAdmin, ActionListUsers, true},
		{domain.RoleUser, ActionListUsers, false},

		{domain.RoleUser, ActionUpload, true},
		{domain.RoleUser, ActionViewStats, true},
		{domain.RoleUser, ActionViewAnalytics, true},
		{domain.RoleUser, ActionInvokeTraining, true},

		{domain.Role("ghost"), ActionUpload, false},
	}

	for _, tc := range cases {
		err := p.Authorize(principal(tc.role, "t-1", domain.AccessReadWrite), tc.action)
		if tc.allow && err != nil {
			t.Errorf("%s/%s: expected allow, got %v", tc.role, tc.action, err)
		}
		if !tc.allow && err == nil {
			t.Errorf("%s/%s: expected deny", tc.role, tc.action)
		}
	}
}

func TestForceUserTenant(t *testing.T) {
	p := NewPolicy(nil)
	requested := "tenant-other"

	// Root may target any tenant and role.
	got, err := p.ForceUserTenant(principal(domain.RoleRoot, "", domain.AccessReadWrite), domain.RoleRoot, &requested)
	if err != nil {
		t.Fatalf("root create failed: %v", err)
	}
	if got == nil || *got != requested {
		t.Fatalf("root should keep requested tenant, got %v", got)
	}

	// Company admin: requested tenant is overwritten with its own.
	admin := principal(domain.RoleCompanyAdmin, "tenant-own", domain.AccessReadWrite)
	got, err = p.ForceUserTenant(admin, domain.RoleUser, &requested)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if got == nil || *got != "tenant-own" {
		t.Fatalf("admin target tenant should be forced to own, got %v", got)
	}

	// Company admin may not create root accounts.
	if _, err := p.ForceUserTenant(admin, domain.RoleRoot, nil); err == nil {
		t.Fatalf("expected root creation denial for admin")
	}

	// Regular user may not manage users at all.
	if _, err := p.ForceUserTenant(principal(domain.RoleUser, "t", domain.AccessReadWrite), domain.RoleUser, nil); err == nil {
		t.Fatalf("expected denial for regular user")
	}
}

func TestGateUploadAccess(t *testing.T) {
	p := NewPolicy(nil)

	if err := p.GateUploadAccess(principal(domain.RoleUser, "t-1", domain.AccessReadWrite)); err != nil {
		t.Fatalf("read_write user should pass: %v", err)
	}
	if err := p.GateUploadAccess(principal(domain.RoleUser, "t-1", domain.AccessReadOnly)); err == nil {
		t.Fatalf("read_only user should be denied")
	}
	// Root is exempt from the access-level gate.
	if err := p.GateUploadAccess(principal(domain.RoleRoot, "", domain.AccessReadOnly)); err != nil {
		t.Fatalf("root should bypass the access gate: %v", err)
	}
	// A non-root account without a tenant cannot upload anywhere.
	if err := p.GateUploadAccess(principal(domain.RoleUser, "", domain.AccessReadWrite)); err == nil {
		t.Fatalf("tenantless user should be denied")
	}
}

func TestResolveUploadDestination(t *testing.T) {
	p := NewPolicy(nil)
	override := "tenant-target"

	// Non-root always lands in its own tenant, override ignored.
	got, err := p.ResolveUploadDestination(principal(domain.RoleUser, "tenant-own", domain.AccessReadWrite), &override)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != "tenant-own" {
		t.Fatalf("expected own tenant, got %q", got)
	}

	// Root with explicit override.
	got, err = p.ResolveUploadDestination(principal(domain.RoleRoot, "", domain.AccessReadWrite), &override)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != override {
		t.Fatalf("expected override, got %q", got)
	}

	// Root without override must select a destination.
	_, err = p.ResolveUploadDestination(principal(domain.RoleRoot, "", domain.AccessReadWrite), nil)
	if err == nil {
		t.Fatalf("expected destination selection error for root")
	}
	var appErr *apperror.Error
	if !asAppError(err, &appErr) || appErr.Kind != apperror.KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}

	// A stray tenant binding on a root token is never a fallback
	// destination; the selection stays explicit.
	_, err = p.ResolveUploadDestination(principal(domain.RoleRoot, "tenant-stray", domain.AccessReadWrite), nil)
	if err == nil {
		t.Fatalf("root with stray tenant must still select a destination")
	}
}

func TestGateTrainingIgnoresRole(t *testing.T) {
	p := NewPolicy(nil)

	// Access level is the only input: a read_write regular user passes,
	// a read_only root is denied.
	if err := p.GateTraining(principal(domain.RoleUser, "t-1", domain.AccessReadWrite)); err != nil {
		t.Fatalf("read_write user should train: %v", err)
	}
	if err := p.GateTraining(principal(domain.RoleRoot, "", domain.AccessReadOnly)); err == nil {
		t.Fatalf("read_only root should be denied")
	}
}

func TestValidateTenantScope(t *testing.T) {
	p := NewPolicy(nil)

	if err := p.ValidateTenantScope(principal(domain.RoleRoot, "", domain.AccessReadWrite), "any"); err != nil {
		t.Fatalf("root has global scope: %v", err)
	}
	if err := p.ValidateTenantScope(principal(domain.RoleUser, "t-1", domain.AccessReadWrite), "t-1"); err != nil {
		t.Fatalf("own tenant should pass: %v", err)
	}
	if err := p.ValidateTenantScope(principal(domain.RoleUser, "t-1", domain.AccessReadWrite), "t-2"); err == nil {
		t.Fatalf("foreign tenant should be denied")
	}
	if err := p.ValidateTenantScope(principal(domain.RoleUser, "", domain.AccessReadWrite), "t-1"); err == nil {
		t.Fatalf("tenantless user should be denied")
	}
}

func asAppError(err error, target **apperror.Error) bool {
	e, ok := err.(*apperror.Error)
	if ok {
		*target = e
	}
	return ok
}
