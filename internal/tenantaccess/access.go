// Package tenantaccess holds the cross-tenant authorization rule shared by
// all tenant-scoped services.
package tenantaccess

// Actor is the authenticated caller resolved from an access token.
type Actor struct {
	ID       string
	Role     string
	TenantID string
}

// RoleSuperAdmin may act across tenant boundaries.
const RoleSuperAdmin = "SUPER_ADMIN"

// Allowed reports whether the actor may touch resources of targetTenantID.
// An actor with no tenant is a platform-level account and passes. Otherwise
// the tenant must match unless the actor is a super admin.
func Allowed(actor Actor, targetTenantID string) bool {
	if actor.TenantID == "" {
		return true
	}
	if actor.TenantID == targetTenantID {
		return true
	}
	return actor.Role == RoleSuperAdmin
}
