package domain

import "time"

// User represents an account. TenantID is empty for platform-level admins.
// Per-platform session state lives on the sessions table, not here.
type User struct {
	ID                  string
	TenantID            string
	Name                string
	Email               string
	PasswordHash        string
	Role                string
	Verified            bool
	ResetToken          string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

const (
	RoleSuperAdmin       = "SUPER_ADMIN"
	RoleAdmin            = "ADMIN"
	RoleManager          = "MANAGER"
	RoleSalesExecutive   = "SALES_EXECUTIVE"
	RoleSupportExecutive = "SUPPORT_EXECUTIVE"
)

// AllowedRoles lists the roles accepted at registration.
var AllowedRoles = []string{RoleSuperAdmin, RoleAdmin, RoleManager, RoleSalesExecutive, RoleSupportExecutive}

// RoleAllowed reports whether role is in the allowed set.
func RoleAllowed(role string) bool {
	for _, r := range AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
