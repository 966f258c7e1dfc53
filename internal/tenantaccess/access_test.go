package tenantaccess

import "testing"

func TestAllowed(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		target string
		want   bool
	}{
		{"platform account with no tenant", Actor{ID: "u1", Role: "ADMIN"}, "tenant-a", true},
		{"same tenant", Actor{ID: "u1", Role: "MANAGER", TenantID: "tenant-a"}, "tenant-a", true},
		{"other tenant", Actor{ID: "u1", Role: "MANAGER", TenantID: "tenant-a"}, "tenant-b", false},
		{"super admin crosses tenants", Actor{ID: "u1", Role: RoleSuperAdmin, TenantID: "tenant-a"}, "tenant-b", true},
		{"sales executive other tenant", Actor{ID: "u1", Role: "SALES_EXECUTIVE", TenantID: "tenant-a"}, "tenant-b", false},
		{"empty target with tenant actor", Actor{ID: "u1", Role: "ADMIN", TenantID: "tenant-a"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.actor, tt.target); got != tt.want {
				t.Errorf("Allowed(%+v, %q) = %v, want %v", tt.actor, tt.target, got, tt.want)
			}
		})
	}
}
