// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@acme.dev) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/config"
	"github.com/rahul-biziquick/BiziQuick/internal/db"
	leaddomain "github.com/rahul-biziquick/BiziQuick/internal/lead/domain"
	leadrepo "github.com/rahul-biziquick/BiziQuick/internal/lead/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	tenantdomain "github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
	tenantrepo "github.com/rahul-biziquick/BiziQuick/internal/tenant/repository"
	userdomain "github.com/rahul-biziquick/BiziQuick/internal/user/domain"
	userrepo "github.com/rahul-biziquick/BiziQuick/internal/user/repository"
)

const (
	devTenantID   = "dev-tenant-001"
	devAdminEmail = "admin@acme.dev"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	tenants := tenantrepo.NewPostgresRepository(conn)
	leads := leadrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devAdminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@acme.dev exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	if err := tenants.Create(ctx, &tenantdomain.Tenant{
		ID:        devTenantID,
		Name:      "Acme Dev",
		Plan:      tenantdomain.PlanPro,
		Status:    tenantdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create tenant: %v", err)
	}

	seedUsers := []*userdomain.User{
		{ID: "dev-user-admin", TenantID: devTenantID, Name: "Dev Admin", Email: devAdminEmail, Role: userdomain.RoleAdmin},
		{ID: "dev-user-manager", TenantID: devTenantID, Name: "Morgan Manager", Email: "manager@acme.dev", Role: userdomain.RoleManager},
		{ID: "dev-user-sales-1", TenantID: devTenantID, Name: "Sam Seller", Email: "sam@acme.dev", Role: userdomain.RoleSalesExecutive},
		{ID: "dev-user-sales-2", TenantID: devTenantID, Name: "Skylar Seller", Email: "skylar@acme.dev", Role: userdomain.RoleSalesExecutive},
	}
	for _, u := range seedUsers {
		u.PasswordHash = passwordHash
		u.Verified = true
		u.CreatedAt = now
		u.UpdatedAt = now
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
		// keep round-robin order deterministic
		now = now.Add(time.Millisecond)
	}

	seedLeads := []*leaddomain.Lead{
		{
			TenantID: devTenantID, Name: "Jordan Prospect", Email: "jordan@globex.com",
			Phone: "+15550100", Company: "globex", Source: "website", Score: 21,
			AssignedTo: "dev-user-sales-1", Status: leaddomain.StatusNew,
			Tags: []string{"warm"},
		},
		{
			TenantID: devTenantID, Name: "Casey Buyer", Email: "casey@initech.io",
			Phone: "+15550101", Company: "initech", Source: "email", Score: 16,
			AssignedTo: "dev-user-sales-2", Status: leaddomain.StatusContacted,
			Tags: []string{"campaign-launch"},
		},
	}
	for _, l := range seedLeads {
		l.Activities = []leaddomain.Activity{{Action: "created", By: "dev-user-admin", At: now}}
		l.CreatedAt = now
		l.UpdatedAt = now
		if err := leads.Create(ctx, l); err != nil {
			log.Fatalf("create lead %s: %v", l.Email, err)
		}
	}

	log.Println("Seed applied: 1 tenant, 4 users, 2 leads. Login with admin@acme.dev / password123.")
}
