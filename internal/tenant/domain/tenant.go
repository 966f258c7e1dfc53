package domain

import "time"

// Tenant is the isolation boundary for a customer organization's data.
type Tenant struct {
	ID        string
	Name      string
	Plan      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	PlanFree       = "FREE"
	PlanPro        = "PRO"
	PlanEnterprise = "ENTERPRISE"

	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)
