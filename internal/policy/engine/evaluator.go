package engine

import (
	"context"

	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

// Evaluator decides whether an actor may act on a tenant's resources.
type Evaluator interface {
	// EvaluateTenantAccess returns whether the actor may touch resources
	// belonging to targetTenantID.
	EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error)
}
