package repository

import (
	"context"

	"github.com/rahul-biziquick/BiziQuick/internal/leadscore/domain"
)

// Repository provides access to lead scoring events.
type Repository interface {
	// Apply inserts the scoring event and increments the lead's cumulative
	// score by its points in one transaction. The event's generated ID and
	// CreatedAt are filled in.
	Apply(ctx context.Context, s *domain.LeadScore) error
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.LeadScore, error)
}
