package repository

import (
	"context"

	"github.com/rahul-biziquick/BiziQuick/internal/opportunity/domain"
)

// Repository provides access to opportunity storage. Lookups return
// (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, o *domain.Opportunity) error
	GetByID(ctx context.Context, id int64) (*domain.Opportunity, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Opportunity, error)
	Update(ctx context.Context, o *domain.Opportunity) error
}
