package repository

import (
	"context"

	"github.com/rahul-biziquick/BiziQuick/internal/quote/domain"
)

// Repository provides access to quote storage. Lookups return (nil, nil)
// when no row matches.
type Repository interface {
	Create(ctx context.Context, q *domain.Quote) error
	GetByID(ctx context.Context, id int64) (*domain.Quote, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Quote, error)
	Update(ctx context.Context, q *domain.Quote) error
}
