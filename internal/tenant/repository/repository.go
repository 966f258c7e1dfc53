package repository

import (
	"context"

	"github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
)

// Repository defines persistence for tenants.
type Repository interface {
	Create(ctx context.Context, t *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	List(ctx context.Context, limit, offset int32) ([]*domain.Tenant, error)
}
