package repository

import (
	"context"

	"github.com/rahul-biziquick/BiziQuick/internal/invoice/domain"
)

// Repository provides access to invoice storage. Lookups return (nil, nil)
// when no row matches.
type Repository interface {
	Create(ctx context.Context, i *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Invoice, error)
	Update(ctx context.Context, i *domain.Invoice) error
}
