package repository

import (
	"context"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	SetVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ListByRolesAndTenant returns users in the tenant whose role is in roles,
	// ordered by creation time. Used for round-robin eligibility.
	ListByRolesAndTenant(ctx context.Context, tenantID string, roles []string) ([]*domain.User, error)
}
