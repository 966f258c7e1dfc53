package repository

import (
	"context"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/lead/domain"
)

// ListFilter narrows a lead listing. Zero values mean "no constraint" except
// Limit, which callers must set.
type ListFilter struct {
	TenantID string
	Search   string
	Status   string
	Source   string
	OwnerID  string
	Score    *int64
	From     time.Time
	To       time.Time
	Limit    int32
	Offset   int32
}

// Repository provides access to lead storage. Lookups return (nil, nil) when
// no row matches.
type Repository interface {
	Create(ctx context.Context, l *domain.Lead) error
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	List(ctx context.Context, f ListFilter) ([]*domain.Lead, error)
	Update(ctx context.Context, l *domain.Lead) error
	Archive(ctx context.Context, id int64) error
	FindLiveByEmail(ctx context.Context, email string) (*domain.Lead, error)
	FindLiveByPhone(ctx context.Context, phone string) (*domain.Lead, error)
	// NextAssignmentPosition advances the tenant's round-robin cursor and
	// returns the new position, starting at 1. The advance is a single
	// atomic statement.
	NextAssignmentPosition(ctx context.Context, tenantID string) (int64, error)
}
