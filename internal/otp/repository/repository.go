package repository

import (
	"context"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/otp/domain"
)

// Repository defines persistence for OTP codes.
type Repository interface {
	// Upsert stores the code for its email, replacing any previously active code.
	Upsert(ctx context.Context, c *domain.Code) error
	// GetByEmail returns the active code for email, or nil if none is stored.
	GetByEmail(ctx context.Context, email string) (*domain.Code, error)
	// Delete removes the code for email. Deleting a missing code is not an error.
	Delete(ctx context.Context, email string) error
}

// DefaultCodeTTL is the default OTP expiry.
const DefaultCodeTTL = 5 * time.Minute
