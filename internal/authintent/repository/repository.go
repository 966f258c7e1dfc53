package repository

import (
	"context"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/authintent/domain"
)

// Repository defines persistence for pending-login intents.
type Repository interface {
	// Replace stores the intent, displacing any existing intent for the user.
	Replace(ctx context.Context, i *domain.Intent) error
	// GetByUserID returns the user's intent, or nil if none.
	GetByUserID(ctx context.Context, userID string) (*domain.Intent, error)
	// DeleteByUserID removes the user's intent. Missing intent is not an error.
	DeleteByUserID(ctx context.Context, userID string) error
}

// DefaultIntentTTL is how long a pending login stays valid before the OTP step.
const DefaultIntentTTL = 10 * time.Minute
