package repository

import (
	"context"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/session/domain"
)

// Repository defines persistence for per-(user,platform) sessions.
type Repository interface {
	// GetByUserAndPlatform returns the session row, or nil if the user has
	// never established a session on that platform.
	GetByUserAndPlatform(ctx context.Context, userID string, platform domain.Platform) (*domain.Session, error)
	// BumpVersion atomically creates or advances the session row: the version
	// becomes previous+1 (1 for a new row) and sessionID is recorded. Returns
	// the resulting row.
	BumpVersion(ctx context.Context, id, userID string, platform domain.Platform, sessionID string) (*domain.Session, error)
	// SetRefreshToken stores the refresh token hash and expiry for the session.
	SetRefreshToken(ctx context.Context, userID string, platform domain.Platform, tokenHash string, expiresAt time.Time) error
	// ClearRefreshToken removes the refresh token, session id, and expiry for
	// the platform. SessionVersion is left unchanged.
	ClearRefreshToken(ctx context.Context, userID string, platform domain.Platform) error
}
