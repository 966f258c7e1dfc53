package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rahul-biziquick/BiziQuick/internal/authintent/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an intent repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace stores the intent, displacing any existing intent for the user.
func (r *PostgresRepository) Replace(ctx context.Context, i *domain.Intent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_intents (id, user_id, email, platform, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id, email = EXCLUDED.email, platform = EXCLUDED.platform,
		    expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		i.ID, i.UserID, i.Email, i.Platform, i.ExpiresAt, i.CreatedAt)
	return err
}

// GetByUserID returns the user's intent, or nil if none.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*domain.Intent, error) {
	var i domain.Intent
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, platform, expires_at, created_at
		FROM auth_intents WHERE user_id = $1`, userID).
		Scan(&i.ID, &i.UserID, &i.Email, &i.Platform, &i.ExpiresAt, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

// DeleteByUserID removes the user's intent.
func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_intents WHERE user_id = $1`, userID)
	return err
}
