package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rahul-biziquick/BiziQuick/internal/otp/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP code repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert stores the code for its email, replacing any previously active code.
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Code) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_codes (email, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		c.Email, c.CodeHash, c.ExpiresAt, c.CreatedAt)
	return err
}

// GetByEmail returns the active code for email, or nil if none is stored.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Code, error) {
	var c domain.Code
	err := r.db.QueryRowContext(ctx, `
		SELECT email, code_hash, expires_at, created_at
		FROM otp_codes WHERE email = $1`, email).
		Scan(&c.Email, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the code for email.
func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE email = $1`, email)
	return err
}
