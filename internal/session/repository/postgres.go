package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, platform, session_id, refresh_token_hash, refresh_expires_at, session_version, created_at, updated_at`

// GetByUserAndPlatform returns the session row, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndPlatform(ctx context.Context, userID string, platform domain.Platform) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND platform = $2`, userID, string(platform))
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// BumpVersion atomically creates or advances the session row. The single
// upsert closes the race between concurrent verifications.
func (r *PostgresRepository) BumpVersion(ctx context.Context, id, userID string, platform domain.Platform, sessionID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, user_id, platform, session_id, session_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, now(), now())
		ON CONFLICT (user_id, platform) DO UPDATE
		SET session_version = sessions.session_version + 1,
		    session_id = EXCLUDED.session_id,
		    updated_at = now()
		RETURNING `+sessionColumns,
		id, userID, string(platform), sessionID)
	return scanSession(row)
}

// SetRefreshToken stores the refresh token hash and expiry for the session.
func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID string, platform domain.Platform, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = $3, refresh_expires_at = $4, updated_at = now()
		WHERE user_id = $1 AND platform = $2`,
		userID, string(platform), tokenHash, expiresAt)
	return err
}

// ClearRefreshToken removes the refresh token, session id, and expiry for the
// platform. SessionVersion is left unchanged.
func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, userID string, platform domain.Platform) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = NULL, refresh_expires_at = NULL, session_id = NULL, updated_at = now()
		WHERE user_id = $1 AND platform = $2`,
		userID, string(platform))
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var platform string
	var sid, hash sql.NullString
	var exp sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &platform, &sid, &hash, &exp, &s.SessionVersion, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Platform = domain.Platform(platform)
	if sid.Valid {
		s.SessionID = sid.String
	}
	if hash.Valid {
		s.RefreshTokenHash = hash.String
	}
	if exp.Valid {
		t := exp.Time
		s.RefreshExpiresAt = &t
	}
	return &s, nil
}
