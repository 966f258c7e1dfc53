package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, tenant_id, name, email, password_hash, role, verified, reset_token, reset_token_expires_at, created_at, updated_at`

// Create persists the user. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	tid := sql.NullString{String: u.TenantID, Valid: u.TenantID != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, name, email, password_hash, role, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, tid, u.Name, u.Email, u.PasswordHash, u.Role, u.Verified, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByResetToken returns the user holding the given reset token, or nil if none.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// SetVerified marks the user as verified.
func (r *PostgresRepository) SetVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET verified = TRUE, updated_at = now() WHERE id = $1`, id)
	return err
}

// UpdatePasswordHash replaces the user's password hash.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	return err
}

// SetResetToken stores the password-reset token and its expiry on the user.
func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expires_at = $3, updated_at = now() WHERE id = $1`,
		id, token, expiresAt)
	return err
}

// ClearResetToken removes any stored password-reset token from the user.
func (r *PostgresRepository) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = now() WHERE id = $1`, id)
	return err
}

// ListByRolesAndTenant returns users in the tenant whose role is in roles, ordered by creation time.
func (r *PostgresRepository) ListByRolesAndTenant(ctx context.Context, tenantID string, roles []string) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE tenant_id = $1 AND role = ANY($2)
		ORDER BY created_at`, tenantID, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var tid, rt sql.NullString
	var rtExp sql.NullTime
	err := row.Scan(&u.ID, &tid, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Verified, &rt, &rtExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tid.Valid {
		u.TenantID = tid.String
	}
	if rt.Valid {
		u.ResetToken = rt.String
	}
	if rtExp.Valid {
		t := rtExp.Time
		u.ResetTokenExpiresAt = &t
	}
	return &u, nil
}
