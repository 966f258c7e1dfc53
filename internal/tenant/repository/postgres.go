package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tenant repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the tenant. The tenant must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Plan, t.Status, t.CreatedAt, t.UpdatedAt)
	return err
}

// GetByID returns the tenant for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, plan, status, created_at, updated_at
		FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// List returns tenants ordered by creation time, paginated by limit and offset.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int32) ([]*domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, plan, status, created_at, updated_at
		FROM tenants ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
