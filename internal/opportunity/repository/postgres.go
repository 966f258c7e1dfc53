package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rahul-biziquick/BiziQuick/internal/opportunity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an opportunity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const opportunityColumns = `id, tenant_id, lead_id, stage, value, created_at, updated_at`

// Create persists the opportunity and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Opportunity) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO opportunities (tenant_id, lead_id, stage, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		o.TenantID, o.LeadID, o.Stage, o.Value, o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
}

// GetByID returns the opportunity for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Opportunity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)
	o, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// ListByTenant returns the tenant's opportunities, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Opportunity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+opportunityColumns+` FROM opportunities
		WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update replaces the opportunity's stage and value.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Opportunity) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE opportunities SET stage = $2, value = $3, updated_at = now() WHERE id = $1`,
		o.ID, o.Stage, o.Value)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOpportunity(row rowScanner) (*domain.Opportunity, error) {
	var o domain.Opportunity
	if err := row.Scan(&o.ID, &o.TenantID, &o.LeadID, &o.Stage, &o.Value, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
