package repository

import (
	"context"
	"database/sql"

	"github.com/rahul-biziquick/BiziQuick/internal/leadscore/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a lead-score repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Apply inserts the scoring event and bumps the lead's score atomically.
// A failure on either statement rolls back both.
func (r *PostgresRepository) Apply(ctx context.Context, s *domain.LeadScore) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO lead_scores (tenant_id, lead_id, event, points, condition)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		s.TenantID, s.LeadID, s.Event, s.Points, sql.NullString{String: s.Condition, Valid: s.Condition != ""},
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE leads SET score = score + $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2`,
		s.LeadID, s.TenantID, s.Points)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListByTenant returns the tenant's scoring events, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.LeadScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, lead_id, event, points, condition, created_at
		FROM lead_scores WHERE tenant_id = $1
		ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LeadScore
	for rows.Next() {
		var s domain.LeadScore
		var cond sql.NullString
		if err := rows.Scan(&s.ID, &s.TenantID, &s.LeadID, &s.Event, &s.Points, &cond, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Condition = cond.String
		out = append(out, &s)
	}
	return out, rows.Err()
}
