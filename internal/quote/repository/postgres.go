package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rahul-biziquick/BiziQuick/internal/quote/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a quote repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const quoteColumns = `id, tenant_id, opportunity_id, pdf_url, status, created_at, updated_at`

// Create persists the quote and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, q *domain.Quote) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO quotes (tenant_id, opportunity_id, pdf_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		q.TenantID, q.OpportunityID, sql.NullString{String: q.PDFURL, Valid: q.PDFURL != ""},
		q.Status, q.CreatedAt, q.UpdatedAt).Scan(&q.ID)
}

// GetByID returns the quote for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Quote, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return q, nil
}

// ListByTenant returns the tenant's quotes, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Quote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Update replaces the quote's pdf URL and status.
func (r *PostgresRepository) Update(ctx context.Context, q *domain.Quote) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET pdf_url = $2, status = $3, updated_at = now() WHERE id = $1`,
		q.ID, sql.NullString{String: q.PDFURL, Valid: q.PDFURL != ""}, q.Status)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var q domain.Quote
	var pdf sql.NullString
	if err := row.Scan(&q.ID, &q.TenantID, &q.OpportunityID, &pdf, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.PDFURL = pdf.String
	return &q, nil
}
