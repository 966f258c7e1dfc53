package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rahul-biziquick/BiziQuick/internal/invoice/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an invoice repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const invoiceColumns = `id, tenant_id, quote_id, invoice_number, due_date, status, created_at, updated_at`

// Create persists the invoice and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Invoice) error {
	var due sql.NullTime
	if i.DueDate != nil {
		due = sql.NullTime{Time: *i.DueDate, Valid: true}
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO invoices (tenant_id, quote_id, invoice_number, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		i.TenantID, i.QuoteID, i.InvoiceNumber, due, i.Status, i.CreatedAt, i.UpdatedAt).Scan(&i.ID)
}

// GetByID returns the invoice for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByNumber returns the tenant's invoice with the number, or nil if none.
func (r *PostgresRepository) GetByNumber(ctx context.Context, tenantID, invoiceNumber string) (*domain.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND invoice_number = $2`, tenantID, invoiceNumber)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	i, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// ListByTenant returns the tenant's invoices, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int32) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Update replaces the invoice's due date and status.
func (r *PostgresRepository) Update(ctx context.Context, i *domain.Invoice) error {
	var due sql.NullTime
	if i.DueDate != nil {
		due = sql.NullTime{Time: *i.DueDate, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET due_date = $2, status = $3, updated_at = now() WHERE id = $1`,
		i.ID, due, i.Status)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var i domain.Invoice
	var due sql.NullTime
	if err := row.Scan(&i.ID, &i.TenantID, &i.QuoteID, &i.InvoiceNumber, &due, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time
		i.DueDate = &t
	}
	return &i, nil
}
