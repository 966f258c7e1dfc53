package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rahul-biziquick/BiziQuick/internal/lead/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a lead repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `id, tenant_id, name, email, phone, company, source, status, score, owner_id, assigned_to, tags, activities, notes, attachments, archived, created_at, updated_at`

// Create persists the lead and fills in its generated ID.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.Lead) error {
	tags, activities, notes, attachments, err := marshalLists(l)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO leads (tenant_id, name, email, phone, company, source, status, score, owner_id, assigned_to, tags, activities, notes, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		l.TenantID, l.Name, nullable(l.Email), nullable(l.Phone), nullable(l.Company), nullable(l.Source),
		l.Status, l.Score, l.OwnerID, nullable(l.AssignedTo),
		tags, activities, notes, attachments, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
}

// GetByID returns the lead for id including archived rows, or nil if not found.
// Archived-row visibility is a service concern.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Lead, error) {
	return r.getOne(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
}

// FindLiveByEmail returns any non-archived lead with the email, across all
// tenants, or nil if none.
func (r *PostgresRepository) FindLiveByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	return r.getOne(ctx, `SELECT `+leadColumns+` FROM leads WHERE lower(email) = lower($1) AND archived = FALSE`, email)
}

// FindLiveByPhone returns any non-archived lead with the phone, across all
// tenants, or nil if none.
func (r *PostgresRepository) FindLiveByPhone(ctx context.Context, phone string) (*domain.Lead, error) {
	return r.getOne(ctx, `SELECT `+leadColumns+` FROM leads WHERE phone = $1 AND archived = FALSE`, phone)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// List returns non-archived leads matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*domain.Lead, error) {
	var (
		conds = []string{"tenant_id = $1", "archived = FALSE"}
		args  = []interface{}{f.TenantID}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", n, n, n))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Source != "" {
		add("source = $%d", f.Source)
	}
	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if f.Score != nil {
		add("score = $%d", *f.Score)
	}
	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + leadColumns + ` FROM leads WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update replaces the lead's mutable columns.
func (r *PostgresRepository) Update(ctx context.Context, l *domain.Lead) error {
	tags, activities, notes, attachments, err := marshalLists(l)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE leads SET name = $2, email = $3, phone = $4, company = $5, source = $6, status = $7,
			score = $8, assigned_to = $9, tags = $10, activities = $11, notes = $12, attachments = $13,
			updated_at = now()
		WHERE id = $1`,
		l.ID, l.Name, nullable(l.Email), nullable(l.Phone), nullable(l.Company), nullable(l.Source),
		l.Status, l.Score, nullable(l.AssignedTo), tags, activities, notes, attachments)
	return err
}

// Archive soft-deletes the lead.
func (r *PostgresRepository) Archive(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE leads SET archived = TRUE, updated_at = now() WHERE id = $1`, id)
	return err
}

// NextAssignmentPosition advances the tenant's round-robin cursor in a single
// upsert, so concurrent creations never compute the same position.
func (r *PostgresRepository) NextAssignmentPosition(ctx context.Context, tenantID string) (int64, error) {
	var position int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_assignment_cursors (tenant_id, position, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (tenant_id) DO UPDATE
		SET position = lead_assignment_cursors.position + 1, updated_at = now()
		RETURNING position`, tenantID).Scan(&position)
	return position, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var l domain.Lead
	var email, phone, company, source, assignedTo sql.NullString
	var tags, activities, notes, attachments []byte
	err := row.Scan(&l.ID, &l.TenantID, &l.Name, &email, &phone, &company, &source, &l.Status, &l.Score,
		&l.OwnerID, &assignedTo, &tags, &activities, &notes, &attachments, &l.Archived, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Email = email.String
	l.Phone = phone.String
	l.Company = company.String
	l.Source = source.String
	l.AssignedTo = assignedTo.String
	if err := json.Unmarshal(tags, &l.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(activities, &l.Activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	if err := json.Unmarshal(notes, &l.Notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	if err := json.Unmarshal(attachments, &l.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return &l, nil
}

func marshalLists(l *domain.Lead) (tags, activities, notes, attachments []byte, err error) {
	if tags, err = json.Marshal(emptyIfNil(l.Tags)); err != nil {
		return
	}
	if activities, err = json.Marshal(emptyIfNil(l.Activities)); err != nil {
		return
	}
	if notes, err = json.Marshal(emptyIfNil(l.Notes)); err != nil {
		return
	}
	attachments, err = json.Marshal(emptyIfNil(l.Attachments))
	return
}

// emptyIfNil keeps JSONB columns as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
