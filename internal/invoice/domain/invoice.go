package domain

import "time"

// Status is the invoice payment state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// StatusValid reports whether s is a known invoice status.
func StatusValid(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Invoice bills an accepted quote. The invoice number is unique per tenant.
type Invoice struct {
	ID            int64
	TenantID      string
	QuoteID       int64
	InvoiceNumber string
	DueDate       *time.Time
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
