package domain

import "time"

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// StatusValid reports whether s is a known quote status.
func StatusValid(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Quote is a priced proposal generated for an opportunity.
type Quote struct {
	ID            int64
	TenantID      string
	OpportunityID int64
	PDFURL        string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
